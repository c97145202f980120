package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/myblog/myblog/pkg/listview"
)

type listFlags struct {
	search  string
	sort    string
	desc    bool
	page    int
	perPage int
}

func (f *listFlags) bind(cmd *cobra.Command, sortKeys ...string) {
	cmd.Flags().StringVar(&f.search, "search", "", "case-insensitive filter")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort key: "+strings.Join(sortKeys, ", "))
	cmd.Flags().BoolVar(&f.desc, "desc", false, "sort in descending order")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.perPage, "per-page", listview.DefaultPerPage, "items per page")
}

func (f *listFlags) query() listview.Query {
	return listview.Query{
		Search:  f.search,
		SortKey: f.sort,
		Desc:    f.desc,
		Page:    f.page,
		PerPage: f.perPage,
	}
}

// apply checks the sort key against fields and runs the query over items.
func apply[T any](f *listFlags, items []T, fields listview.Fields[T]) (listview.Page[T], error) {
	if _, ok := fields.Sort[f.sort]; f.sort != "" && !ok {
		return listview.Page[T]{}, fmt.Errorf("unknown sort key %q", f.sort)
	}
	return listview.Apply(items, f.query(), fields), nil
}

func pageFooter[T any](p listview.Page[T]) string {
	if p.TotalPages == 0 {
		return "no results"
	}
	return fmt.Sprintf("page %d of %d (%d total)", p.Page, p.TotalPages, p.Total)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func itoa[T ~int | ~int64](v T) string {
	return strconv.FormatInt(int64(v), 10)
}
