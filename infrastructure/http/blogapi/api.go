// Package blogapi binds the MyBlog REST endpoints to typed calls on top of
// the refreshing API client.
package blogapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/myblog/myblog/application/port/outbound"
	"github.com/myblog/myblog/infrastructure/http/apiclient"
)

// Requester is satisfied by *apiclient.Client.
type Requester interface {
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error)
}

type API struct {
	client Requester
}

var (
	_ outbound.AuthAPI    = (*API)(nil)
	_ outbound.ContentAPI = (*API)(nil)
	_ outbound.AdminAPI   = (*API)(nil)
)

func New(client Requester) *API {
	return &API{client: client}
}

func (a *API) get(ctx context.Context, path string, query url.Values, out any) error {
	return a.call(ctx, apiclient.Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (a *API) send(ctx context.Context, method, path string, body, out any) error {
	return a.call(ctx, apiclient.Request{Method: method, Path: path, Body: body}, out)
}

func (a *API) call(ctx context.Context, req apiclient.Request, out any) error {
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}

func idQuery(key string, id int64) url.Values {
	if id == 0 {
		return nil
	}
	return url.Values{key: {strconv.FormatInt(id, 10)}}
}
