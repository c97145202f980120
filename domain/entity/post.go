package entity

import (
	"strings"
	"time"
)

type Author struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"fname"`
	LastName  string `json:"lname"`
}

type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug,omitempty"`
	Content   string    `json:"content,omitempty"`
	Tags      string    `json:"tags,omitempty"`
	Status    string    `json:"status,omitempty"`
	Category  int64     `json:"category,omitempty"`
	Author    *Author   `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthorName returns "N/A" for posts without an author, matching the admin table.
func (p *Post) AuthorName() string {
	if p.Author == nil {
		return "N/A"
	}
	return strings.TrimSpace(p.Author.FirstName + " " + p.Author.LastName)
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}
