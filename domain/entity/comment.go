package entity

import "time"

type CommentAuthor struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
}

type Comment struct {
	ID        int64          `json:"id"`
	Post      string         `json:"post"`
	User      *CommentAuthor `json:"user,omitempty"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	Replies   []Reply        `json:"replies,omitempty"`
}

func (c *Comment) Username() string {
	if c.User == nil {
		return ""
	}
	return c.User.Username
}

type Reply struct {
	ID        int64          `json:"id"`
	Comment   int64          `json:"comment"`
	User      *CommentAuthor `json:"user,omitempty"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
}
