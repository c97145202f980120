package entity

import "time"

// PostStats holds the engagement counters of a single post.
type PostStats struct {
	ID       int64   `json:"id"`
	Post     int64   `json:"post"`
	Views    int     `json:"views"`
	Likes    int     `json:"likes"`
	Shares   int     `json:"shares"`
	Comments int     `json:"comments"`
	LikedBy  []int64 `json:"liked_by"`
}

func (s *PostStats) LikedByUser(userID int64) bool {
	for _, id := range s.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

type Contact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactMessage is the payload of the public contact form.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type Subscriber struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	SubscribedAt time.Time `json:"subscribed_at"`
}
