package models

import (
	"fmt"
	"time"
)

// Post represents a row in the posts table with its owner joined in.
type Post struct {
	ID        int64      `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	Content   string     `db:"content" json:"content"`
	OwnerID   int64      `db:"owner_id" json:"owner_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	Owner     PublicUser `db:"owner" json:"owner"`
}

// PostCreate is the JSON body for POST /api/v1/posts.
type PostCreate struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (p *PostCreate) Validate() error {
	if err := validateTitle(p.Title); err != nil {
		return err
	}
	if p.Content == "" {
		return fmt.Errorf("content must not be empty")
	}
	return nil
}

// PostUpdate is the JSON body for PUT /api/v1/posts/{id}. Nil fields are left
// untouched.
type PostUpdate struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (p *PostUpdate) Validate() error {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Content != nil && *p.Content == "" {
		return fmt.Errorf("content must not be empty")
	}
	return nil
}

func validateTitle(title string) error {
	if len(title) < 1 || len(title) > 200 {
		return fmt.Errorf("title must be between 1 and 200 characters")
	}
	return nil
}
