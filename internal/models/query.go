package models

import "time"

// UserQuery is one submitted query, unique by text.
type UserQuery struct {
	ID          int64      `json:"id"`
	Text        string     `json:"text"`
	CreatedAt   time.Time  `json:"created_at"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
	Email       string     `json:"email,omitempty"`
	Message     string     `json:"message,omitempty"`
	Cancelled   bool       `json:"cancelled"`
}
