package domain

import (
	"fmt"
	"strings"
	"time"
)

// ReadProgress is a user's position in a book. One record exists per (book, user).
type ReadProgress struct {
	BookID    string    `json:"book_id"`
	UserID    string    `json:"user_id"`
	Page      int       `json:"page"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReadStatus classifies a book for a user based on its progress record.
type ReadStatus string

// Read statuses.
const (
	ReadStatusRead       ReadStatus = "READ"
	ReadStatusUnread     ReadStatus = "UNREAD"
	ReadStatusInProgress ReadStatus = "IN_PROGRESS"
)

// ParseReadStatus resolves a read status case-insensitively.
func ParseReadStatus(s string) (ReadStatus, error) {
	switch ReadStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case ReadStatusRead:
		return ReadStatusRead, nil
	case ReadStatusUnread:
		return ReadStatusUnread, nil
	case ReadStatusInProgress:
		return ReadStatusInProgress, nil
	default:
		return "", fmt.Errorf("unknown read status %q", s)
	}
}

// ReadStatusOf derives the read status from a (possibly absent) progress record.
func ReadStatusOf(p *ReadProgress) ReadStatus {
	switch {
	case p == nil:
		return ReadStatusUnread
	case p.Completed:
		return ReadStatusRead
	default:
		return ReadStatusInProgress
	}
}
