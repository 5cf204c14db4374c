package domain

import "time"

// Syncable carries the identity and lifecycle timestamps shared by series
// and books. Books are soft-deleted: DeletedAt is set and the row stays.
type Syncable struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// InitTimestamps stamps a new entity.
func (s *Syncable) InitTimestamps() {
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
}

// Touch records a modification.
func (s *Syncable) Touch() { s.UpdatedAt = time.Now() }

// IsDeleted reports whether the entity has been soft-deleted.
func (s *Syncable) IsDeleted() bool { return s.DeletedAt != nil }

// MarkDeleted soft-deletes the entity.
func (s *Syncable) MarkDeleted() {
	now := time.Now()
	s.DeletedAt, s.UpdatedAt = &now, now
}
