package notes

import (
	"math"
	"time"
)

const (
	// DefaultPage is the page returned when none (or an invalid one) is requested.
	DefaultPage = 1

	// DefaultLimit is the default number of notes to return in a list
	DefaultLimit = 20

	// MaxLimit is the maximum number of notes to return in a list
	MaxLimit = 100

	// MaxTitleLength is the longest title accepted, in characters, after trimming.
	MaxTitleLength = 200
)

// Note is a user's note. Tags keep the order they were given in.
type Note struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateNoteParams contains parameters for creating a note.
// A nil Tags slice is stored as an empty list.
type CreateNoteParams struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// UpdateNoteParams contains parameters for updating a note.
// Every field is optional; nil means "leave unchanged".
type UpdateNoteParams struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// IsEmpty reports whether no field would be changed.
func (p UpdateNoteParams) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil
}

// ListParams filters and pages an owner-scoped listing.
// Empty Search or Tag disables that filter.
type ListParams struct {
	Search string
	Tag    string
	Page   int
	Limit  int
}

// Pagination describes where a page sits within the full result set.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListResult is one page of notes plus its pagination metadata.
type ListResult struct {
	Notes      []Note     `json:"notes"`
	Pagination Pagination `json:"pagination"`
}

// Normalize replaces out-of-range paging values with their defaults and
// clamps the limit to MaxLimit.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the number of rows skipped before this page. It saturates at
// math.MaxInt instead of wrapping, so a huge page still returns no rows.
func (p ListParams) Offset() int {
	if p.Limit > 0 && p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit), or 0 when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
