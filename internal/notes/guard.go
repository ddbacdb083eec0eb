package notes

import (
	"context"
	"strconv"

	"github.com/kuitang/notes-api/internal/errs"
)

// ErrNotOwner is the message returned when a note belongs to someone else.
const ErrNotOwner = "You do not have permission to access this note"

// Finder loads a note by ID without checking who owns it.
type Finder interface {
	FindByID(ctx context.Context, id int64) (*Note, error)
}

// Guard resolves a note for a requester and refuses it unless they own it.
type Guard struct {
	notes Finder
}

// NewGuard creates a Guard over the given note lookup.
func NewGuard(notes Finder) *Guard {
	return &Guard{notes: notes}
}

// Authorize looks the note up and checks ownership. It returns a NotFound
// error when the note does not exist (or rawID is not a note ID), a
// PermissionDenied error when requesterID is not the owner, and the note
// otherwise.
func (g *Guard) Authorize(ctx context.Context, rawID string, requesterID int64) (*Note, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return nil, errs.New(errs.NotFound, ErrNoteNotFound)
	}

	note, err := g.notes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if note.UserID != requesterID {
		return nil, errs.New(errs.PermissionDenied, ErrNotOwner)
	}
	return note, nil
}

type noteContextKey struct{}

// WithNote attaches an authorized note to the context.
func WithNote(ctx context.Context, note *Note) context.Context {
	return context.WithValue(ctx, noteContextKey{}, note)
}

// FromContext returns the note attached by WithNote, or nil.
func FromContext(ctx context.Context) *Note {
	note, _ := ctx.Value(noteContextKey{}).(*Note)
	return note
}
