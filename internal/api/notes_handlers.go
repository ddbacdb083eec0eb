package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kuitang/notes-api/internal/auth"
	"github.com/kuitang/notes-api/internal/errs"
	"github.com/kuitang/notes-api/internal/notes"
)

// NoteStore is the owner-scoped note repository.
type NoteStore interface {
	Create(ctx context.Context, ownerID int64, params notes.CreateNoteParams) (*notes.Note, error)
	FindAllByUser(ctx context.Context, ownerID int64, params notes.ListParams) (*notes.ListResult, error)
	AllTagsByUser(ctx context.Context, ownerID int64) ([]string, error)
	Update(ctx context.Context, id int64, params notes.UpdateNoteParams) (*notes.Note, error)
	Delete(ctx context.Context, id int64) error
}

// Authorizer resolves a path id to a note the requester owns.
type Authorizer interface {
	Authorize(ctx context.Context, rawID string, requesterID int64) (*notes.Note, error)
}

// NotesHandler serves /api/notes.
type NotesHandler struct {
	notes NoteStore
	guard Authorizer
}

// NewNotesHandler creates a NotesHandler.
func NewNotesHandler(store NoteStore, guard Authorizer) *NotesHandler {
	return &NotesHandler{notes: store, guard: guard}
}

// RequireOwnership loads the note named by the {id} path value and attaches it
// to the context. Requests for missing notes get 404 and notes owned by
// someone else get 403.
func (h *NotesHandler) RequireOwnership(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		note, err := h.guard.Authorize(r.Context(), r.PathValue("id"), auth.UserID(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(notes.WithNote(r.Context(), note)))
	})
}

// Create handles POST /api/notes.
func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	params, err := parseCreateNote(fields)
	if err != nil {
		writeError(w, r, err)
		return
	}

	note, err := h.notes.Create(r.Context(), auth.UserID(r.Context()), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Note created successfully",
		"note":    note,
	})
}

// List handles GET /api/notes. Unparseable paging values fall back to the
// defaults.
func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.notes.FindAllByUser(r.Context(), auth.UserID(r.Context()), notes.ListParams{
		Search: q.Get("search"),
		Tag:    q.Get("tag"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Tags handles GET /api/notes/tags.
func (h *NotesHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.notes.AllTagsByUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// Get handles GET /api/notes/{id}.
func (h *NotesHandler) Get(w http.ResponseWriter, r *http.Request) {
	note, err := authorizedNote(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"note": note})
}

// Update handles PUT /api/notes/{id}.
func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	note, err := authorizedNote(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fields, err := decodeFields(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	params, err := parseUpdateNote(fields)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.notes.Update(r.Context(), note.ID, params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Note updated successfully",
		"note":    updated,
	})
}

// Delete handles DELETE /api/notes/{id}.
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	note, err := authorizedNote(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.notes.Delete(r.Context(), note.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

// authorizedNote returns the note RequireOwnership attached. A route wired
// without the guard fails closed.
func authorizedNote(r *http.Request) (*notes.Note, error) {
	note := notes.FromContext(r.Context())
	if note == nil {
		return nil, errs.New(errs.Internal, msgInternal)
	}
	return note, nil
}
