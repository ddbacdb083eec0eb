package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kuitang/notes-api/internal/clock"
	"github.com/kuitang/notes-api/internal/db"
	"github.com/kuitang/notes-api/internal/errs"
)

// ErrNoteNotFound is the message returned for a missing note.
const ErrNoteNotFound = "Note not found"

const noteColumns = `id, user_id, title, content, tags, created_at, updated_at`

// Repository handles owner-scoped note storage.
type Repository struct {
	db    db.DBTX
	clock clock.Clock
}

// NewRepository creates a note repository over q. A nil clock uses the
// system time.
func NewRepository(q db.DBTX, c clock.Clock) *Repository {
	if c == nil {
		c = clock.Real{}
	}
	return &Repository{db: q, clock: c}
}

// Create inserts a note owned by ownerID and returns it as stored.
func (r *Repository) Create(ctx context.Context, ownerID int64, params CreateNoteParams) (*Note, error) {
	if ownerID <= 0 {
		return nil, fmt.Errorf("owner ID is required")
	}

	tags, err := encodeTags(params.Tags)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now().UTC().UnixMilli()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (user_id, title, content, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		ownerID, params.Title, params.Content, tags, now, now,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, errs.Wrap(errs.NotFound, "User not found", err)
		}
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new note ID: %w", err)
	}

	return r.FindByID(ctx, id)
}

// FindByID returns the note with the given ID regardless of owner.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Note, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrap(errs.NotFound, ErrNoteNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}
	return note, nil
}

// FindAllByUser returns one page of ownerID's notes, most recently updated
// first, filtered by the optional search text and tag.
func (r *Repository) FindAllByUser(ctx context.Context, ownerID int64, params ListParams) (*ListResult, error) {
	params = params.Normalize()

	where := []string{"user_id = ?"}
	args := []any{ownerID}

	if params.Search != "" {
		pattern := "%" + escapeLike(params.Search) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	if params.Tag != "" {
		first, later, err := tagElementPatterns(params.Tag)
		if err != nil {
			return nil, err
		}
		// The quoted-element substring test is necessary but not sufficient:
		// a preceding tag ending in a comma can fake the separator. has_tag
		// settles membership on the rows that pass.
		where = append(where, `(instr(tags, ?) > 0 OR instr(tags, ?) > 0) AND `+db.HasTagFunc+`(tags, ?)`)
		args = append(args, first, later, params.Tag)
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	pageArgs := append(append([]any{}, args...), params.Limit, params.Offset())
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE `+whereClause+` ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes, err := scanNotes(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	return &ListResult{
		Notes: notes,
		Pagination: Pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      total,
			TotalPages: TotalPages(total, params.Limit),
		},
	}, nil
}

// ListAllByUser returns every note ownerID has, most recently updated first.
func (r *Repository) ListAllByUser(ctx context.Context, ownerID int64) ([]Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = ? ORDER BY updated_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes, err := scanNotes(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// Update applies the supplied fields to the note and bumps updated_at.
// With no fields supplied it returns the note untouched.
func (r *Repository) Update(ctx context.Context, id int64, params UpdateNoteParams) (*Note, error) {
	if params.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	var set []string
	var args []any

	if params.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *params.Title)
	}
	if params.Content != nil {
		set = append(set, "content = ?")
		args = append(args, *params.Content)
	}
	if params.Tags != nil {
		tags, err := encodeTags(*params.Tags)
		if err != nil {
			return nil, err
		}
		set = append(set, "tags = ?")
		args = append(args, tags)
	}

	// max() keeps updated_at monotonic if the wall clock steps backwards.
	set = append(set, "updated_at = max(updated_at, ?)")
	args = append(args, r.clock.Now().UTC().UnixMilli(), id)

	res, err := r.db.ExecContext(ctx, `UPDATE notes SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, errs.New(errs.NotFound, ErrNoteNotFound)
	}

	return r.FindByID(ctx, id)
}

// Delete removes the note. Deleting a note that does not exist is not an error.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

// AllTagsByUser returns the distinct tags across ownerID's notes, sorted.
func (r *Repository) AllTagsByUser(ctx context.Context, ownerID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tags FROM notes WHERE user_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var lists [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan tags: %w", err)
		}
		tags, err := decodeTags(raw)
		if err != nil {
			return nil, err
		}
		lists = append(lists, tags)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	return distinctSorted(lists), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var (
		n         Note
		rawTags   string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &rawTags, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	tags, err := decodeTags(rawTags)
	if err != nil {
		return nil, err
	}
	n.Tags = tags
	n.CreatedAt = time.UnixMilli(createdAt).UTC()
	n.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &n, nil
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	notes := make([]Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}
