// Package export writes owner-scoped JSON snapshots of notes to object storage.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kuitang/notes-api/internal/clock"
	"github.com/kuitang/notes-api/internal/errs"
	"github.com/kuitang/notes-api/internal/notes"
	"github.com/kuitang/notes-api/internal/obs"
	"github.com/kuitang/notes-api/internal/s3client"
)

const (
	ErrNotFound      = "Export not found"
	ErrNotConfigured = "Exports are not configured"
)

// ObjectStore is the subset of s3client.Client used for snapshots.
type ObjectStore interface {
	PutJSON(ctx context.Context, key string, v any) error
	GetJSON(ctx context.Context, key string, v any) error
}

// NoteLister returns every note an owner has.
type NoteLister interface {
	ListAllByUser(ctx context.Context, ownerID int64) ([]notes.Note, error)
}

// Snapshot is the stored document.
type Snapshot struct {
	UserID     int64        `json:"user_id"`
	ExportedAt time.Time    `json:"exported_at"`
	Notes      []notes.Note `json:"notes"`
}

// Receipt describes a snapshot that was just written.
type Receipt struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	NoteCount int       `json:"note_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Service creates and fetches snapshots. A Service with a nil store is
// disabled and answers every call with Unavailable.
type Service struct {
	store ObjectStore
	notes NoteLister
	clock clock.Clock
	newID func() string
}

// NewService returns a Service. Pass a nil store to disable exports.
func NewService(store ObjectStore, lister NoteLister, c clock.Clock) *Service {
	if c == nil {
		c = clock.Real{}
	}
	return &Service{
		store: store,
		notes: lister,
		clock: c,
		newID: uuid.NewString,
	}
}

// Enabled reports whether a bucket is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.store != nil
}

// Create snapshots every note ownerID has.
func (s *Service) Create(ctx context.Context, ownerID int64) (*Receipt, error) {
	if !s.Enabled() {
		return nil, errs.New(errs.Unavailable, ErrNotConfigured)
	}

	all, err := s.notes.ListAllByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	snap := Snapshot{
		UserID:     ownerID,
		ExportedAt: s.clock.Now().UTC(),
		Notes:      all,
	}
	id := s.newID()
	key := Key(ownerID, id)
	if err := s.store.PutJSON(ctx, key, snap); err != nil {
		return nil, fmt.Errorf("failed to store export: %w", err)
	}

	obs.From(ctx).Info("export_created", "key", key, "note_count", len(all))
	return &Receipt{
		ID:        id,
		Key:       key,
		NoteCount: len(all),
		CreatedAt: snap.ExportedAt,
	}, nil
}

// Get loads one of ownerID's snapshots. The key is derived from ownerID, so
// another owner's id can never be reached.
func (s *Service) Get(ctx context.Context, ownerID int64, id string) (*Snapshot, error) {
	if !s.Enabled() {
		return nil, errs.New(errs.Unavailable, ErrNotConfigured)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, errs.New(errs.NotFound, ErrNotFound)
	}

	var snap Snapshot
	if err := s.store.GetJSON(ctx, Key(ownerID, parsed.String()), &snap); err != nil {
		if errors.Is(err, s3client.ErrObjectNotFound) {
			return nil, errs.New(errs.NotFound, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load export: %w", err)
	}
	return &snap, nil
}

// Key is the object key for one snapshot.
func Key(ownerID int64, id string) string {
	return fmt.Sprintf("exports/%d/%s.json", ownerID, id)
}
