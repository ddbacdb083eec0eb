package notes

import (
	"context"
	"strconv"
	"testing"

	"github.com/kuitang/notes-api/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGuard_Authorize(t *testing.T) {
	t.Parallel()
	repo, store, _ := newTestRepository(t)
	defer store.Close()
	owner := createOwner(t, store)
	stranger := createOwner(t, store)

	note := mustCreate(t, repo, owner, CreateNoteParams{Title: "mine", Content: "c"})
	guard := NewGuard(repo)
	ctx := context.Background()

	t.Run("owner gets the note", func(t *testing.T) {
		got, err := guard.Authorize(ctx, strconv.FormatInt(note.ID, 10), owner)
		require.NoError(t, err)
		assert.Equal(t, note.ID, got.ID)
		assert.Equal(t, "mine", got.Title)
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		_, err := guard.Authorize(ctx, strconv.FormatInt(note.ID, 10), stranger)
		require.Error(t, err)
		assert.Equal(t, errs.PermissionDenied, errs.CodeOf(err))
		assert.Equal(t, ErrNotOwner, errs.MessageOf(err))
	})

	t.Run("missing note is not found for anyone", func(t *testing.T) {
		_, err := guard.Authorize(ctx, "987654", stranger)
		require.Error(t, err)
		assert.Equal(t, errs.NotFound, errs.CodeOf(err))
		assert.Equal(t, ErrNoteNotFound, errs.MessageOf(err))
	})

	for _, raw := range []string{"", "abc", "1.5", "0", "-3", "99999999999999999999999"} {
		t.Run("malformed id "+strconv.Quote(raw), func(t *testing.T) {
			_, err := guard.Authorize(ctx, raw, owner)
			require.Error(t, err)
			assert.Equal(t, errs.NotFound, errs.CodeOf(err))
		})
	}
}

// Property: existence is checked before ownership, so a missing note is
// always NotFound regardless of who asks.
func TestGuard_NotFoundBeforeForbidden_Properties(t *testing.T) {
	t.Parallel()
	guard := NewGuard(finderFunc(func(ctx context.Context, id int64) (*Note, error) {
		return nil, errs.New(errs.NotFound, ErrNoteNotFound)
	}))
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.Int64Range(1, 1<<40).Draw(t, "id")
		requester := rapid.Int64Range(1, 1<<40).Draw(t, "requester")
		_, err := guard.Authorize(context.Background(), strconv.FormatInt(id, 10), requester)
		if errs.CodeOf(err) != errs.NotFound {
			t.Fatalf("expected NotFound, got %v", err)
		}
	})
}

func TestNoteContext_RoundTrip(t *testing.T) {
	t.Parallel()
	assert.Nil(t, FromContext(context.Background()))

	note := &Note{ID: 7, UserID: 3}
	assert.Same(t, note, FromContext(WithNote(context.Background(), note)))
}

type finderFunc func(ctx context.Context, id int64) (*Note, error)

func (f finderFunc) FindByID(ctx context.Context, id int64) (*Note, error) { return f(ctx, id) }
