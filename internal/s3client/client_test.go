package s3client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	UserID int64    `json:"user_id"`
	Titles []string `json:"titles"`
}

func TestClient_ObjectRoundtrip(t *testing.T) {
	c := TestClient(t, "exports")
	ctx := context.Background()

	require.NoError(t, c.PutObject(ctx, "exports/1/a.txt", []byte("hello"), "text/plain"))
	got, err := c.GetObject(ctx, "exports/1/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	require.NoError(t, c.DeleteObject(ctx, "exports/1/a.txt"))
	_, err = c.GetObject(ctx, "exports/1/a.txt")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestClient_JSONRoundtrip(t *testing.T) {
	c := TestClient(t, "exports")
	ctx := context.Background()

	in := snapshot{UserID: 7, Titles: []string{"a", "b"}}
	require.NoError(t, c.PutJSON(ctx, "exports/7/s.json", in))

	var out snapshot
	require.NoError(t, c.GetJSON(ctx, "exports/7/s.json", &out))
	assert.Equal(t, in, out)
	assert.Equal(t, "exports", c.BucketName())
}

func TestClient_GetJSONMissing(t *testing.T) {
	c := TestClient(t, "exports")
	var out snapshot
	err := c.GetJSON(context.Background(), "exports/nope.json", &out)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestClient_GetJSONMalformed(t *testing.T) {
	c := TestClient(t, "exports")
	ctx := context.Background()
	require.NoError(t, c.PutObject(ctx, "bad.json", []byte("{not json"), "application/json"))

	var out snapshot
	err := c.GetJSON(ctx, "bad.json", &out)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrObjectNotFound))
}
