package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageUploadDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage("http://cdn.local/media/")

	require.NoError(t, s.Upload(ctx, "events/1/cover/a.jpg", strings.NewReader("hello"), 5, "image/jpeg", true))
	assert.True(t, s.Exists("events/1/cover/a.jpg"))

	r, ok := s.Open("events/1/cover/a.jpg")
	require.True(t, ok)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(ctx, []string{"events/1/cover/a.jpg", "missing/key"}))
	assert.False(t, s.Exists("events/1/cover/a.jpg"))

	// deleting again is a no-op
	require.NoError(t, s.Delete(ctx, []string{"events/1/cover/a.jpg"}))
}

func TestMemoryStorageOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage("")

	require.NoError(t, s.Upload(ctx, "k", bytes.NewBufferString("one"), 3, "", false))
	err := s.Upload(ctx, "k", bytes.NewBufferString("two"), 3, "", false)
	require.ErrorIs(t, err, ErrExists)

	require.NoError(t, s.Upload(ctx, "k", bytes.NewBufferString("two"), 3, "", true))
	r, _ := s.Open("k")
	data, _ := io.ReadAll(r)
	assert.Equal(t, "two", string(data))
}

func TestMemoryStoragePublicURLAndKeys(t *testing.T) {
	s := NewMemoryStorage("http://cdn.local/media/")
	assert.Equal(t, "http://cdn.local/media/a/b.png", s.PublicURL("a/b.png"))

	ctx := context.Background()
	require.NoError(t, s.Upload(ctx, "b", strings.NewReader(""), 0, "", true))
	require.NoError(t, s.Upload(ctx, "a", strings.NewReader(""), 0, "", true))
	assert.Equal(t, []string{"a", "b"}, s.Keys())

	require.Error(t, s.Upload(ctx, " ", strings.NewReader(""), 0, "", true))
}

func TestPublicReadPolicy(t *testing.T) {
	policy := publicReadPolicy("media")
	assert.Contains(t, policy, `"arn:aws:s3:::media/*"`)
	assert.Contains(t, policy, `"s3:GetObject"`)
}
