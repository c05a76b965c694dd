package storage

import (
	"bytes"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), "storage-secret", "http://localhost:8080/", time.Hour)
	require.NoError(t, err)
	return s
}

func TestObjectName(t *testing.T) {
	name := ObjectName(12, "Mon Moodboard Été.PNG")
	assert.True(t, strings.HasPrefix(name, "12/"), name)
	assert.True(t, strings.HasSuffix(name, "-mon-moodboard-ete.png"), name)

	assert.True(t, strings.HasSuffix(ObjectName(3, ".png"), "-fichier.png"))
}

func TestSaveOpenDelete(t *testing.T) {
	s := newTestStore(t)

	saved, err := s.Save(BucketMoodboards, 7, "inspiration.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", saved.ContentType)
	assert.Equal(t, int64(len(pngHeader)), saved.Size)

	f, err := s.Open(BucketMoodboards, saved.Path)
	require.NoError(t, err)
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, pngHeader, got)

	require.NoError(t, s.Delete(BucketMoodboards, saved.Path))
	_, err = s.Open(BucketMoodboards, saved.Path)
	assert.Error(t, err)
	assert.NoError(t, s.Delete(BucketMoodboards, saved.Path))
}

func TestSave_Rejects(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save("secrets", 1, "a.png", bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, ErrInvalidBucket)

	_, err = s.Save(BucketBrandAssets, 1, "script.sh", strings.NewReader("#!/bin/sh\necho hi\n"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	big := io.MultiReader(bytes.NewReader(pngHeader), bytes.NewReader(make([]byte, MaxObjectSize)))
	_, err = s.Save(BucketBrandAssets, 1, "big.png", big)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestPathTraversal(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Open(BucketMoodboards, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = s.Open(BucketMoodboards, "")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestSignedURL(t *testing.T) {
	s := newTestStore(t)

	raw, err := s.SignedURL(BucketBrandAssets, "7/logo.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "http://localhost:8080/v1/files/brand-assets/7/logo.png?token="), raw)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	token := u.Query().Get("token")

	assert.NoError(t, s.Verify(BucketBrandAssets, "7/logo.png", token))
	assert.ErrorIs(t, s.Verify(BucketBrandAssets, "7/other.png", token), ErrInvalidSignature)
	assert.ErrorIs(t, s.Verify(BucketMoodboards, "7/logo.png", token), ErrInvalidSignature)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, s.Verify(BucketBrandAssets, "7/logo.png", token), ErrInvalidSignature)
}
