// Package storage keeps uploaded files in per-bucket directories and
// serves them through short-lived signed URLs.
package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Bucket names.
const (
	BucketMoodboards  = "moodboards"
	BucketBrandAssets = "brand-assets"
)

// MaxObjectSize is the largest accepted upload.
const MaxObjectSize = 10 << 20

var buckets = map[string]bool{BucketMoodboards: true, BucketBrandAssets: true}

var (
	ErrInvalidBucket    = errors.New("storage: unknown bucket")
	ErrInvalidPath      = errors.New("storage: invalid object path")
	ErrInvalidSignature = errors.New("storage: invalid or expired signature")
	ErrTooLarge         = errors.New("storage: object too large")
	ErrUnsupportedType  = errors.New("storage: unsupported content type")
)

var allowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// Store is a local file store.
type Store struct {
	root    string
	secret  []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// New creates the bucket directories under root.
func New(root, secret, baseURL string, ttl time.Duration) (*Store, error) {
	if secret == "" {
		return nil, errors.New("storage: signing secret required")
	}
	for b := range buckets {
		if err := os.MkdirAll(filepath.Join(root, b), 0o755); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", b, err)
		}
	}
	return &Store{
		root:    root,
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// ValidBucket reports whether name is a known bucket.
func ValidBucket(name string) bool {
	return buckets[name]
}

// ObjectName builds the stored name of an upload: <workspace>/<uuid>-<slug><ext>.
func ObjectName(workspaceID int64, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	base := slug.Make(strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName)))
	if base == "" {
		base = "fichier"
	}
	return fmt.Sprintf("%d/%s-%s%s", workspaceID, uuid.NewString(), base, ext)
}

// Saved describes a stored object.
type Saved struct {
	Path        string
	ContentType string
	Size        int64
}

// Save writes r into bucket under a fresh object name.
func (s *Store) Save(bucket string, workspaceID int64, originalName string, r io.Reader) (*Saved, error) {
	if !ValidBucket(bucket) {
		return nil, ErrInvalidBucket
	}

	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	contentType := http.DetectContentType(head)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if !allowedTypes[contentType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	name := ObjectName(workspaceID, originalName)
	full, err := s.fullPath(bucket, name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return nil, fmt.Errorf("create object: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(br, MaxObjectSize+1))
	closeErr := f.Close()
	if err == nil && n > MaxObjectSize {
		err = ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(full)
		return nil, err
	}

	return &Saved{Path: name, ContentType: contentType, Size: n}, nil
}

// Open opens a stored object.
func (s *Store) Open(bucket, name string) (*os.File, error) {
	full, err := s.fullPath(bucket, name)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Delete removes a stored object. Missing objects are not an error.
func (s *Store) Delete(bucket, name string) error {
	full, err := s.fullPath(bucket, name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) fullPath(bucket, name string) (string, error) {
	if !ValidBucket(bucket) {
		return "", ErrInvalidBucket
	}
	clean := path.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(clean)), nil
}

type objectClaims struct {
	Bucket string `json:"b"`
	Path   string `json:"p"`
	jwt.RegisteredClaims
}

// SignedURL returns a URL serving the object until the TTL elapses.
func (s *Store) SignedURL(bucket, name string) (string, error) {
	if _, err := s.fullPath(bucket, name); err != nil {
		return "", err
	}
	claims := objectClaims{
		Bucket: bucket,
		Path:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign object url: %w", err)
	}
	return fmt.Sprintf("%s/v1/files/%s/%s?token=%s", s.baseURL, bucket, name, url.QueryEscape(token)), nil
}

// Verify checks that token grants access to bucket/name.
func (s *Store) Verify(bucket, name, token string) error {
	var claims objectClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if claims.Bucket != bucket || claims.Path != name {
		return ErrInvalidSignature
	}
	return nil
}
