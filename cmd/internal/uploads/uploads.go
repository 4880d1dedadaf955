// Package uploads stores identity documents submitted with alumni registrations.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxBytes is the largest accepted upload (16 MiB).
const DefaultMaxBytes int64 = 16 << 20

var (
	ErrNoFile          = errors.New("uploads: no file")
	ErrUnsupportedFile = errors.New("uploads: unsupported file type")
	ErrTooLarge        = errors.New("uploads: file too large")
)

var allowedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".pdf":  true,
}

// AllowedExtensions lists accepted extensions without the dot.
func AllowedExtensions() []string {
	return []string{"png", "jpg", "jpeg", "gif", "pdf"}
}

// Upload is a file received from a form.
type Upload struct {
	Filename string
	Body     io.Reader
}

// File describes a stored upload.
type File struct {
	OriginalName string
	SavedName    string
	Path         string // absolute
	Size         int64
}

// Saver writes uploads into a single directory under collision-free names.
type Saver struct {
	dir      string
	maxBytes int64

	now    func() time.Time
	suffix func() string
}

// Option configures a Saver.
type Option func(*Saver)

// WithClock overrides the timestamp used in saved names.
func WithClock(now func() time.Time) Option {
	return func(s *Saver) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSuffix overrides the random 8-hex suffix used in saved names.
func WithSuffix(fn func() string) Option {
	return func(s *Saver) {
		if fn != nil {
			s.suffix = fn
		}
	}
}

// NewSaver creates dir if needed. maxBytes <= 0 means DefaultMaxBytes.
func NewSaver(dir string, maxBytes int64, opts ...Option) (*Saver, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("uploads: empty directory")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("uploads: resolve %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("uploads: create %q: %w", abs, err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	s := &Saver{
		dir:      abs,
		maxBytes: maxBytes,
		now:      time.Now,
		suffix:   func() string { return uuid.NewString()[:8] },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Dir returns the absolute upload directory.
func (s *Saver) Dir() string { return s.dir }

// MaxBytes returns the size limit.
func (s *Saver) MaxBytes() int64 { return s.maxBytes }

// Allowed reports whether filename has an accepted extension.
func Allowed(filename string) bool {
	return allowedExt[strings.ToLower(filepath.Ext(filename))]
}

// Save stores up as {prefix}_{name}_{YYYYmmdd_HHMMSS}_{8hex}.{ext}.
// prefix is the registering role, name the registrant's display name.
func (s *Saver) Save(prefix, name string, up Upload) (File, error) {
	if up.Body == nil || strings.TrimSpace(up.Filename) == "" {
		return File{}, ErrNoFile
	}
	if !Allowed(up.Filename) {
		return File{}, ErrUnsupportedFile
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(up.Filename), "."))
	base := SecureName(strings.ReplaceAll(name, " ", "_"))
	if base == "" {
		base = "user"
	}
	pfx := SecureName(prefix)
	if pfx == "" {
		pfx = "upload"
	}

	saved := fmt.Sprintf("%s_%s_%s_%s.%s",
		pfx, base, s.now().Format("20060102_150405"), s.suffix(), ext)
	path := filepath.Join(s.dir, saved)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return File{}, fmt.Errorf("uploads: create: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(up.Body, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		_ = os.Remove(path)
		return File{}, fmt.Errorf("uploads: write: %w", err)
	case closeErr != nil:
		_ = os.Remove(path)
		return File{}, fmt.Errorf("uploads: close: %w", closeErr)
	case n > s.maxBytes:
		_ = os.Remove(path)
		return File{}, ErrTooLarge
	}

	return File{
		OriginalName: up.Filename,
		SavedName:    saved,
		Path:         path,
		Size:         n,
	}, nil
}

// Remove deletes a stored upload. Paths outside the upload directory are refused.
func (s *Saver) Remove(path string) error {
	rel, err := filepath.Rel(s.dir, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("uploads: refusing to remove %q", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("uploads: remove: %w", err)
	}
	return nil
}

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureName reduces a user supplied file name to a safe ASCII base name.
// Path separators become underscores, other unsafe characters are dropped, and
// leading or trailing dots and underscores are trimmed.
func SecureName(s string) string {
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return ' '
		case r > unicode.MaxASCII:
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), "_")
	s = unsafeNameRe.ReplaceAllString(s, "")
	return strings.Trim(s, "._")
}
