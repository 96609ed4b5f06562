package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
)

// ErrNotFound is returned by a Store when the key has never been written
var ErrNotFound = errors.New("identity: key not found")

// Store is a browser-scoped persistent key-value store
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// ============================================================================
// Memory
// ============================================================================

// MemoryStore keeps values for the lifetime of the process
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

// ============================================================================
// Cookie
// ============================================================================

// CookieOptions controls the cookies written by CookieStore
type CookieOptions struct {
	MaxAge time.Duration
	Secure bool
	Path   string
}

// DefaultCookieOptions returns a one-year, site-wide, non-secure cookie
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{
		MaxAge: 365 * 24 * time.Hour,
		Path:   "/",
	}
}

// CookieStore persists values in the browser's cookie jar. It is bound to a
// single request; values written during the request are visible to later
// reads of the same request.
type CookieStore struct {
	c       *gin.Context
	opts    CookieOptions
	written map[string]string
}

// NewCookieStore binds a store to the current request
func NewCookieStore(c *gin.Context, opts CookieOptions) *CookieStore {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &CookieStore{c: c, opts: opts, written: make(map[string]string)}
}

func (s *CookieStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.written[key]; ok {
		return v, nil
	}
	v, err := s.c.Cookie(key)
	if errors.Is(err, http.ErrNoCookie) || v == "" {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read cookie %s: %w", key, err)
	}
	return v, nil
}

func (s *CookieStore) Set(_ context.Context, key, value string) error {
	if s.c.Writer.Written() {
		return fmt.Errorf("set cookie %s: response headers already sent", key)
	}
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(key, value, int(s.opts.MaxAge.Seconds()), s.opts.Path, "", s.opts.Secure, true)
	s.written[key] = value
	return nil
}

// ============================================================================
// File
// ============================================================================

// FileStore persists values as a JSON object in a single file. Writes go to
// a temp file that is renamed over the original.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path; the file is created on first Set
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath returns the per-user identity file location
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "rnpad", "identity.json"), nil
}

func (f *FileStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value

	data, err := sonic.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(f.path), err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	values := make(map[string]string)
	if err := sonic.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	// A JSON null decodes to a nil map
	if values == nil {
		values = make(map[string]string)
	}
	return values, nil
}
