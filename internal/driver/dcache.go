package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"oxbow/internal/diag"
)

// Fingerprint identifies a crate description together with the options
// that change what checking it reports.
type Fingerprint [16]byte

func (f Fingerprint) IsZero() bool { return f == Fingerprint{} }

func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

func (f Fingerprint) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Fingerprint) UnmarshalText(b []byte) error {
	if hex.DecodedLen(len(b)) != len(f) {
		return fmt.Errorf("fingerprint: want %d hex digits, got %d", 2*len(f), len(b))
	}
	_, err := hex.Decode(f[:], b)
	return err
}

func fingerprintCrate(name string, content []byte, opts Options) Fingerprint {
	h := xxh3.New()
	_, _ = fmt.Fprintf(h, "oxbow-export-%d\x00%s\x00nolints=%t\x00", exportSchema, name, opts.NoLints)
	_, _ = h.Write(content)
	return h.Sum128().Bytes()
}

// DiskCache keeps crate exports keyed by fingerprint. Safe for concurrent
// use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenDiskCache opens the cache under dir, or under the user cache
// directory for app when dir is empty.
func OpenDiskCache(dir, app string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key Fingerprint) string {
	return filepath.Join(c.dir, "crates", key.String()+".mp")
}

// Put writes the export atomically.
func (c *DiskCache) Put(key Fingerprint, exp *Export) (err error) {
	if c == nil {
		return nil
	}
	data, err := exp.Marshal()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get loads the export stored under key. A missing entry is not an error.
func (c *DiskCache) Get(key Fingerprint) (*Export, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	exp, err := UnmarshalExport(data)
	if err != nil {
		return nil, false, err
	}
	if exp.Fingerprint != key {
		return nil, false, nil
	}
	return exp, true, nil
}

// DropAll removes every cached export.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// fromCache fills res from the cache. Only crates loaded from a description
// have a fingerprint.
func (s *Session) fromCache(u *unit, res *CrateResult) bool {
	if s.opts.Cache == nil || u.fingerprint.IsZero() {
		return false
	}
	exp, ok, err := s.opts.Cache.Get(u.fingerprint)
	if err != nil || !ok {
		s.stats.CacheMiss.Add(1)
		return false
	}
	s.stats.CacheHits.Add(1)
	res.Cached = true
	res.Export = exp
	exp.restore(res.Bag, u.crate.File)
	return true
}

func (s *Session) toCache(u *unit, res *CrateResult) {
	if s.opts.Cache == nil || u.fingerprint.IsZero() || res.Err != nil {
		return
	}
	exp, err := BuildExport(res)
	if err != nil {
		return
	}
	exp.Fingerprint = u.fingerprint
	if err := s.opts.Cache.Put(u.fingerprint, exp); err != nil {
		res.Bag.Add(diag.Diagnostic{
			Severity: diag.SevWarning,
			Code:     diag.IOLoadFileError,
			Message:  fmt.Sprintf("cannot write export cache: %v", err),
		})
	}
}
