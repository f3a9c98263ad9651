package cache

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
)

const entryExt = ".mp"

// FileCache implements a file-based cache for CLI usage.
// Each entry is a MessagePack file holding the data and its expiry.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-based cache in the given directory.
// The directory will be created if it doesn't exist.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, sverrors.Wrap(sverrors.ErrCodeInternal, err, "create cache dir")
	}
	return &FileCache{dir: dir}, nil
}

type fileEntry struct {
	Data      []byte    `msgpack:"data"`
	ExpiresAt time.Time `msgpack:"expires_at"`
}

// Dir is the directory holding the entries.
func (c *FileCache) Dir() string { return c.dir }

// Get retrieves a value from the cache. Unreadable and expired entries
// are removed and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores a value in the cache. The file is written under a temporary
// name and renamed, so concurrent readers never see half an entry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := fileEntry{Data: data}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}
	encoded, err := msgpack.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes a value from the cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for file cache.
func (c *FileCache) Close() error { return nil }

// Stats describes the entries on disk.
type Stats struct {
	Entries int   `json:"entries"`
	Bytes   int64 `json:"bytes"`
}

// Stats counts the entries and their total size.
func (c *FileCache) Stats() (Stats, error) {
	var s Stats
	err := c.walk(func(path string, info fs.FileInfo) error {
		s.Entries++
		s.Bytes += info.Size()
		return nil
	})
	return s, err
}

// Clear removes every entry and returns how many there were.
func (c *FileCache) Clear() (int, error) {
	n := 0
	err := c.walk(func(path string, _ fs.FileInfo) error {
		n++
		return os.Remove(path)
	})
	return n, err
}

func (c *FileCache) walk(fn func(path string, info fs.FileInfo) error) error {
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, entryExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return fn(path, info)
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// path converts a cache key to a file path.
// The first two hash characters name a subdirectory, to keep directories small.
func (c *FileCache) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:]+entryExt)
}

var _ Cache = (*FileCache)(nil)
