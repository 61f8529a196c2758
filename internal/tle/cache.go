package tle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ErrCacheEmpty is returned by LoadLatest when no snapshot has been written.
var ErrCacheEmpty = errors.New("tle: cache is empty")

const (
	cachePrefix = "tle_"
	cacheSuffix = ".txt"
)

// Cache keeps timestamped snapshots of fetched catalogs on disk.
type Cache struct {
	dir      string
	maxFiles int
}

// NewCache creates a Cache that stores files in dir and keeps at most
// maxFiles snapshots (5 when maxFiles <= 0).
func NewCache(dir string, maxFiles int) *Cache {
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &Cache{dir: dir, maxFiles: maxFiles}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Write saves data as the snapshot taken at ts and prunes the oldest
// snapshots beyond maxFiles.
func (c *Cache) Write(data []byte, ts time.Time) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	path := filepath.Join(c.dir, cachePrefix+strconv.FormatInt(ts.Unix(), 10)+cacheSuffix)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	return c.prune()
}

// LoadLatest reads the newest snapshot and returns it with its timestamp.
func (c *Cache) LoadLatest() ([]byte, time.Time, error) {
	files, err := c.snapshots()
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(files) == 0 {
		return nil, time.Time{}, ErrCacheEmpty
	}

	latest := files[len(files)-1]
	data, err := os.ReadFile(filepath.Join(c.dir, latest.name))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading cache file: %w", err)
	}
	return data, latest.ts, nil
}

type snapshot struct {
	name string
	ts   time.Time
}

// snapshots lists cache files oldest first. Files not named by the cache are
// ignored.
func (c *Cache) snapshots() ([]snapshot, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}

	var files []snapshot
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, cachePrefix) || !strings.HasSuffix(name, cacheSuffix) {
			continue
		}
		unix, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, cachePrefix), cacheSuffix), 10, 64)
		if err != nil {
			continue
		}
		files = append(files, snapshot{name: name, ts: time.Unix(unix, 0).UTC()})
	}

	slices.SortFunc(files, func(a, b snapshot) int { return a.ts.Compare(b.ts) })
	return files, nil
}

func (c *Cache) prune() error {
	files, err := c.snapshots()
	if err != nil {
		return err
	}
	if len(files) <= c.maxFiles {
		return nil
	}

	for _, f := range files[:len(files)-c.maxFiles] {
		if err := os.Remove(filepath.Join(c.dir, f.name)); err != nil {
			return fmt.Errorf("pruning cache file %s: %w", f.name, err)
		}
	}
	return nil
}
