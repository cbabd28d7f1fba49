package cache

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Disk stores tiles as gzip-compressed JSON files in a directory.
// Entries older than the TTL are refreshed, and the oldest files are
// pruned when the entry cap is exceeded. A corrupt file (bad gzip or
// invalid JSON) counts as a miss and is removed.
type Disk struct {
	dir        string
	ttl        time.Duration
	maxEntries int
	logger     *slog.Logger
}

// NewDisk creates a disk cache rooted at dir.
func NewDisk(dir string, ttl time.Duration, maxEntries int, logger *slog.Logger) (*Disk, error) {
	if dir == "" {
		return nil, fmt.Errorf("disk cache directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Disk{
		dir:        dir,
		ttl:        ttl,
		maxEntries: maxEntries,
		logger:     logger,
	}, nil
}

// path returns the file path for a cache key.
func (d *Disk) path(key string) string {
	return filepath.Join(d.dir, key+".json.gz")
}

// Get retrieves a value, treating expiry and corruption as misses.
func (d *Disk) Get(_ context.Context, key string) ([]byte, bool) {
	path := d.path(key)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if d.ttl > 0 && time.Since(info.ModTime()) > d.ttl {
		return nil, false
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		d.discardCorrupt(path, "not gzipped", err)
		return nil, false
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		d.discardCorrupt(path, "gzip read failed", err)
		return nil, false
	}
	if !json.Valid(data) {
		d.discardCorrupt(path, "invalid json", nil)
		return nil, false
	}

	return data, true
}

// Set stores a value, writing to a temporary file first so readers
// never observe a partial entry.
func (d *Disk) Set(_ context.Context, key string, value []byte) {
	tmp, err := os.CreateTemp(d.dir, key+".*.tmp")
	if err != nil {
		d.logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	tmpName := tmp.Name()

	gz := gzip.NewWriter(tmp)
	_, werr := gz.Write(value)
	if cerr := gz.Close(); werr == nil {
		werr = cerr
	}
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		d.logger.Warn("cache write failed", "key", key, "error", werr)
		os.Remove(tmpName)
		return
	}

	if err := os.Rename(tmpName, d.path(key)); err != nil {
		d.logger.Warn("cache rename failed", "key", key, "error", err)
		os.Remove(tmpName)
		return
	}

	d.prune()
}

// Len returns the number of cached files.
func (d *Disk) Len() int {
	return len(d.entries())
}

// Close is a no-op for the disk backend.
func (d *Disk) Close() error {
	return nil
}

// discardCorrupt removes a damaged cache file so it is refreshed on the
// next request.
func (d *Disk) discardCorrupt(path, reason string, err error) {
	d.logger.Warn("discarding corrupt cache entry", "path", path, "reason", reason, "error", err)
	if rerr := os.Remove(path); rerr != nil {
		d.logger.Warn("failed to remove corrupt cache entry", "path", path, "error", rerr)
	}
}

// entries lists cache files sorted oldest first.
func (d *Disk) entries() []os.DirEntry {
	all, err := os.ReadDir(d.dir)
	if err != nil {
		return nil
	}
	files := all[:0]
	for _, e := range all {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json.gz") {
			files = append(files, e)
		}
	}
	sort.Slice(files, func(i, j int) bool {
		fi, ierr := files[i].Info()
		fj, jerr := files[j].Info()
		if ierr != nil || jerr != nil {
			return files[i].Name() < files[j].Name()
		}
		return fi.ModTime().Before(fj.ModTime())
	})
	return files
}

// prune removes the oldest entries once the entry cap is exceeded.
func (d *Disk) prune() {
	files := d.entries()
	for len(files) > d.maxEntries {
		victim := files[0]
		files = files[1:]
		if err := os.Remove(filepath.Join(d.dir, victim.Name())); err != nil {
			d.logger.Warn("cache prune failed", "file", victim.Name(), "error", err)
		}
	}
}
