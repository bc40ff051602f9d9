// Package frontier implements the crawl's FIFO work queue and its visited
// registry: the two structures whose dequeue-time interaction is the crawl's
// single most important correctness guarantee (a URL is scanned at most
// once, even under concurrent workers).
package frontier

import (
	"errors"
	"fmt"
	"os"
	"sync"

	bloom "github.com/bits-and-blooms/bloom/v3"
	"github.com/edsrzf/mmap-go"
)

// Registry is the crawl's visited set. A disk-backed bloom filter answers
// "definitely not visited" in constant memory regardless of crawl size; any
// URL the bloom filter can't rule out is checked against an in-memory exact
// set, which is the only structure allowed to say yes. The bloom filter can
// never produce a false negative, so it is safe to trust its "no" answer
// without consulting the exact set at all — that is the entire point of
// keeping it in front.
type Registry struct {
	mu        sync.Mutex
	bloom     *bloom.BloomFilter
	exact     map[string]struct{}
	file      *os.File
	mmap      mmap.MMap
	tmpPath   string
	count     uint64
	syncEvery uint64
	lastErr   error
}

// NewRegistry creates a visited registry sized for roughly 100,000 URLs at a
// 0.1% bloom false-positive rate — the false-positive rate only affects how
// often the exact set has to be consulted, never correctness.
func NewRegistry() (*Registry, error) {
	filter := bloom.NewWithEstimates(100000, 0.001)

	tmpFile, err := os.CreateTemp(os.TempDir(), "webscan-visited-*.bloom")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	filterSize := filter.Cap()
	if err := tmpFile.Truncate(int64(filterSize)); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("truncate temp file: %w", err)
	}

	mapped, err := mmap.MapRegion(tmpFile, int(filterSize), mmap.RDWR, 0, 0)
	if err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("mmap temp file: %w", err)
	}

	data, err := filter.MarshalBinary()
	if err != nil {
		_ = mapped.Unmap()
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("marshal bloom filter: %w", err)
	}
	if len(data) > len(mapped) {
		_ = mapped.Unmap()
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("filter data (%d) exceeds mmap size (%d)", len(data), len(mapped))
	}
	copy(mapped, data)

	return &Registry{
		bloom:     filter,
		exact:     make(map[string]struct{}),
		file:      tmpFile,
		mmap:      mapped,
		tmpPath:   tmpPath,
		syncEvery: 1000,
	}, nil
}

// IsVisited reports whether url is already in the visited set. It is used
// only as a courtesy filter before enqueueing (I2) — the authoritative,
// race-free check is Claim, called at dequeue time.
func (r *Registry) IsVisited(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isVisitedLocked(url)
}

func (r *Registry) isVisitedLocked(url string) bool {
	if !r.bloom.TestString(url) {
		return false
	}
	_, exists := r.exact[url]
	return exists
}

// Claim is the sole mutating entry point into the registry and the only
// place a URL is ever marked visited (I1): it atomically tests-and-sets.
// Claim returns true exactly once per distinct URL, no matter how many
// goroutines call it concurrently for the same URL.
func (r *Registry) Claim(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isVisitedLocked(url) {
		return false
	}

	r.bloom.AddString(url)
	r.exact[url] = struct{}{}
	r.count++
	if r.count >= r.syncEvery {
		if err := r.syncLocked(); err != nil {
			r.lastErr = err
		}
	}
	return true
}

// Len returns the number of URLs claimed so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.exact)
}

func (r *Registry) syncLocked() error {
	data, err := r.bloom.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal bloom filter: %w", err)
	}
	if len(data) <= len(r.mmap) {
		copy(r.mmap, data)
	}
	if err := r.mmap.Flush(); err != nil {
		return fmt.Errorf("flush mmap: %w", err)
	}
	r.count = 0
	return nil
}

// LastError returns the last error encountered during a periodic disk sync,
// if any. Sync failures never affect correctness (the exact set stays in
// memory regardless) so they are surfaced for diagnostics, not fatal.
func (r *Registry) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Close flushes the bloom filter to disk and releases the mmap'd temp file.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if r.lastErr != nil {
		errs = append(errs, r.lastErr)
	}
	if r.mmap != nil {
		if r.count > 0 {
			if err := r.syncLocked(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := r.mmap.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("unmap: %w", err))
		}
		r.mmap = nil
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close file: %w", err))
		}
		r.file = nil
	}
	if r.tmpPath != "" {
		if err := os.Remove(r.tmpPath); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove temp file: %w", err))
		}
		r.tmpPath = ""
	}

	if len(errs) > 0 {
		return fmt.Errorf("close registry: %w", errors.Join(errs...))
	}
	return nil
}
