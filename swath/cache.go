package swath

import (
	"github.com/hauke96/sigolo/v2"
	"golang.org/x/sync/singleflight"
	"math"
	"sync"
)

const DefaultCacheSize = 16

// CachingOpener is a simple LRU (least recently used) cache for opened swath files. It has an internal locking mechanism
// and can be used in concurrent goroutines. Every swath returned by Open must be closed by the caller. A cached swath
// is closed once it got evicted or the cache got cleared and all its handles are closed. Concurrent requests for the
// same uncached file open it only once.
type CachingOpener struct {
	opener          Opener
	cache           map[string]*cacheEntry // Path to opened swath
	lastAccessTimes map[string]uint64      // Path to value of the access counter at the last access
	accessCounter   uint64
	mutex           *sync.Mutex
	maxSize         int // Maximum number of swaths this cache should hold
	inflight        singleflight.Group
}

type cacheEntry struct {
	path    string
	swath   Swath
	refs    int // Number of handles returned by Open that are not closed yet
	evicted bool
}

func NewCachingOpener(opener Opener, maxSize int) *CachingOpener {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}

	return &CachingOpener{
		opener:          opener,
		cache:           map[string]*cacheEntry{},
		lastAccessTimes: map[string]uint64{},
		mutex:           &sync.Mutex{},
		maxSize:         maxSize,
	}
}

func (c *CachingOpener) Open(path string) (Swath, error) {
	for {
		c.mutex.Lock()
		entry, ok := c.cache[path]
		if ok {
			handle := c.acquireUnsafe(entry)
			c.mutex.Unlock()
			return handle, nil
		}
		c.mutex.Unlock()

		// When the new entry gets evicted before this goroutine acquires it, the next iteration opens the file again.
		_, err, _ := c.inflight.Do(path, func() (any, error) {
			opened, err := c.opener.Open(path)
			if err != nil {
				return nil, err
			}

			c.mutex.Lock()
			defer c.mutex.Unlock()

			if _, ok := c.cache[path]; ok {
				// Another goroutine finished opening this file in the meantime.
				_ = opened.Close()
				return nil, nil
			}

			c.insertUnsafe(path, opened)
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
	}
}

// acquireUnsafe returns a new handle for the entry and marks it as most recently used. This function does NOT use
// locking and is meant for internal use only!
func (c *CachingOpener) acquireUnsafe(entry *cacheEntry) *cachedSwath {
	entry.refs++
	c.touchUnsafe(entry.path)
	return &cachedSwath{Swath: entry.swath, opener: c, entry: entry}
}

// releaseUnsafe closes the swath of an evicted entry when its last handle is released. This function does NOT use
// locking and is meant for internal use only!
func (c *CachingOpener) releaseUnsafe(entry *cacheEntry) {
	entry.refs--
	if entry.evicted && entry.refs == 0 {
		closeEntry(entry)
	}
}

// touchUnsafe marks the path as most recently used. This function does NOT use locking and is meant for internal use
// only!
func (c *CachingOpener) touchUnsafe(path string) {
	c.accessCounter++
	if _, ok := c.cache[path]; ok {
		c.lastAccessTimes[path] = c.accessCounter
	}
}

func (c *CachingOpener) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.cache)
}

// Clear removes all cached swaths. Swaths that are still in use are closed when their last handle is closed.
func (c *CachingOpener) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for path := range c.cache {
		c.evictUnsafe(path)
	}
}

// insertUnsafe adds the swath and evicts the entry that hasn't been used longest when the cache is full. This function
// does NOT use locking and is meant for internal use only!
func (c *CachingOpener) insertUnsafe(path string, s Swath) {
	if len(c.cache) >= c.maxSize {
		c.evictUnsafe(c.getMinEntry())
	}

	c.cache[path] = &cacheEntry{path: path, swath: s}
	c.touchUnsafe(path)
}

func (c *CachingOpener) evictUnsafe(path string) {
	entry, ok := c.cache[path]
	if !ok {
		return
	}

	delete(c.cache, path)
	delete(c.lastAccessTimes, path)
	entry.evicted = true

	if entry.refs > 0 {
		sigolo.Debugf("Evicted swath %s is still in use by %d handles", path, entry.refs)
		return
	}
	closeEntry(entry)
}

func closeEntry(entry *cacheEntry) {
	err := entry.swath.Close()
	if err != nil {
		sigolo.Warnf("Unable to close evicted swath %s: %+v", entry.path, err)
	}
}

// getMinEntry returns the path that hasn't been used longest. This function does NOT use locking and is meant for
// internal use only!
func (c *CachingOpener) getMinEntry() string {
	minAccess := uint64(math.MaxUint64)
	minPath := ""

	for path, access := range c.lastAccessTimes {
		if access < minAccess {
			minAccess = access
			minPath = path
		}
	}

	return minPath
}

// cachedSwath is a handle to a cached swath. Closing it releases the handle, closing it again does nothing.
type cachedSwath struct {
	Swath
	opener   *CachingOpener
	entry    *cacheEntry
	released bool
}

func (s *cachedSwath) Close() error {
	s.opener.mutex.Lock()
	defer s.opener.mutex.Unlock()

	if s.released {
		return nil
	}
	s.released = true
	s.opener.releaseUnsafe(s.entry)
	return nil
}
