package web

import (
	"math"
	"sync"

	"trajgrid/trajectory"
)

// lruResultCache is a simple LRU (least recently used) cache for query results. It has an internal locking mechanism
// and can be used in concurrent goroutines. The recency of entries is measured by an access counter, which gets
// updated when an entry is read or written.
type lruResultCache struct {
	results          map[string]trajectory.IDSet // Normalized query string to result
	resultLastAccess map[string]uint64
	accessCounter    uint64
	resultCacheMutex *sync.Mutex
	maxSize          int // Maximum number of entries this cache should hold
}

func newLruResultCache(maxSize int) *lruResultCache {
	return &lruResultCache{
		results:          map[string]trajectory.IDSet{},
		resultLastAccess: map[string]uint64{},
		resultCacheMutex: &sync.Mutex{},
		maxSize:          maxSize,
	}
}

// get returns the cached result of the given query. The returned set must not be modified.
func (c *lruResultCache) get(queryString string) (trajectory.IDSet, bool) {
	c.resultCacheMutex.Lock()
	defer c.resultCacheMutex.Unlock()

	result, ok := c.results[queryString]
	if ok {
		c.touch(queryString)
	}
	return result, ok
}

// insert adds the result to the cache. If the cache is full, the entry that hasn't been used longest will be evicted.
func (c *lruResultCache) insert(queryString string, result trajectory.IDSet) {
	if c.maxSize <= 0 {
		return
	}

	c.resultCacheMutex.Lock()
	defer c.resultCacheMutex.Unlock()

	_, alreadyCached := c.results[queryString]
	if !alreadyCached && len(c.results) >= c.maxSize {
		longestUnusedQuery := c.getMinEntry()
		delete(c.results, longestUnusedQuery)
		delete(c.resultLastAccess, longestUnusedQuery)
	}

	c.results[queryString] = result
	c.touch(queryString)
}

// clear removes all entries. This is necessary after every modification of the index.
func (c *lruResultCache) clear() {
	c.resultCacheMutex.Lock()
	defer c.resultCacheMutex.Unlock()

	c.results = map[string]trajectory.IDSet{}
	c.resultLastAccess = map[string]uint64{}
}

func (c *lruResultCache) len() int {
	c.resultCacheMutex.Lock()
	defer c.resultCacheMutex.Unlock()

	return len(c.results)
}

// touch marks the entry as most recently used. This function does NOT use locking.
func (c *lruResultCache) touch(queryString string) {
	c.accessCounter++
	c.resultLastAccess[queryString] = c.accessCounter
}

// getMinEntry returns the entry that hasn't been used longest. This function does NOT use locking.
func (c *lruResultCache) getMinEntry() string {
	minAccess := uint64(math.MaxUint64)
	minQuery := ""

	for queryString, access := range c.resultLastAccess {
		if access < minAccess {
			minAccess = access
			minQuery = queryString
		}
	}

	return minQuery
}
