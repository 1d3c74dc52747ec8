package ember

import (
	"regexp"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// regexShardCount is the number of independent shards the regex cache is
// split across. Sharding by a hash of the pattern source keeps lock
// contention between unrelated patterns low once each shard has warmed up.
const regexShardCount = 16

// regexCache memoizes compiled regular expressions by their source
// pattern, shared across every route that references the same pattern.
// Compilation happens once per distinct pattern; a racing duplicate
// compile converges on a single compiled instance via singleflight.
type regexCache struct {
	shards [regexShardCount]regexCacheShard
	group  singleflight.Group
}

type regexCacheShard struct {
	mu    sync.RWMutex
	byPat map[string]*regexp.Regexp
}

// newRegexCache returns a new, empty regexCache.
func newRegexCache() *regexCache {
	c := &regexCache{}
	for i := range c.shards {
		c.shards[i].byPat = map[string]*regexp.Regexp{}
	}
	return c
}

func (c *regexCache) shardFor(pattern string) *regexCacheShard {
	h := xxhash.Sum64String(pattern)
	return &c.shards[h%regexShardCount]
}

// getOrCompile returns the compiled regex for pattern, compiling and
// caching it on a miss. Compilation errors are returned to the caller;
// route registration treats them as fatal since a pattern that cannot
// compile can never match a request.
func (c *regexCache) getOrCompile(pattern string) (*regexp.Regexp, error) {
	shard := c.shardFor(pattern)

	shard.mu.RLock()
	if re, ok := shard.byPat[pattern]; ok {
		shard.mu.RUnlock()
		return re, nil
	}
	shard.mu.RUnlock()

	v, err, _ := c.group.Do(pattern, func() (interface{}, error) {
		shard.mu.RLock()
		if re, ok := shard.byPat[pattern]; ok {
			shard.mu.RUnlock()
			return re, nil
		}
		shard.mu.RUnlock()

		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}

		shard.mu.Lock()
		shard.byPat[pattern] = re
		shard.mu.Unlock()

		return re, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*regexp.Regexp), nil
}
