package ember

import (
	"crypto/sha256"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/aofei/mimesniffer"
	"github.com/fsnotify/fsnotify"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

// coffer is the in-memory cache backing Response.WriteFile: it keeps a
// file's bytes resident across requests and invalidates an entry the
// moment the underlying file changes on disk.
type coffer struct {
	once    sync.Once
	assets  sync.Map // name -> *cofferAsset
	cache   *fastcache.Cache
	watcher *fsnotify.Watcher

	maxMemoryBytes int
	minify         bool
	minifier       *minify.M
}

// newCoffer returns a new coffer backed by at most maxMemoryBytes of
// cached content. When minifyHTML is true, cached text/html assets are
// minified before being stored.
func newCoffer(maxMemoryBytes int, minifyHTML bool) *coffer {
	c := &coffer{
		maxMemoryBytes: maxMemoryBytes,
		minify:         minifyHTML,
	}

	if minifyHTML {
		c.minifier = minify.New()
		c.minifier.AddFunc("text/html", html.Minify)
	}

	var err error
	c.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		panic(fmt.Sprintf("ember: failed to build asset watcher: %v", err))
	}

	go c.watchLoop()

	return c
}

func (c *coffer) watchLoop() {
	for {
		select {
		case e, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			c.invalidate(e.Name)
		case _, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (c *coffer) invalidate(name string) {
	v, ok := c.assets.Load(name)
	if !ok {
		return
	}
	a := v.(*cofferAsset)
	c.assets.Delete(name)
	c.cache.Del(a.checksum[:])
}

// asset returns the cached asset for filename, reading and caching it on
// first access. A nil asset with a nil error means filename is a
// directory and the caller should fall back to a direct read; a missing
// file is reported as an error.
func (c *coffer) asset(filename string) (*cofferAsset, error) {
	c.once.Do(func() {
		c.cache = fastcache.New(c.maxMemoryBytes)
	})

	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}

	if v, ok := c.assets.Load(abs); ok {
		return v.(*cofferAsset), nil
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, nil
	}

	b, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	mt := mime.TypeByExtension(filepath.Ext(abs))
	if mt == "" {
		mt = sniffContentType(b)
	}

	minified := false
	if c.minify && strings.HasPrefix(mt, "text/html") {
		if out, err := c.minifier.Bytes("text/html", b); err == nil {
			b = out
			minified = true
		}
	}

	if err := c.watcher.Add(abs); err != nil {
		return nil, err
	}

	a := &cofferAsset{
		coffer:   c,
		name:     abs,
		mimeType: mt,
		modTime:  fi.ModTime(),
		minified: minified,
		checksum: sha256.Sum256(b),
	}

	c.cache.Set(a.checksum[:], b)
	c.assets.Store(abs, a)

	return a, nil
}

// cofferAsset is one file's cached bytes and metadata.
type cofferAsset struct {
	coffer   *coffer
	name     string
	mimeType string
	modTime  time.Time
	minified bool
	checksum [sha256.Size]byte
}

// content returns a's cached bytes, or nil if the cache entry has been
// evicted out from under it (in which case the caller should re-fetch
// via coffer.asset).
func (a *cofferAsset) content() []byte {
	b := a.coffer.cache.Get(nil, a.checksum[:])
	if len(b) == 0 {
		a.coffer.assets.Delete(a.name)
		return nil
	}
	return b
}

// sniffContentType returns the sniffed MIME type of b. coffer.asset uses it
// when a file extension gives no usable hint; Response.WriteFile's direct
// read path uses it for every file.
func sniffContentType(b []byte) string {
	return mimesniffer.Sniff(b)
}
