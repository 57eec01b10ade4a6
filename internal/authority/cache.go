// Package authority resolves identifiers against external identity services.
//
// Rules that cross-check a logsheet identifier (an ORCID, an NCBI taxonomy id)
// against a name written next to it go through a [Cache]. The cache lives for
// exactly one rule engine pass and is shared by every rule of the pass, so an
// identifier is looked up at most once per pass no matter how many rows or
// rules mention it.
//
// A failed lookup never aborts the pass. It is logged at error level and the
// identifier is remembered as unresolved; rules skip the comparison for it.
// The one exception is a cancelled pass: once the caller's context is done,
// Lookup returns its error instead of recording anything.
package authority

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/emo-bon/dqc/internal/logging"
)

// ErrUnresolved is wrapped by resolver errors for identifiers that could not
// be turned into a name.
var ErrUnresolved = errors.New("identifier unresolved")

// Resolver turns an identifier into the canonical name an authority holds
// for it.
type Resolver interface {
	// Name identifies the authority, e.g. "orcid". Cache entries are keyed
	// by it.
	Name() string
	Resolve(ctx context.Context, id string) (string, error)
}

// Keyer is implemented by resolvers accepting several spellings of one
// identifier. Key returns the canonical spelling the cache is keyed by.
type Keyer interface {
	Key(id string) string
}

type cacheKey struct {
	authority string
	id        string
}

type cacheEntry struct {
	name     string
	resolved bool
}

// Cache memoizes resolver results for one pass. It is not safe for
// concurrent use; rules run sequentially.
type Cache struct {
	entries map[cacheKey]cacheEntry
	calls   int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]cacheEntry)}
}

// Lookup returns the name r holds for id. ok is false when the identifier
// could not be resolved in this pass. err is non-nil only when ctx is done;
// the result of the pass is then incomplete and must be discarded.
func (c *Cache) Lookup(ctx context.Context, r Resolver, id string) (name string, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	key := cacheKey{authority: r.Name(), id: id}
	if k, canon := r.(Keyer); canon {
		key.id = k.Key(id)
	}
	if e, hit := c.entries[key]; hit {
		return e.name, e.resolved, nil
	}

	c.calls++
	name, err = r.Resolve(ctx, id)
	if err != nil {
		// A client timeout leaves ctx alive and counts as unresolved.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", false, ctxErr
		}
		logging.FromContext(ctx).Error("authority lookup failed",
			"authority", r.Name(),
			"id", id,
			"error", err,
		)
		c.entries[key] = cacheEntry{}
		return "", false, nil
	}

	c.entries[key] = cacheEntry{name: name, resolved: true}
	return name, true, nil
}

// Calls returns the number of resolver invocations made through the cache.
func (c *Cache) Calls() int { return c.calls }

// Unresolved returns how many identifiers failed to resolve.
func (c *Cache) Unresolved() int {
	n := 0
	for _, e := range c.entries {
		if !e.resolved {
			n++
		}
	}
	return n
}

// NewHTTPClient returns the client resolvers share. A hanging service turns
// into an unresolved identifier once timeout elapses.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
