// Package metadata resolves content-addressed info pointers. Channels and
// topics keep only an immutable pointer on-chain; the JSON documents
// behind them live on a content-addressed gateway and are fetched lazily
// by off-chain readers.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sigstream/sigstream/log"
)

var (
	ErrEmptyPointer = errors.New("metadata: empty pointer")
	ErrNotFound     = errors.New("metadata: document not found")
	ErrTooLarge     = errors.New("metadata: document exceeds size limit")
)

const (
	// DefaultTTL bounds how long a resolved document is served from
	// cache. Pointers are content-addressed, so entries never go stale;
	// the TTL only bounds memory held for cold pointers.
	DefaultTTL = 10 * time.Minute

	// MaxDocumentSize caps a single fetched document.
	MaxDocumentSize = 1 << 20 // 1 MiB
)

// Document is a resolved metadata document.
type Document struct {
	Pointer string `json:"pointer"`
	Name    string `json:"name"`
	About   string `json:"about,omitempty"`
	Image   string `json:"image,omitempty"`

	Raw json.RawMessage `json:"-"`
}

type cacheEntry struct {
	doc       Document
	expiresAt time.Time
}

// Client fetches metadata documents from an HTTP gateway and caches them
// with a TTL. It is safe for concurrent use.
type Client struct {
	gateway string
	httpc   *http.Client
	ttl     time.Duration
	logger  *log.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry

	nowFunc func() time.Time // injectable clock for testing
}

// NewClient creates a metadata client for the given gateway base URL,
// e.g. "https://ipfs.example.org/ipfs".
func NewClient(gateway string) (*Client, error) {
	if _, err := url.Parse(gateway); err != nil {
		return nil, fmt.Errorf("metadata: bad gateway url: %w", err)
	}
	return &Client{
		gateway: strings.TrimRight(gateway, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
		ttl:     DefaultTTL,
		logger:  log.Module("metadata"),
		cache:   make(map[string]cacheEntry),
		nowFunc: time.Now,
	}, nil
}

// Fetch resolves one pointer, served from cache when fresh.
func (c *Client) Fetch(ctx context.Context, pointer string) (Document, error) {
	if pointer == "" {
		return Document{}, ErrEmptyPointer
	}

	now := c.nowFunc()
	c.mu.Lock()
	if e, ok := c.cache[pointer]; ok && now.Before(e.expiresAt) {
		c.mu.Unlock()
		return e.doc, nil
	}
	c.mu.Unlock()

	doc, err := c.fetchRemote(ctx, pointer)
	if err != nil {
		return Document{}, err
	}

	c.mu.Lock()
	c.cache[pointer] = cacheEntry{doc: doc, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
	return doc, nil
}

// FetchAll resolves many pointers, degrading gracefully: unresolvable
// pointers yield a stub document carrying only the pointer, so one dead
// gateway entry cannot blank out a whole listing.
func (c *Client) FetchAll(ctx context.Context, pointers []string) []Document {
	out := make([]Document, 0, len(pointers))
	for _, p := range pointers {
		doc, err := c.Fetch(ctx, p)
		if err != nil {
			c.logger.Warn("metadata fetch failed", "pointer", p, "err", err)
			doc = Document{Pointer: p}
		}
		out = append(out, doc)
	}
	return out
}

func (c *Client) fetchRemote(ctx context.Context, pointer string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.gateway+"/"+url.PathEscape(pointer), nil)
	if err != nil {
		return Document{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Document{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Document{}, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return Document{}, fmt.Errorf("metadata: gateway status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return Document{}, err
	}
	if len(body) > MaxDocumentSize {
		return Document{}, ErrTooLarge
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return Document{}, fmt.Errorf("metadata: decode %q: %w", pointer, err)
	}
	doc.Pointer = pointer
	doc.Raw = body
	return doc, nil
}
