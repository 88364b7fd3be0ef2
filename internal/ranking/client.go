// Package ranking compares solve times against published WCA rankings.
package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cubelog/cubelog/internal/model"
)

const (
	// DefaultBaseURL serves the static rankings export.
	DefaultBaseURL = "https://raw.githubusercontent.com/robiningelbrecht/wca-rest-api/master/api"
	// DefaultPersonURL is the official WCA persons endpoint used to validate WCA IDs.
	DefaultPersonURL = "https://www.worldcubeassociation.org/api/v0/persons"

	DefaultTimeout  = 10 * time.Second
	DefaultCacheTTL = 24 * time.Hour

	memoryCacheSize = 64
	maxAttempts     = 2
	maxBodyBytes    = 64 << 20
)

// Kind selects single or average rankings.
type Kind string

const (
	KindSingle  Kind = "single"
	KindAverage Kind = "average"
)

// ParseKind accepts "single" or "average"; empty means single.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return KindSingle, nil
	case "average", "avg":
		return KindAverage, nil
	default:
		return "", fmt.Errorf("%w: unknown ranking type %q", model.ErrInvalidInput, s)
	}
}

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	BaseURL    string
	PersonURL  string
	CacheDir   string
	CacheTTL   time.Duration
	Timeout    time.Duration
	Offline    bool
	HTTPClient *http.Client
	Logger     *log.Logger
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.PersonURL == "" {
		o.PersonURL = DefaultPersonURL
	}
	o.PersonURL = strings.TrimRight(o.PersonURL, "/")
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// Client fetches ranking data with an in-memory LRU and an optional disk cache.
// It is safe for concurrent use.
type Client struct {
	mu    sync.RWMutex
	opts  Options
	cache *lru.Cache[string, []byte]
	now   func() time.Time
}

// New creates a ranking client.
func New(opts Options) *Client {
	cache, err := lru.New[string, []byte](memoryCacheSize)
	if err != nil {
		// Only fails for a non-positive size.
		panic(err)
	}
	return &Client{opts: opts.withDefaults(), cache: cache, now: time.Now}
}

// Configure swaps the client options at runtime. Cached responses are dropped
// when the data source changes.
func (c *Client) Configure(opts Options) {
	opts = opts.withDefaults()
	c.mu.Lock()
	defer c.mu.Unlock()
	if opts.BaseURL != c.opts.BaseURL || opts.PersonURL != c.opts.PersonURL {
		c.cache.Purge()
	}
	c.opts = opts
}

func (c *Client) options() Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts
}

// RankEntry is one row of a rankings file. Results are in centiseconds.
type RankEntry struct {
	PersonID string `json:"personId"`
	EventID  string `json:"eventId"`
	Best     int64  `json:"best"`
	Average  int64  `json:"average"`
	Rank     struct {
		World     int `json:"world"`
		Continent int `json:"continent"`
		Country   int `json:"country"`
	} `json:"rank"`
}

// Result returns the entry's result for kind in centiseconds.
func (e RankEntry) Result(kind Kind) int64 {
	if kind == KindAverage && e.Average > 0 {
		return e.Average
	}
	return e.Best
}

// Event describes a WCA event.
type Event struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Format string `json:"format,omitempty"`
}

// Person is a competitor record from the rankings export.
type Person struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

// Rankings returns the ranked results for an event. region is "world", a continent or a country code.
func (c *Client) Rankings(ctx context.Context, region string, kind Kind, event string) ([]RankEntry, error) {
	if region == "" {
		region = "world"
	}
	var resp itemsResponse[RankEntry]
	if err := c.getJSON(ctx, fmt.Sprintf("rank/%s/%s/%s.json", region, kind, event), &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Events lists the events known to the rankings export.
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	var resp itemsResponse[Event]
	if err := c.getJSON(ctx, "events.json", &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Person loads a competitor from the rankings export.
func (c *Client) Person(ctx context.Context, id string) (Person, error) {
	var person Person
	if err := c.getJSON(ctx, fmt.Sprintf("persons/%s.json", id), &person); err != nil {
		return Person{}, err
	}
	return person, nil
}

// Record is the current world record for an event.
type Record struct {
	Event     string `json:"event"`
	Kind      Kind   `json:"kind"`
	TimeMs    int64  `json:"time_ms"`
	Holder    string `json:"holder"`
	PersonID  string `json:"wca_id"`
	Country   string `json:"country"`
	WorldRank int    `json:"world_rank"`
}

// WorldRecord returns the first entry of the world rankings with the holder's name resolved.
// A failed person lookup keeps the WCA ID as the holder.
func (c *Client) WorldRecord(ctx context.Context, event string, kind Kind) (Record, error) {
	entries, err := c.Rankings(ctx, "world", kind, event)
	if err != nil {
		return Record{}, err
	}
	if len(entries) == 0 {
		return Record{}, fmt.Errorf("%w: no rankings for %s %s", model.ErrNotFound, event, kind)
	}
	top := entries[0]
	rec := Record{
		Event:     event,
		Kind:      kind,
		TimeMs:    top.Result(kind) * 10,
		Holder:    top.PersonID,
		PersonID:  top.PersonID,
		Country:   "Unknown",
		WorldRank: top.Rank.World,
	}
	if rec.WorldRank == 0 {
		rec.WorldRank = 1
	}
	if top.PersonID != "" {
		person, err := c.Person(ctx, top.PersonID)
		if err != nil {
			c.options().Logger.Debug("record holder lookup failed", "wca_id", top.PersonID, "err", err)
		} else {
			if person.Name != "" {
				rec.Holder = person.Name
			}
			if person.Country != "" {
				rec.Country = person.Country
			}
		}
	}
	return rec, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	opts := c.options()
	data, err := c.fetch(ctx, opts, opts.BaseURL+"/"+path, path, true)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", model.ErrRankingUnavailable, path, err)
	}
	return nil
}

// fetch returns the body for url, consulting the memory cache, then the disk cache
// when persist is set, then the network with one retry. Only valid JSON is cached.
func (c *Client) fetch(ctx context.Context, opts Options, url, key string, persist bool) ([]byte, error) {
	if data, ok := c.cache.Get(key); ok {
		return data, nil
	}
	if persist {
		if data, ok := c.readDisk(opts, key); ok {
			c.cache.Add(key, data)
			return data, nil
		}
	}
	if opts.Offline {
		return nil, fmt.Errorf("%w: offline mode", model.ErrRankingUnavailable)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		data, err := c.attempt(ctx, opts, url)
		if err == nil {
			c.cache.Add(key, data)
			if persist {
				c.writeDisk(opts, key, data)
			}
			return data, nil
		}
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		opts.Logger.Debug("ranking fetch failed", "url", url, "attempt", attempt, "err", err)
	}
	return nil, fmt.Errorf("%w: %s: %w", model.ErrRankingUnavailable, key, lastErr)
}

func (c *Client) attempt(ctx context.Context, opts Options, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("response from %s is not JSON", url)
	}
	return data, nil
}

func cacheFile(dir, key string) string {
	return filepath.Join(dir, strings.ReplaceAll(key, "/", "_"))
}

func (c *Client) readDisk(opts Options, key string) ([]byte, bool) {
	if opts.CacheDir == "" {
		return nil, false
	}
	path := cacheFile(opts.CacheDir, key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if c.now().Sub(info.ModTime()) > opts.CacheTTL && !opts.Offline {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil || !json.Valid(data) {
		return nil, false
	}
	return data, true
}

// writeDisk stores a response through a temp file so readers never see a partial body.
func (c *Client) writeDisk(opts Options, key string, data []byte) {
	if opts.CacheDir == "" {
		return
	}
	if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
		opts.Logger.Debug("ranking cache unavailable", "dir", opts.CacheDir, "err", err)
		return
	}
	tmp, err := os.CreateTemp(opts.CacheDir, "ranking-*.json")
	if err != nil {
		opts.Logger.Debug("ranking cache write failed", "err", err)
		return
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		opts.Logger.Debug("ranking cache write failed", "err", err)
		return
	}
	if err := tmp.Close(); err != nil {
		opts.Logger.Debug("ranking cache write failed", "err", err)
		return
	}
	if err := os.Rename(tmpPath, cacheFile(opts.CacheDir, key)); err != nil {
		opts.Logger.Debug("ranking cache write failed", "err", err)
	}
}
