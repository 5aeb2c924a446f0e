// Package scrape fetches conference website pages and extracts structured
// data from their HTML, with an on-disk JSON cache in front of the network.
package scrape

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/apiconf/ndu/internal/log"
)

// Cap on response bodies read from the site.
const maxBodySize = 5 * 1024 * 1024

// Config carries the scraping settings.
type Config struct {
	// BaseURL is the site root, without a trailing slash.
	BaseURL string

	// CacheDir holds per-URL cache files.
	CacheDir string

	// TTL is how long a cached page stays fresh.
	TTL time.Duration

	// UserAgent is sent on every request.
	UserAgent string

	Logger log.Logger
}

// Page is the outcome of fetching one site page. Status is "success" or
// "error"; Data is the extracted content keyed by page kind.
type Page struct {
	URL      string         `json:"url"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
	CachedAt time.Time      `json:"cached_at"`
	Cached   bool           `json:"cached"`
	Data     map[string]any `json:"data,omitempty"`
}

// Service fetches and extracts site pages. Safe for concurrent use;
// concurrent fetches of the same URL are serialized so a page is scraped
// once per expiry window, not once per caller.
type Service struct {
	client    *http.Client
	baseURL   string
	cacheDir  string
	ttl       time.Duration
	userAgent string
	logger    log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds a scraping service from cfg.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		cacheDir:  cfg.CacheDir,
		ttl:       cfg.TTL,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Speakers fetches the speakers page. force bypasses the cache.
func (s *Service) Speakers(ctx context.Context, force bool) Page {
	return s.fetch(ctx, s.baseURL+"/speakers", !force)
}

// Schedule fetches the schedule page.
func (s *Service) Schedule(ctx context.Context, force bool) Page {
	return s.fetch(ctx, s.baseURL+"/schedule", !force)
}

// FAQ fetches the FAQ page.
func (s *Service) FAQ(ctx context.Context, force bool) Page {
	return s.fetch(ctx, s.baseURL+"/faq", !force)
}

// Main fetches the site landing page.
func (s *Service) Main(ctx context.Context, force bool) Page {
	return s.fetch(ctx, s.baseURL, !force)
}

// About fetches the about page.
func (s *Service) About(ctx context.Context, force bool) Page {
	return s.fetch(ctx, s.baseURL+"/about", !force)
}

// All fetches the speakers, schedule, FAQ and main pages concurrently and
// returns them keyed by page kind. A failed page reports its own error
// status; one failure does not abort the rest.
func (s *Service) All(ctx context.Context, force bool) map[string]Page {
	fetchers := map[string]func(context.Context, bool) Page{
		"speakers": s.Speakers,
		"schedule": s.Schedule,
		"faq":      s.FAQ,
		"main":     s.Main,
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]Page, len(fetchers))
	)
	for kind, fn := range fetchers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			page := fn(ctx, force)
			mu.Lock()
			results[kind] = page
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// ClearCache removes every cached page and reports how many were deleted.
func (s *Service) ClearCache() (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.cacheDir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("listing cache files: %w", err)
	}
	removed := 0
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}

func (s *Service) fetch(ctx context.Context, url string, useCache bool) Page {
	lock := s.urlLock(url)
	lock.Lock()
	defer lock.Unlock()

	cachePath := s.cachePath(url)
	if useCache {
		if page, ok := s.readCache(cachePath); ok && time.Since(page.CachedAt) < s.ttl {
			s.logger.Debug("serving cached page", "url", url)
			page.Cached = true
			return page
		}
	}

	page, err := s.fetchLive(ctx, url)
	if err != nil {
		// A stale copy beats no copy when the site is unreachable.
		if cached, ok := s.readCache(cachePath); ok {
			s.logger.Warn("fetch failed, serving stale cache", "url", url, "error", err)
			cached.Cached = true
			return cached
		}
		s.logger.Error("fetch failed", "url", url, "error", err)
		return Page{URL: url, Status: "error", Error: err.Error()}
	}

	// A forced refresh skips the cache only on the read side; the fresh
	// page still replaces whatever was on disk.
	if err := s.writeCache(cachePath, page); err != nil {
		s.logger.Warn("caching page failed", "url", url, "error", err)
	}
	return page
}

func (s *Service) fetchLive(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("building request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Page{}, fmt.Errorf("reading %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return Page{}, fmt.Errorf("parsing %s: %w", url, err)
	}

	return Page{
		URL:      url,
		Status:   "success",
		CachedAt: time.Now().UTC(),
		Data:     s.extract(url, doc),
	}, nil
}

func (s *Service) urlLock(url string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := s.locks[url]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[url] = lock
	}
	return lock
}

func (s *Service) cachePath(url string) string {
	sum := md5.Sum([]byte(url))
	return filepath.Join(s.cacheDir, hex.EncodeToString(sum[:])+".json")
}

func (s *Service) readCache(path string) (Page, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Page{}, false
	}
	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return Page{}, false
	}
	return page, true
}

// writeCache writes via a temp file and rename so readers never see a
// partially written cache entry.
func (s *Service) writeCache(path string, page Page) error {
	if err := os.MkdirAll(s.cacheDir, 0o750); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(s.cacheDir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing cache entry: %w", err)
	}
	return nil
}

func (s *Service) extract(url string, doc *goquery.Document) map[string]any {
	switch {
	case strings.Contains(url, "speakers"):
		return extractSpeakers(doc)
	case strings.Contains(url, "schedule"):
		return extractSchedule(doc)
	case strings.Contains(url, "faq"):
		return extractFAQ(doc)
	default:
		return extractGeneral(doc)
	}
}

func extractSpeakers(doc *goquery.Document) map[string]any {
	speakers := []any{}
	doc.Find("div, article").Each(func(_ int, sel *goquery.Selection) {
		if !classContains(sel, "speaker", "profile", "card") {
			return
		}
		name := firstText(sel, "h1, h2, h3, h4")
		if name == "" {
			return
		}
		title := classText(sel, "p, span", "title", "position", "company")
		bio := classText(sel, "p, div", "bio", "description", "about")
		speakers = append(speakers, map[string]any{
			"name":   name,
			"title":  title,
			"bio":    bio,
			"source": "web_scraped",
		})
	})
	return map[string]any{
		"speakers":    speakers,
		"total_count": len(speakers),
		"status":      "complete",
	}
}

func extractSchedule(doc *goquery.Document) map[string]any {
	sessions := []any{}
	doc.Find("div, article").Each(func(_ int, sel *goquery.Selection) {
		if !classContains(sel, "session", "schedule", "event") {
			return
		}
		title := firstText(sel, "h1, h2, h3, h4")
		if title == "" {
			return
		}
		sessions = append(sessions, map[string]any{
			"title":  title,
			"time":   classText(sel, "span, div", "time", "date"),
			"source": "web_scraped",
		})
	})
	return map[string]any{
		"schedule":       sessions,
		"total_sessions": len(sessions),
		"status":         "available",
	}
}

func extractFAQ(doc *goquery.Document) map[string]any {
	faqs := []any{}
	doc.Find("div, article").Each(func(_ int, sel *goquery.Selection) {
		if !classContains(sel, "faq", "question", "answer") {
			return
		}
		question := firstText(sel, "h1, h2, h3, h4")
		if question == "" {
			return
		}
		faqs = append(faqs, map[string]any{
			"question": question,
			"answer":   firstText(sel, "p, div"),
			"source":   "web_scraped",
		})
	})
	return map[string]any{
		"faqs":       faqs,
		"total_faqs": len(faqs),
		"status":     "available",
	}
}

func extractGeneral(doc *goquery.Document) map[string]any {
	title := strings.TrimSpace(doc.Find("title").First().Text())

	content := ""
	doc.Find("main, article, div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if goquery.NodeName(sel) != "main" && !classContains(sel, "content", "main", "body") {
			return true
		}
		content = collapseSpace(sel.Text())
		return false
	})
	if runes := []rune(content); len(runes) > 1000 {
		content = string(runes[:1000]) + "..."
	}

	return map[string]any{
		"title":   title,
		"content": content,
		"status":  "available",
	}
}

// classContains reports whether the element's class attribute contains any
// of the given words, case-insensitively.
func classContains(sel *goquery.Selection, words ...string) bool {
	class, ok := sel.Attr("class")
	if !ok {
		return false
	}
	class = strings.ToLower(class)
	for _, w := range words {
		if strings.Contains(class, w) {
			return true
		}
	}
	return false
}

// firstText returns the trimmed text of the first descendant matching the
// selector.
func firstText(sel *goquery.Selection, selector string) string {
	return collapseSpace(sel.Find(selector).First().Text())
}

// classText returns the trimmed text of the first descendant matching the
// selector whose class mentions one of the given words.
func classText(sel *goquery.Selection, selector string, words ...string) string {
	text := ""
	sel.Find(selector).EachWithBreak(func(_ int, child *goquery.Selection) bool {
		if !classContains(child, words...) {
			return true
		}
		text = collapseSpace(child.Text())
		return false
	})
	return text
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
