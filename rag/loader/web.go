package loader

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/smallnest/simplerag/log"
	"github.com/smallnest/simplerag/rag"
)

// ErrNoContent is returned when a page has no visible text.
var ErrNoContent = errors.New("no text content found")

const defaultUserAgent = "simplerag/1.0 (+https://github.com/smallnest/simplerag)"

// WebLoader fetches web pages and turns each one into a document holding its
// visible text.
type WebLoader struct {
	urls      []string
	client    *http.Client
	selector  string
	userAgent string
}

// WebLoaderOption configures the WebLoader
type WebLoaderOption func(*WebLoader)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) WebLoaderOption {
	return func(l *WebLoader) {
		l.client = client
	}
}

// WithSelector restricts extraction to the elements matching a CSS selector.
func WithSelector(selector string) WebLoaderOption {
	return func(l *WebLoader) {
		l.selector = selector
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) WebLoaderOption {
	return func(l *WebLoader) {
		l.userAgent = userAgent
	}
}

// NewWebLoader creates a loader for urls.
func NewWebLoader(urls []string, opts ...WebLoaderOption) *WebLoader {
	l := &WebLoader{
		urls:      urls,
		client:    &http.Client{Timeout: 30 * time.Second},
		selector:  "body",
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches every URL.
func (l *WebLoader) Load(ctx context.Context) ([]rag.Document, error) {
	return l.LoadWithMetadata(ctx, nil)
}

// LoadWithMetadata fetches every URL in order; the first failure aborts.
func (l *WebLoader) LoadWithMetadata(ctx context.Context, metadata map[string]any) ([]rag.Document, error) {
	docs := make([]rag.Document, 0, len(l.urls))
	for _, url := range l.urls {
		doc, err := l.fetch(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", url, err)
		}
		maps.Copy(doc.Metadata, metadata)
		docs = append(docs, doc)
	}
	return docs, nil
}

func (l *WebLoader) fetch(ctx context.Context, url string) (rag.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return rag.Document{}, err
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return rag.Document{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return rag.Document{}, fmt.Errorf("request failed with status code %d", resp.StatusCode)
	}

	page, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return rag.Document{}, fmt.Errorf("failed to parse html: %w", err)
	}
	page.Find("script, style, noscript").Remove()

	title := collapseSpace(page.Find("title").First().Text())

	var parts []string
	page.Find(l.selector).Each(func(_ int, s *goquery.Selection) {
		if text := collapseSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return rag.Document{}, ErrNoContent
	}

	log.Debug("fetched %s (%d bytes of text)", url, len(strings.Join(parts, "")))

	now := time.Now()
	return rag.Document{
		ID:      uuid.New().String(),
		Content: strings.Join(parts, "\n"),
		Metadata: map[string]any{
			"source": url,
			"title":  title,
			"type":   "web",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
