package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

const (
	// MaxPageSize limits how much of a response is parsed for its title
	MaxPageSize = 10 * 1024 * 1024

	// DefaultUserAgent is sent when none is configured
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) tabsession/1.0 Safari/537.36"

	// DefaultMaxRedirects bounds redirect chains
	DefaultMaxRedirects = 10
)

// ErrUnsupportedScheme is returned for URLs a loader can't fetch
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// Page is the result of loading a URL
type Page struct {
	URL         string // final URL after redirects
	Title       string
	ContentType string
	Status      int
}

// Loader fetches pages for tabs
type Loader interface {
	Load(ctx context.Context, rawURL string) (*Page, error)
}

func aboutPage(rawURL string) *Page {
	return &Page{URL: rawURL, Title: rawURL, ContentType: "text/html", Status: 200}
}

func isAbout(rawURL string) bool {
	return strings.HasPrefix(rawURL, "about:")
}

// HTTPLoaderConfig configures an HTTPLoader
type HTTPLoaderConfig struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRedirects int
}

// HTTPLoader fetches pages over HTTP(S) and extracts their titles
type HTTPLoader struct {
	client *resty.Client
}

// NewHTTPLoader creates a loader backed by a resty client
func NewHTTPLoader(cfg HTTPLoaderConfig) *HTTPLoader {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = DefaultMaxRedirects
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(cfg.MaxRedirects)).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	return &HTTPLoader{client: client}
}

// Load fetches rawURL. HTTP error statuses still produce a page, like a
// browser showing a 404 document.
func (l *HTTPLoader) Load(ctx context.Context, rawURL string) (*Page, error) {
	if isAbout(rawURL) {
		return aboutPage(rawURL), nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	resp, err := l.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	final := rawURL
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}

	body := resp.Body()
	if len(body) > MaxPageSize {
		body = body[:MaxPageSize]
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = mimetype.Detect(body).String()
	}

	title := final
	if isHTML(contentType) {
		if t := ExtractTitle(body, contentType); t != "" {
			title = t
		}
	}

	return &Page{
		URL:         final,
		Title:       title,
		ContentType: contentType,
		Status:      resp.StatusCode(),
	}, nil
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// ExtractTitle returns the whitespace-collapsed <title> of an HTML document,
// decoded to UTF-8 using the declared or detected charset.
func ExtractTitle(body []byte, contentType string) string {
	decoded, err := toUTF8(body, contentType)
	if err != nil {
		decoded = body
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}

// toUTF8 converts body to UTF-8. When nothing declares a charset and the
// bytes aren't UTF-8, chardet's guess replaces the windows-1252 fallback.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	if _, name, certain := charset.DetermineEncoding(body, contentType); !certain && name == "windows-1252" {
		if guess, err := chardet.NewHtmlDetector().DetectBest(body); err == nil && guess.Confidence >= 50 {
			contentType = "text/html; charset=" + guess.Charset
		}
	}
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}

// StaticLoader serves pages from memory. The zero value serves about: URLs only.
type StaticLoader struct {
	mu        sync.RWMutex
	pages     map[string]Page
	redirects map[string]string
}

// NewStaticLoader creates an empty static loader
func NewStaticLoader() *StaticLoader {
	return &StaticLoader{}
}

// AddPage registers a page at rawURL
func (l *StaticLoader) AddPage(rawURL, title string) *StaticLoader {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pages == nil {
		l.pages = make(map[string]Page)
	}
	l.pages[rawURL] = Page{URL: rawURL, Title: title, ContentType: "text/html; charset=utf-8", Status: 200}
	return l
}

// AddRedirect makes from redirect to to
func (l *StaticLoader) AddRedirect(from, to string) *StaticLoader {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.redirects == nil {
		l.redirects = make(map[string]string)
	}
	l.redirects[from] = to
	return l
}

// Load resolves redirects and returns the registered page
func (l *StaticLoader) Load(ctx context.Context, rawURL string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isAbout(rawURL) {
		return aboutPage(rawURL), nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	current := rawURL
	for hops := 0; ; hops++ {
		next, ok := l.redirects[current]
		if !ok {
			break
		}
		if hops >= DefaultMaxRedirects {
			return nil, fmt.Errorf("stopped after %d redirects", DefaultMaxRedirects)
		}
		current = next
	}

	page, ok := l.pages[current]
	if !ok {
		return nil, fmt.Errorf("no page registered for %s", current)
	}
	if page.Title == "" {
		page.Title = page.URL
	}
	return &page, nil
}
