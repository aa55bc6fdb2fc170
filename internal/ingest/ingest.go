// Package ingest feeds content into provider stores: local files as-is and
// single web pages reduced to their readable text.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/salusdesk/salus/internal/admin"
	"github.com/salusdesk/salus/internal/grounding"
	"github.com/salusdesk/salus/internal/log"
)

var (
	// ErrUnsupportedFile marks files whose format the provider cannot index.
	ErrUnsupportedFile = errors.New("unsupported file format")

	// ErrEmptyPage marks pages with no extractable article text.
	ErrEmptyPage = errors.New("page has no readable content")
)

// maxPageBytes caps how much of a page body is read.
const maxPageBytes = 4 << 20

var supportedExtensions = map[string]struct{}{
	".pdf":  {},
	".txt":  {},
	".md":   {},
	".html": {},
	".docx": {},
	".csv":  {},
	".json": {},
}

// Uploader is the slice of the admin surface ingestion needs.
// *admin.Manager implements it.
type Uploader interface {
	UploadFile(ctx context.Context, id, path string, opts admin.UploadOptions) (string, error)
}

// Ingestor pushes documents into stores.
type Ingestor struct {
	uploader Uploader
	client   *http.Client
	logger   log.Logger
}

// New creates an Ingestor. A nil httpClient falls back to a client with a
// 30 second timeout.
func New(uploader Uploader, httpClient *http.Client, logger log.Logger) *Ingestor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Ingestor{uploader: uploader, client: httpClient, logger: logger}
}

// File ingests a local file into the given store.
func (i *Ingestor) File(ctx context.Context, storeID, path string, title string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := supportedExtensions[ext]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}

	return i.uploader.UploadFile(ctx, storeID, path, admin.UploadOptions{Title: title})
}

// Page fetches a single web page, extracts its readable text and ingests it
// as a website-sourced document. The document carries the page's canonical
// url so answers can cite it.
func (i *Ingestor) Page(ctx context.Context, storeID, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("invalid page url %q", pageURL)
	}

	body, err := i.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	canonical := canonicalURL(body, pageURL)
	article, err := readability.FromReader(strings.NewReader(body), parsed)
	if err != nil {
		return "", fmt.Errorf("extracting content from %s: %w", pageURL, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyPage, pageURL)
	}
	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = pageTitle(body, canonical)
	}

	path, err := writePageFile(canonical, title, text)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	i.logger.Info("page extracted",
		"url", canonical, "title", title, "chars", len(text))

	return i.uploader.UploadFile(ctx, storeID, path, admin.UploadOptions{
		Title:      title,
		SourceType: grounding.SourceTypeWebsite,
		URL:        canonical,
	})
}

func (i *Ingestor) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", "salus-ingest/1.0")

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", pageURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", pageURL, err)
	}
	return string(data), nil
}

// canonicalURL prefers the page's declared canonical link over the url it
// was fetched from, so redirect aliases collapse onto one citation.
func canonicalURL(body, fetched string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return fetched
	}
	href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href")
	if !ok {
		return fetched
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return fetched
	}
	if u, err := url.Parse(href); err == nil && u.IsAbs() {
		return href
	}
	base, err := url.Parse(fetched)
	if err != nil {
		return fetched
	}
	rel, err := url.Parse(href)
	if err != nil {
		return fetched
	}
	return base.ResolveReference(rel).String()
}

func pageTitle(body, fallback string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return fallback
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return fallback
	}
	return title
}

// writePageFile stores the extracted text in a temp file named after the
// page so re-ingesting the same url replaces the previous document.
func writePageFile(pageURL, title, text string) (string, error) {
	path := filepath.Join(os.TempDir(), slugify(pageURL)+".txt")
	content := title + "\n\n" + text + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("writing page file: %w", err)
	}
	return path, nil
}

// slugify turns a url into a stable file name.
func slugify(pageURL string) string {
	s := strings.TrimPrefix(pageURL, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.Trim(s, "/")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 120 {
		slug = slug[:120]
	}
	if slug == "" {
		slug = "page"
	}
	return slug
}
