package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/joseph-ayodele/capture-tracker/internal/common"
)

const (
	maxPageBytes = 5 << 20
	maxPageText  = 64 << 10
)

// skipTags holds elements whose text is never content.
var skipTags = map[string]bool{
	"script": true, "style": true, "nav": true,
	"header": true, "footer": true, "aside": true,
	"noscript": true, "iframe": true, "svg": true,
}

var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "br": true, "tr": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// HTTPFetcher downloads a page and extracts its readable text.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

func NewHTTPFetcher(client *http.Client, logger *slog.Logger) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{client: client, userAgent: "capture-tracker/1.0", logger: logger}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Page{}, fmt.Errorf("%w: invalid URL: %v", common.ErrExtractionFailed, err)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Page{}, fmt.Errorf("%w: unsupported scheme %q", common.ErrExtractionFailed, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("%w: build request: %v", common.ErrExtractionFailed, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("extract.url.fetch_failed", "url", u.String(), "error", err)
		return Page{}, fmt.Errorf("%w: fetch: %v", common.ErrExtractionFailed, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			f.logger.Warn("extract.url.body_close_error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("%w: HTTP %d", common.ErrExtractionFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Page{}, fmt.Errorf("%w: read body: %v", common.ErrExtractionFailed, err)
	}

	page := Page{URL: u.String()}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		page.Text = strings.TrimSpace(string(body))
	} else {
		page.Title, page.Text = extractText(string(body))
	}
	if len(page.Text) > maxPageText {
		page.Text = strings.ToValidUTF8(page.Text[:maxPageText], "")
	}
	f.logger.Info("extract.url.ok",
		"url", page.URL,
		"bytes", len(body),
		"chars", len(page.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return page, nil
}

// extractText returns the document title and its visible text, one block per line.
func extractText(doc string) (string, string) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", ""
	}

	var title string
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipTags[n.Data] {
				return
			}
			if n.Data == "title" {
				if n.FirstChild != nil && title == "" {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			sb.WriteString("\n")
		}
	}
	walk(root)

	lines := strings.Split(sb.String(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return title, strings.Join(out, "\n")
}
