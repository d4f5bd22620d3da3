package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/planaxis/planaxis/internal/ir"
	"github.com/planaxis/planaxis/internal/parser"
)

// Document is a retrieved source document.
type Document struct {
	Body      []byte
	Format    parser.Format
	FetchedAt time.Time
	SourceURL string
}

// Fetcher retrieves the source document for an instrument. Network
// retrieval with retry/backoff lives behind this interface; the engine
// treats any error as a hard sync failure for the instrument.
type Fetcher interface {
	Fetch(ctx context.Context, cfg ir.InstrumentConfig) (Document, error)
}

// FixtureFetcher serves documents from a local directory, looking up
// <slug>.xml then <slug>.html. Used by the CLI and tests in place of a
// network client.
type FixtureFetcher struct {
	Dir string
}

// Fetch implements Fetcher.
func (f FixtureFetcher) Fetch(ctx context.Context, cfg ir.InstrumentConfig) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	candidates := []struct {
		ext    string
		format parser.Format
	}{
		{".xml", parser.FormatXML},
		{".html", parser.FormatHTML},
	}

	for _, c := range candidates {
		path := filepath.Join(f.Dir, cfg.Slug+c.ext)
		body, err := os.ReadFile(path)
		if err == nil {
			return Document{
				Body:      body,
				Format:    c.format,
				FetchedAt: time.Now().UTC(),
				SourceURL: "file://" + path,
			}, nil
		}
		if !os.IsNotExist(err) {
			return Document{}, fmt.Errorf("read fixture %s: %w", path, err)
		}
	}

	return Document{}, fmt.Errorf("no fixture document for %s in %s", cfg.Slug, f.Dir)
}

// HTTPFetcher retrieves documents from each instrument's SourceURL.
// Transient failures are retried with exponential backoff; a response
// that never arrives within the attempts budget is a hard error.
type HTTPFetcher struct {
	Client  *http.Client
	Retries int

	// Backoff is the base delay between attempts, doubling each retry.
	// Zero means one second.
	Backoff time.Duration
}

// Fetch implements Fetcher.
func (f HTTPFetcher) Fetch(ctx context.Context, cfg ir.InstrumentConfig) (Document, error) {
	if cfg.SourceURL == "" {
		return Document{}, fmt.Errorf("instrument %s has no source_url", cfg.Slug)
	}
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	attempts := f.Retries + 1
	if attempts < 1 {
		attempts = 1
	}

	base := f.Backoff
	if base <= 0 {
		base = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := base << uint(attempt-1)
			select {
			case <-ctx.Done():
				return Document{}, ctx.Err()
			case <-time.After(backoff):
			}
		}
		doc, err := f.fetchOnce(ctx, client, cfg)
		if err == nil {
			return doc, nil
		}
		lastErr = err
	}
	return Document{}, fmt.Errorf("fetch %s: %w", cfg.Slug, lastErr)
}

func (f HTTPFetcher) fetchOnce(ctx context.Context, client *http.Client, cfg ir.InstrumentConfig) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.SourceURL, nil)
	if err != nil {
		return Document{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Document{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("read body: %w", err)
	}

	format := parser.FormatAuto
	switch {
	case strings.Contains(resp.Header.Get("Content-Type"), "xml"):
		format = parser.FormatXML
	case strings.Contains(resp.Header.Get("Content-Type"), "html"):
		format = parser.FormatHTML
	}
	return Document{
		Body:      body,
		Format:    format,
		FetchedAt: time.Now().UTC(),
		SourceURL: cfg.SourceURL,
	}, nil
}
