package chat

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fathima-sithara/realtime-service/internal/models"
)

// Previewer resolves link preview metadata for the first link token in a
// text chat. Failures degrade to the original text and never fail the send.
type Previewer struct {
	client     *http.Client
	maxElapsed time.Duration
}

func NewPreviewer() *Previewer {
	return &Previewer{
		client:     &http.Client{Timeout: 5 * time.Second},
		maxElapsed: 10 * time.Second,
	}
}

// firstLink returns the first http(s) token in text, or "".
func firstLink(text string) string {
	for _, tok := range strings.Fields(text) {
		if strings.HasPrefix(tok, "http://") || strings.HasPrefix(tok, "https://") {
			return tok
		}
	}
	return ""
}

// Resolve fetches the page title for the first link in text. Returns nil
// when text has no link or the fetch fails.
func (p *Previewer) Resolve(ctx context.Context, text string) *models.LinkPreview {
	link := firstLink(text)
	if link == "" {
		return nil
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(io.EOF)
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, 256*1024))
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = p.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil
	}

	return &models.LinkPreview{URL: link, Title: htmlTitle(string(body))}
}

func htmlTitle(page string) string {
	lower := strings.ToLower(page)
	start := strings.Index(lower, "<title")
	if start < 0 {
		return ""
	}
	open := strings.Index(lower[start:], ">")
	if open < 0 {
		return ""
	}
	rest := page[start+open+1:]
	end := strings.Index(strings.ToLower(rest), "</title>")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
