package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstLink(t *testing.T) {
	assert.Equal(t, "", firstLink("no links here"))
	assert.Equal(t, "https://example.com/a", firstLink("see https://example.com/a and http://example.com/b"))
	assert.Equal(t, "http://example.com", firstLink("http://example.com"))
	assert.Equal(t, "", firstLink("ftp://example.com"))
}

func TestHTMLTitle(t *testing.T) {
	assert.Equal(t, "Hello", htmlTitle(`<html><head><TITLE>Hello</TITLE></head></html>`))
	assert.Equal(t, "Spaced", htmlTitle(`<title lang="en">
		Spaced
	</title>`))
	assert.Equal(t, "", htmlTitle(`<html><body>no title</body></html>`))
	assert.Equal(t, "", htmlTitle(`<title>unterminated`))
}

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Example Page</title></head></html>`))
	}))
	defer srv.Close()

	p := NewPreviewer()
	lp := p.Resolve(context.Background(), "check this out "+srv.URL)
	require.NotNil(t, lp)
	assert.Equal(t, srv.URL, lp.URL)
	assert.Equal(t, "Example Page", lp.Title)
}

func TestResolveNoLink(t *testing.T) {
	p := NewPreviewer()
	assert.Nil(t, p.Resolve(context.Background(), "just text"))
}

func TestResolveNonOKDegradesToNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewPreviewer()
	assert.Nil(t, p.Resolve(context.Background(), srv.URL))
}
