package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
	<title>黑神话：悟空</title>
	<style>body { color: blue; }</style>
</head>
<body>
	<h1>Test   Content</h1>
	<div id="main"><p>This is a
	test paragraph.</p></div>
	<script>console.log('test');</script>
	<noscript>enable javascript</noscript>
</body>
</html>`

func TestWebLoader(t *testing.T) {
	ctx := context.Background()

	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(testPage))
	}))
	defer server.Close()

	t.Run("Extracts visible text", func(t *testing.T) {
		docs, err := NewWebLoader([]string{server.URL}).LoadWithMetadata(ctx, map[string]any{"lang": "zh"})
		require.NoError(t, err)
		require.Len(t, docs, 1)

		doc := docs[0]
		assert.Contains(t, doc.Content, "Test Content")
		assert.Contains(t, doc.Content, "This is a test paragraph.")
		assert.NotContains(t, doc.Content, "console.log")
		assert.NotContains(t, doc.Content, "color: blue")
		assert.NotContains(t, doc.Content, "enable javascript")
		assert.Equal(t, server.URL, doc.Metadata["source"])
		assert.Equal(t, "黑神话：悟空", doc.Metadata["title"])
		assert.Equal(t, "zh", doc.Metadata["lang"])
		assert.Len(t, doc.ID, 36)
		assert.Equal(t, defaultUserAgent, userAgent)
	})

	t.Run("Selector and user agent", func(t *testing.T) {
		loader := NewWebLoader([]string{server.URL},
			WithSelector("#main"),
			WithUserAgent("tester"),
			WithHTTPClient(server.Client()),
		)
		docs, err := loader.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "This is a test paragraph.", docs[0].Content)
		assert.Equal(t, "tester", userAgent)
	})

	t.Run("Error status", func(t *testing.T) {
		errorServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer errorServer.Close()

		_, err := NewWebLoader([]string{errorServer.URL}).Load(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status code 404")
	})

	t.Run("Empty body", func(t *testing.T) {
		emptyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body><script>x()</script></body></html>"))
		}))
		defer emptyServer.Close()

		_, err := NewWebLoader([]string{emptyServer.URL}).Load(ctx)
		assert.ErrorIs(t, err, ErrNoContent)
		assert.Contains(t, err.Error(), "no text content found")
	})

	t.Run("Invalid URL", func(t *testing.T) {
		_, err := NewWebLoader([]string{"invalid-url"}).Load(ctx)
		assert.Error(t, err)
	})
}
