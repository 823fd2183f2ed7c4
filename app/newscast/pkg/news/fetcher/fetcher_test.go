package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/newscast/app/newscast/pkg/config"
)

func TestBrightData_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		var req unlockRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "zone-1", req.Zone)
		assert.Equal(t, "https://news.example.com/search?q=go", req.URL)
		assert.Equal(t, "raw", req.Format)

		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	c := NewBrightData(srv.URL, "token-1", "zone-1", time.Second)
	got, err := c.Fetch(context.Background(), "https://news.example.com/search?q=go")
	require.NoError(t, err)
	assert.Equal(t, "<html><body>ok</body></html>", got)
}

func TestBrightData_FetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad token"))
	}))
	defer srv.Close()

	_, err := NewBrightData(srv.URL, "x", "z", time.Second).Fetch(context.Background(), "https://a.b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "bad token")
}

func TestDirect_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<rss></rss>"))
	}))
	defer srv.Close()

	d := NewDirect(time.Second)
	got, err := d.Fetch(context.Background(), srv.URL+"/feed")
	require.NoError(t, err)
	assert.Equal(t, "<rss></rss>", got)

	_, err = d.Fetch(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestNewFetcher(t *testing.T) {
	f, err := NewFetcher(config.FetcherConfig{Provider: "brightdata"})
	require.NoError(t, err)
	assert.IsType(t, &Direct{}, f, "missing credentials fall back to direct")

	f, err = NewFetcher(config.FetcherConfig{
		Provider:   "brightdata",
		BrightData: config.BrightDataConfig{APIToken: "t", Zone: "z"},
	})
	require.NoError(t, err)
	assert.IsType(t, &BrightData{}, f)

	_, err = NewFetcher(config.FetcherConfig{Provider: "ftp"})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))

	// "新闻" 每个字 3 字节，4 字节处截断只能保留第一个字
	got := truncate("新闻报道", 4)
	assert.Equal(t, "新...", got)
	assert.True(t, utf8.ValidString(got))
}
