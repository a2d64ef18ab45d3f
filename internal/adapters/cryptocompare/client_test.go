package cryptocompare_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaranges/cryptopilot/internal/adapters/cryptocompare"
)

func TestLatestNews(t *testing.T) {
	published := time.Now().UTC().Add(-35 * time.Minute).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/v2/news/", r.URL.Path)
		assert.Equal(t, "EN", r.URL.Query().Get("lang"))
		fmt.Fprintf(w, `{"Data": [
			{"title": "BTC breaks 50k", "source": "coindesk", "published_on": %d,
			 "url": "https://example.com/a", "body": "Bitcoin rallied.", "categories": "BTC|Market"},
			{"title": "ETH upgrade live", "source": "cointelegraph", "published_on": %d,
			 "url": "https://example.com/b", "body": "Ethereum shipped.", "categories": "ETH"}
		]}`, published, published)
	}))
	defer srv.Close()

	c := cryptocompare.NewClient(srv.URL)
	items, err := c.LatestNews(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "BTC breaks 50k", items[0].Title)
	assert.Equal(t, "coindesk", items[0].Source)
	assert.Equal(t, "35m ago", items[0].PublishedAt)
	assert.Equal(t, "Bitcoin rallied.", items[0].BodySnippet)
}

func TestLatestNews_Limit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Data": [
			{"title": "one", "published_on": 1700000000},
			{"title": "two", "published_on": 1700000000},
			{"title": "three", "published_on": 1700000000}
		]}`)
	}))
	defer srv.Close()

	c := cryptocompare.NewClient(srv.URL)
	items, err := c.LatestNews(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestLatestNews_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := cryptocompare.NewClient(srv.URL)
	_, err := c.LatestNews(context.Background(), 5)
	assert.Error(t, err)
}
