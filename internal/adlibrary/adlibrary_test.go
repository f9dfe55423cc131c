package adlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchMeta(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ads_archive", r.URL.Path)
		assert.Equal(t, "coffee subscription", r.URL.Query().Get("search_terms"))
		assert.Equal(t, "test-token", r.URL.Query().Get("access_token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [
			{"page_name": "Bean Box", "ad_creative_bodies": ["Fresh roasts monthly"], "ad_creative_link_titles": ["Try Bean Box"]},
			{"page_name": "Atlas Coffee", "ad_creative_bodies": ["Coffee from around the world"]}
		]}`))
	}))
	defer server.Close()

	client := NewClient(Config{MetaAccessToken: "test-token"})
	client.metaBaseURL = server.URL

	ads, err := client.Search(context.Background(), "coffee subscription", 10)
	require.NoError(t, err)
	require.Len(t, ads, 2)
	assert.Equal(t, "Bean Box", ads[0].Advertiser)
	assert.Equal(t, "Try Bean Box", ads[0].Headline)
	assert.Equal(t, "Fresh roasts monthly", ads[0].BodyText)
	assert.Equal(t, "meta_ad_library", ads[0].Source)
	assert.Empty(t, ads[1].Headline)
}

func TestSearchMetaErrorFallsBackToGoogle(t *testing.T) {
	metaServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "Invalid OAuth access token", "code": 190}}`))
	}))
	defer metaServer.Close()

	googleServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image", r.URL.Query().Get("searchType"))
		assert.True(t, strings.Contains(r.URL.Query().Get("q"), "advertisement"))
		w.Write([]byte(`{"items": [{"title": "Coffee Ad", "link": "https://img.example/ad.jpg", "snippet": "Best coffee", "displayLink": "example.com"}]}`))
	}))
	defer googleServer.Close()

	client := NewClient(Config{
		MetaAccessToken:      "bad-token",
		GoogleAPIKey:         "g-key",
		GoogleSearchEngineID: "cx-id",
	})
	client.metaBaseURL = metaServer.URL
	client.googleBaseURL = googleServer.URL

	ads, err := client.Search(context.Background(), "coffee", 5)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "google_image_search", ads[0].Source)
	assert.Equal(t, "https://img.example/ad.jpg", ads[0].ImageURL)
}

func TestSearchNothingConfigured(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Search(context.Background(), "anything", 5)
	assert.Error(t, err)
}

func TestSearchRespectsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [
			{"page_name": "A"}, {"page_name": "B"}, {"page_name": "C"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(Config{MetaAccessToken: "t"})
	client.metaBaseURL = server.URL

	ads, err := client.Search(context.Background(), "x", 2)
	require.NoError(t, err)
	assert.Len(t, ads, 2)
}

func TestFetchImageDataURI(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4E, 0x47}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	client := NewClient(Config{})
	uri, err := client.FetchImageDataURI(context.Background(), server.URL+"/ad.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}

func TestFetchImageDataURINotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{})
	_, err := client.FetchImageDataURI(context.Background(), server.URL+"/missing.png")
	assert.Error(t, err)
}
