// Package adlibrary discovers real competitor ads for a keyword. Primary
// source is the Meta Ad Library; when it is not configured or returns
// nothing we fall back to a Google Custom Search image lookup so the ad
// generator always has raw material to work from.
package adlibrary

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"genome-ai/internal/logging"

	"go.uber.org/zap"
)

const (
	metaBaseURL   = "https://graph.facebook.com/v21.0"
	googleBaseURL = "https://www.googleapis.com/customsearch/v1"

	// maxImageBytes caps the images we inline as data URIs
	maxImageBytes = 5 << 20
)

// DiscoveredAd is one competitor ad found in the wild
type DiscoveredAd struct {
	Advertiser string `json:"advertiser"`
	Headline   string `json:"headline"`
	BodyText   string `json:"bodyText"`
	ImageURL   string `json:"imageUrl,omitempty"`
	Source     string `json:"source"`
}

// Config holds the credentials for both ad discovery sources
type Config struct {
	MetaAccessToken      string
	GoogleAPIKey         string
	GoogleSearchEngineID string
}

// Client searches public ad archives
type Client struct {
	config        Config
	httpClient    *http.Client
	metaBaseURL   string
	googleBaseURL string
}

// NewClient creates an ad library client
func NewClient(config Config) *Client {
	return &Client{
		config:        config,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		metaBaseURL:   metaBaseURL,
		googleBaseURL: googleBaseURL,
	}
}

// Search finds up to limit ads matching the keyword. Meta results win;
// Google image results pad out the rest.
func (c *Client) Search(ctx context.Context, keyword string, limit int) ([]DiscoveredAd, error) {
	if limit <= 0 {
		limit = 10
	}

	var ads []DiscoveredAd

	if c.config.MetaAccessToken != "" {
		metaAds, err := c.searchMeta(ctx, keyword, limit)
		if err != nil {
			logging.L().Warn("Meta Ad Library search failed, falling back",
				zap.String("keyword", keyword), zap.Error(err))
		} else {
			ads = metaAds
		}
	}

	if len(ads) < limit && c.config.GoogleAPIKey != "" && c.config.GoogleSearchEngineID != "" {
		googleAds, err := c.searchGoogleImages(ctx, keyword, limit-len(ads))
		if err != nil {
			logging.L().Warn("Google image search failed",
				zap.String("keyword", keyword), zap.Error(err))
		} else {
			ads = append(ads, googleAds...)
		}
	}

	if len(ads) == 0 {
		return nil, fmt.Errorf("no ads discovered for keyword %q", keyword)
	}
	if len(ads) > limit {
		ads = ads[:limit]
	}
	return ads, nil
}

type metaAdsArchiveResponse struct {
	Data []struct {
		PageName   string   `json:"page_name"`
		AdCreative []string `json:"ad_creative_bodies"`
		LinkTitles []string `json:"ad_creative_link_titles"`
		Snapshot   string   `json:"ad_snapshot_url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (c *Client) searchMeta(ctx context.Context, keyword string, limit int) ([]DiscoveredAd, error) {
	params := url.Values{}
	params.Set("search_terms", keyword)
	params.Set("ad_type", "ALL")
	params.Set("ad_reached_countries", `["US"]`)
	params.Set("ad_active_status", "ACTIVE")
	params.Set("fields", "page_name,ad_creative_bodies,ad_creative_link_titles,ad_snapshot_url")
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("access_token", c.config.MetaAccessToken)

	req, err := http.NewRequestWithContext(ctx, "GET", c.metaBaseURL+"/ads_archive?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("meta ad library request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var archive metaAdsArchiveResponse
	if err := json.Unmarshal(body, &archive); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if archive.Error != nil {
		return nil, fmt.Errorf("meta ad library error (code %d): %s", archive.Error.Code, archive.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("meta ad library returned status %d", resp.StatusCode)
	}

	ads := make([]DiscoveredAd, 0, len(archive.Data))
	for _, item := range archive.Data {
		ad := DiscoveredAd{
			Advertiser: item.PageName,
			Source:     "meta_ad_library",
		}
		if len(item.LinkTitles) > 0 {
			ad.Headline = item.LinkTitles[0]
		}
		if len(item.AdCreative) > 0 {
			ad.BodyText = item.AdCreative[0]
		}
		ads = append(ads, ad)
	}
	return ads, nil
}

type googleSearchResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Snippet     string `json:"snippet"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}

func (c *Client) searchGoogleImages(ctx context.Context, keyword string, limit int) ([]DiscoveredAd, error) {
	if limit > 10 {
		limit = 10 // Custom Search API page cap
	}

	params := url.Values{}
	params.Set("key", c.config.GoogleAPIKey)
	params.Set("cx", c.config.GoogleSearchEngineID)
	params.Set("q", keyword+" advertisement")
	params.Set("searchType", "image")
	params.Set("num", fmt.Sprintf("%d", limit))

	req, err := http.NewRequestWithContext(ctx, "GET", c.googleBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("google search returned status %d: %s", resp.StatusCode, string(body))
	}

	var result googleSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	ads := make([]DiscoveredAd, 0, len(result.Items))
	for _, item := range result.Items {
		ads = append(ads, DiscoveredAd{
			Advertiser: item.DisplayLink,
			Headline:   item.Title,
			BodyText:   item.Snippet,
			ImageURL:   item.Link,
			Source:     "google_image_search",
		})
	}
	return ads, nil
}

// FetchImageDataURI downloads an image and encodes it as a base64 data URI
func (c *Client) FetchImageDataURI(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return "", fmt.Errorf("image exceeds %d byte limit", maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}
