package healthsync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// DefaultBaseURL is the production VeloHub API
const DefaultBaseURL = "https://app.velohub.io/api/v1"

// Client is a VeloHub API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	pacer      *pacer
}

// NewClient creates a new VeloHub API client. An empty baseURL uses the
// production API.
func NewClient(tokenSource oauth2.TokenSource, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: oauth2.NewClient(context.Background(), tokenSource),
		pacer:      newPacer(),
	}
}

// GetWellness fetches daily wellness samples for [start, end] inclusive
// (YYYY-MM-DD).
func (c *Client) GetWellness(ctx context.Context, start, end string) ([]WellnessDay, error) {
	if err := c.pacer.wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("start", start)
	params.Set("end", end)

	resp, err := c.get(ctx, "/athlete/wellness", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var days []WellnessDay
	if err := json.NewDecoder(resp.Body).Decode(&days); err != nil {
		return nil, fmt.Errorf("decoding wellness days: %w", err)
	}
	return days, nil
}

// GetActivities fetches activities with pagination.
// Returns activities after 'after' timestamp, up to 'perPage' results.
func (c *Client) GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]Activity, error) {
	if err := c.pacer.wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	if !after.IsZero() {
		params.Set("after", strconv.FormatInt(after.Unix(), 10))
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	resp, err := c.get(ctx, "/athlete/activities", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var activities []Activity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decoding activities: %w", err)
	}
	return activities, nil
}

// GetAllActivities fetches all activities after a given time.
// It handles pagination automatically and respects rate limits.
func (c *Client) GetAllActivities(ctx context.Context, after time.Time, onProgress func(fetched int)) ([]Activity, error) {
	var allActivities []Activity
	page := 1
	perPage := 100

	for {
		activities, err := c.GetActivities(ctx, after, page, perPage)
		if err != nil {
			return allActivities, fmt.Errorf("fetching page %d: %w", page, err)
		}

		if len(activities) == 0 {
			break
		}

		allActivities = append(allActivities, activities...)

		if onProgress != nil {
			onProgress(len(allActivities))
		}

		if len(activities) < perPage {
			break // Last page
		}

		page++
	}

	return allActivities, nil
}

// QuotaRemaining reports the API quota left in the current window, or
// -1 before the first response has been seen.
func (c *Client) QuotaRemaining() int {
	return c.pacer.quotaRemaining()
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	// A 429 is retried once after the server's Retry-After pause,
	// which the pacer enforces on the second wait.
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		c.pacer.observe(resp.StatusCode, resp.Header)

		if resp.StatusCode == http.StatusTooManyRequests && attempt == 0 {
			resp.Body.Close()
			if err := c.pacer.wait(ctx); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
		}

		return resp, nil
	}
}
