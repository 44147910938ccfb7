package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/OutletRadar/outlet-api/models"
	"github.com/OutletRadar/outlet-api/utils"
)

// UpstreamClient wraps the outlet backend's REST surface. Every method takes
// a context and returns an error on network failure or a non-2xx status;
// callers decide how to degrade.
type UpstreamClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewUpstreamClient builds a client for the given base URL.
func NewUpstreamClient(baseURL string, timeout time.Duration) *UpstreamClient {
	return &UpstreamClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *UpstreamClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	utils.LogUpstreamRequest(http.MethodGet, path, resp.StatusCode, time.Since(start).String())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, string(payload))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}

// GetAllOutlets fetches the full outlet snapshot.
func (c *UpstreamClient) GetAllOutlets(ctx context.Context) ([]models.Outlet, error) {
	var outlets []models.Outlet
	if err := c.getJSON(ctx, "/outlets", nil, &outlets); err != nil {
		return nil, err
	}
	return outlets, nil
}

// GetOutlet fetches a single outlet by id.
func (c *UpstreamClient) GetOutlet(ctx context.Context, id models.FlexID) (models.Outlet, error) {
	var outlet models.Outlet
	if err := c.getJSON(ctx, "/outlets/"+url.PathEscape(string(id)), nil, &outlet); err != nil {
		return models.Outlet{}, err
	}
	return outlet, nil
}

// GetOperatingHours fetches one outlet's weekly hours.
func (c *UpstreamClient) GetOperatingHours(ctx context.Context, id models.FlexID) ([]models.DayHours, error) {
	var hours []models.DayHours
	if err := c.getJSON(ctx, "/outlets/"+url.PathEscape(string(id))+"/operating-hours", nil, &hours); err != nil {
		return nil, err
	}
	return hours, nil
}

// SearchOutlets runs a server-side text search.
func (c *UpstreamClient) SearchOutlets(ctx context.Context, query string) ([]models.Outlet, error) {
	params := url.Values{}
	params.Set("query", query)

	var outlets []models.Outlet
	if err := c.getJSON(ctx, "/outlets/search", params, &outlets); err != nil {
		return nil, err
	}
	return outlets, nil
}

// GetNearbyOutlets runs a server-side proximity search.
func (c *UpstreamClient) GetNearbyOutlets(ctx context.Context, latitude, longitude, radiusKm float64) ([]models.Outlet, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(radiusKm, 'f', -1, 64))

	var outlets []models.Outlet
	if err := c.getJSON(ctx, "/outlets/nearby", params, &outlets); err != nil {
		return nil, err
	}
	return outlets, nil
}

// QueryChatbot submits a conversational query. A non-empty sessionID threads
// the query into an existing server-side conversation.
func (c *UpstreamClient) QueryChatbot(ctx context.Context, query string, sessionID string) (models.ChatbotResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	if sessionID != "" {
		params.Set("session_id", sessionID)
	}

	var response models.ChatbotResponse
	if err := c.getJSON(ctx, "/chatbot/query", params, &response); err != nil {
		return models.ChatbotResponse{}, err
	}
	return response, nil
}

// DeleteChatSession discards server-side conversation state.
func (c *UpstreamClient) DeleteChatSession(ctx context.Context, sessionID string) error {
	endpoint := c.baseURL + "/chatbot/session/" + url.PathEscape(sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, string(payload))
	}
	return nil
}
