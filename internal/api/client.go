// Package api talks to a remote POI service over HTTP. The overlay can
// pull named annotation sets from it instead of (or in addition to) the
// local catalog.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skylens/aroverlay/pkg/poi"
)

// Client handles communication with the POI service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the POI service is reachable.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/healthcheck")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// annotationPayload is the wire shape of one annotation.
type annotationPayload struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Altitude  float64           `json:"altitude,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// FetchAnnotations pulls the named annotation set from the POI service.
// Entries with invalid coordinates are dropped silently, matching the
// catalog's ingestion policy.
func (c *Client) FetchAnnotations(ctx context.Context, set string) ([]poi.Annotation, error) {
	endpoint := c.baseURL + "/api/v1/pois"
	if set != "" {
		endpoint += "?set=" + url.QueryEscape(set)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	var payload []annotationPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode annotation set: %w", err)
	}

	annotations := make([]poi.Annotation, 0, len(payload))
	for _, p := range payload {
		loc := poi.Location{Latitude: p.Latitude, Longitude: p.Longitude, Altitude: p.Altitude}
		if !loc.Valid() {
			continue
		}
		annotations = append(annotations, poi.Annotation{
			ID:       p.ID,
			Title:    p.Title,
			Location: loc,
			Tags:     p.Tags,
		})
	}
	return annotations, nil
}

// PushAnnotations uploads an annotation set to the POI service.
func (c *Client) PushAnnotations(ctx context.Context, set string, annotations []poi.Annotation) error {
	payload := make([]annotationPayload, 0, len(annotations))
	for _, a := range annotations {
		payload = append(payload, annotationPayload{
			ID:        a.ID,
			Title:     a.Title,
			Latitude:  a.Location.Latitude,
			Longitude: a.Location.Longitude,
			Altitude:  a.Location.Altitude,
			Tags:      a.Tags,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode annotation set: %w", err)
	}

	endpoint := c.baseURL + "/api/v1/pois"
	if set != "" {
		endpoint += "?set=" + url.QueryEscape(set)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push returned status %d", resp.StatusCode)
	}
	return nil
}
