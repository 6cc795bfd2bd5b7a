package description

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pictor/internal/config"
	"pictor/internal/services"
)

// Record is the descriptive metadata held by the public description
// service for a published object.
type Record struct {
	URI   string
	Title string
	Dates string
}

// Client queries the public description API by derived identifier.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client from configuration.
func New(cfg config.Description) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, services.Wrap(services.ErrConfiguration, "description", "new", "base URL is not configured", nil)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{baseURL: base, http: &http.Client{Timeout: timeout}}, nil
}

// Lookup fetches the object record for a derived identifier.
func (c *Client) Lookup(ctx context.Context, derivedID string) (*Record, error) {
	derivedID = strings.TrimSpace(derivedID)
	if derivedID == "" {
		return nil, services.Wrap(services.ErrValidation, "description", "lookup", "derived identifier is empty", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/objects/"+derivedID, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "description", "lookup", "build request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "description", "lookup", derivedID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "description", "lookup",
			fmt.Sprintf("no object %q", derivedID), nil)
	default:
		return nil, services.Wrap(services.ErrExternalTool, "description", "lookup",
			fmt.Sprintf("object %q returned %s", derivedID, resp.Status), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "description", "lookup", derivedID, err)
	}

	var payload struct {
		URI   string `json:"uri"`
		Title string `json:"title"`
		Dates string `json:"dates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "description", "lookup", "decode object record", err)
	}
	if payload.URI == "" {
		return nil, services.Wrap(services.ErrValidation, "description", "lookup",
			fmt.Sprintf("object %q has no source uri", derivedID), nil)
	}

	return &Record{URI: payload.URI, Title: payload.Title, Dates: payload.Dates}, nil
}
