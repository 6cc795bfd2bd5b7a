package archivesspace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pictor/internal/config"
	"pictor/internal/services"
)

const sessionHeader = "X-ArchivesSpace-Session"

// Description is the descriptive metadata pulled from an archival
// object record.
type Description struct {
	URI   string
	Title string
	Dates string
}

// Client talks to the ArchivesSpace staff API. Sessions are established
// lazily and renewed once when the server reports them expired.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client

	mu      sync.Mutex
	session string
}

// New builds a client from configuration. The base URL and credentials
// are required.
func New(cfg config.ArchivesSpace) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, services.Wrap(services.ErrConfiguration, "archivesspace", "new", "base URL is not configured", nil)
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, services.Wrap(services.ErrConfiguration, "archivesspace", "new", "credentials are not configured", nil)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  base,
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

// GetObject fetches the archival object at uri and condenses it into a
// Description: title-cased display title and date expressions joined
// with commas.
func (c *Client) GetObject(ctx context.Context, uri string) (*Description, error) {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, "/") {
		return nil, services.Wrap(services.ErrValidation, "archivesspace", "get_object",
			fmt.Sprintf("%q is not an ArchivesSpace URI", uri), nil)
	}

	body, err := c.get(ctx, uri)
	if err != nil {
		return nil, err
	}

	var record struct {
		URI   string `json:"uri"`
		Title string `json:"title"`
		Dates []struct {
			Expression string `json:"expression"`
		} `json:"dates"`
	}
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "archivesspace", "get_object", "decode object record", err)
	}

	var expressions []string
	for _, d := range record.Dates {
		if e := strings.TrimSpace(d.Expression); e != "" {
			expressions = append(expressions, e)
		}
	}
	if record.URI == "" {
		record.URI = uri
	}

	return &Description{
		URI:   record.URI,
		Title: cases.Title(language.AmericanEnglish).String(record.Title),
		Dates: strings.Join(expressions, ", "),
	}, nil
}

// Ping verifies connectivity and credentials by forcing a login.
func (c *Client) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = ""
	return c.authenticate(ctx)
}

// get performs an authenticated GET, re-authenticating once if the
// session token is rejected.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.sessionToken(ctx, attempt > 0)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "archivesspace", "get", "build request", err)
		}
		req.Header.Set(sessionHeader, token)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "archivesspace", "get", path, err)
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, services.Wrap(services.ErrExternalTool, "archivesspace", "get", path, readErr)
			}
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, services.Wrap(services.ErrNotFound, "archivesspace", "get",
				fmt.Sprintf("no record at %s", path), nil)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusPreconditionFailed:
			// Session expired server-side; drop it and retry once.
			c.mu.Lock()
			c.session = ""
			c.mu.Unlock()
		default:
			return nil, services.Wrap(services.ErrExternalTool, "archivesspace", "get",
				fmt.Sprintf("%s returned %s", path, resp.Status), nil)
		}
	}
	return nil, services.Wrap(services.ErrExternalTool, "archivesspace", "get", "session rejected after re-authentication", nil)
}

func (c *Client) sessionToken(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if force {
		c.session = ""
	}
	if c.session == "" {
		if err := c.authenticate(ctx); err != nil {
			return "", err
		}
	}
	return c.session, nil
}

// authenticate posts credentials to the login endpoint. Callers must
// hold c.mu.
func (c *Client) authenticate(ctx context.Context) error {
	loginURL := fmt.Sprintf("%s/users/%s/login", c.baseURL, url.PathEscape(c.username))
	form := url.Values{"password": {c.password}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "archivesspace", "login", "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "archivesspace", "login", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternalTool, "archivesspace", "login",
			fmt.Sprintf("login returned %s", resp.Status), nil)
	}

	var payload struct {
		Session string `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return services.Wrap(services.ErrExternalTool, "archivesspace", "login", "decode login response", err)
	}
	if payload.Session == "" {
		return services.Wrap(services.ErrExternalTool, "archivesspace", "login", "login response has no session token", nil)
	}
	c.session = payload.Session
	return nil
}
