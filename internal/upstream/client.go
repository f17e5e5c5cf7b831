// internal/upstream/client.go
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"rental-portal/internal/common/errors"
	commonhttp "rental-portal/internal/common/http"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/models"
	"rental-portal/internal/wizard"
)

// IdempotencyHeader carries the draft id on submissions so the backend can
// drop a repeated delivery of the same draft.
const IdempotencyHeader = "Idempotency-Key"

// Client is the typed view of the backend API the portal uses directly.
// Everything else reaches the backend through the proxy route.
type Client struct {
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(httpClient *commonhttp.Client, log logger.Logger) *Client {
	return &Client{http: httpClient, logger: log}
}

// Login exchanges credentials for a bearer token and the user's identity.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	req, err := c.http.NewRequest(ctx, http.MethodPost, "/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out models.LoginResult
	if err := c.http.DoJSON(ctx, "login", req, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.NewUpstreamUnavailableError("login", fmt.Errorf("response carried no token"))
	}
	return &out, nil
}

func (c *Client) GetProperty(ctx context.Context, token, id string) (*models.Property, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewInvalidInputError("property id is required")
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/properties/"+url.PathEscape(id), token, nil)
	if err != nil {
		return nil, err
	}

	var out models.Property
	if err := c.http.DoJSON(ctx, "get_property", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggest returns search-as-you-type matches for query.
func (c *Client) Suggest(ctx context.Context, query string, limit int) ([]models.Suggestion, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	req, err := c.newRequest(ctx, http.MethodGet, "/properties/suggestions?"+q.Encode(), "", nil)
	if err != nil {
		return nil, err
	}

	out := []models.Suggestion{}
	if err := c.http.DoJSON(ctx, "suggest", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitForm posts an assembled wizard payload to path exactly once.
func (c *Client) SubmitForm(ctx context.Context, token, path, idempotencyKey string, payload *wizard.Payload) (*models.SubmissionReceipt, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, token, bytes.NewReader(payload.Body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", payload.ContentType)
	if idempotencyKey != "" {
		req.Header.Set(IdempotencyHeader, idempotencyKey)
	}

	var out models.SubmissionReceipt
	if err := c.http.DoJSON(ctx, "submit", req, &out); err != nil {
		c.logger.Warn("Backend refused submission", map[string]interface{}{
			"path":  path,
			"files": payload.FileFields,
			"error": err,
		})
		return nil, err
	}
	return &out, nil
}

// Fetch reads an arbitrary JSON resource for the dashboard pass-throughs.
func (c *Client) Fetch(ctx context.Context, token, path string, query url.Values) (json.RawMessage, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	var out json.RawMessage
	if err := c.http.DoJSON(ctx, "fetch", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body *bytes.Reader) (*http.Request, error) {
	var (
		req *http.Request
		err error
	)
	if body != nil {
		req, err = c.http.NewRequest(ctx, method, path, body)
	} else {
		req, err = c.http.NewRequest(ctx, method, path, nil)
	}
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}
