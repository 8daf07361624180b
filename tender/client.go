package tender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public procurement portal data endpoint.
const DefaultBaseURL = "https://www.contrataciones.gov.py/datos"

// DefaultTimeout bounds every API request.
const DefaultTimeout = 60 * time.Second

// tenderPath is appended to the base URL, followed by the escaped tender ID.
const tenderPath = "/api/v3/doc/tender/"

// Client queries the tender API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a Client. An empty baseURL selects DefaultBaseURL and a
// nil httpClient gets one with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// tenderEnvelope mirrors {tender: {documents: [...], numberOfTenderers: n}}.
// Pointers distinguish an absent field from an empty one.
type tenderEnvelope struct {
	Tender *struct {
		Documents         []DocumentRef   `json:"documents"`
		NumberOfTenderers json.RawMessage `json:"numberOfTenderers"`
	} `json:"tender"`
}

// ListDocuments returns the documents attached to a tender.
func (c *Client) ListDocuments(ctx context.Context, tenderID string) ([]DocumentRef, error) {
	const op = "list documents"
	id, err := NormalizeID(tenderID)
	if err != nil {
		return nil, err
	}

	env, err := c.fetch(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if env.Tender == nil || env.Tender.Documents == nil {
		return nil, Errorf(ErrAPI, op, "invalid API response for tender %s: missing tender.documents", id)
	}
	if len(env.Tender.Documents) == 0 {
		return nil, Errorf(ErrDocumentNotFound, op, "no documents found for tender %s", id)
	}

	c.log.Debug("documents listed", zap.String("tender_id", id), zap.Int("count", len(env.Tender.Documents)))
	return env.Tender.Documents, nil
}

// NumberOfTenderers returns the tender's numberOfTenderers field. Numeric
// strings are accepted.
func (c *Client) NumberOfTenderers(ctx context.Context, tenderID string) (int, error) {
	const op = "number of tenderers"
	id, err := NormalizeID(tenderID)
	if err != nil {
		return 0, err
	}

	env, err := c.fetch(ctx, op, id)
	if err != nil {
		return 0, err
	}
	if env.Tender == nil || len(env.Tender.NumberOfTenderers) == 0 {
		return 0, Errorf(ErrAPI, op, "invalid API response for tender %s: missing tender.numberOfTenderers", id)
	}
	n, err := parseIntLike(env.Tender.NumberOfTenderers)
	if err != nil {
		return 0, Errorf(ErrAPI, op, "tender %s: numberOfTenderers: %w", id, err)
	}
	return n, nil
}

// fetch performs GET <base>/api/v3/doc/tender/<id> and decodes the envelope.
func (c *Client) fetch(ctx context.Context, op, id string) (*tenderEnvelope, error) {
	endpoint := c.baseURL + tenderPath + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, Errorf(ErrAPI, op, "build request for tender %s: %w", id, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, Errorf(ErrAPI, op, "query API for tender %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, Errorf(ErrAPI, op, "query API for tender %s: HTTP %d", id, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Errorf(ErrAPI, op, "read API response for tender %s: %w", id, err)
	}

	var env tenderEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, Errorf(ErrAPI, op, "parse JSON response for tender %s: %w", id, err)
	}
	return &env, nil
}

// parseIntLike decodes 3, 3.0 or "3".
func parseIntLike(raw json.RawMessage) (int, error) {
	s := string(bytes.TrimSpace(raw))
	if s == "null" {
		return 0, fmt.Errorf("value is null")
	}
	s = strings.Trim(s, `"`)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return int(f), nil
}
