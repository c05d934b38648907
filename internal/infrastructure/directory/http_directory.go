package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/edufin/backend/internal/domain/party"
	"github.com/edufin/backend/internal/domain/shared"
)

// maxResponseSize is the maximum allowed response size from the directory (1MB)
const maxResponseSize = 1 * 1024 * 1024

// ErrDirectoryUnavailable indicates the directory service answered with a
// non-2xx status that is not a plain not-found.
var ErrDirectoryUnavailable = errors.New("directory: service unavailable")

// Config holds the connection settings for the people-directory service
type Config struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("directory: base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("directory: invalid base URL: %w", err)
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}

// HTTPDirectory implements PersonDirectory against the school platform's
// people-directory REST API. The ledger only calls it when charging a person
// it has not materialized yet, so call volume is low and uncached.
type HTTPDirectory struct {
	config     *Config
	httpClient *http.Client
}

// NewHTTPDirectory creates a new directory client
func NewHTTPDirectory(config *Config) (*HTTPDirectory, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &HTTPDirectory{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// personPayload is the wire shape of one directory person record
type personPayload struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	DocumentType string `json:"document_type"`
	DocumentID   string `json:"document_id"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
}

// peopleListPayload is the wire shape of a roster query response
type peopleListPayload struct {
	People []struct {
		ID string `json:"id"`
	} `json:"people"`
}

// ResolvePerson returns the person behind an external directory id
func (d *HTTPDirectory) ResolvePerson(ctx context.Context, tenantID string, externalID string) (*party.Person, error) {
	endpoint := fmt.Sprintf("%s/api/v1/institutions/%s/people/%s",
		strings.TrimRight(d.config.BaseURL, "/"),
		url.PathEscape(tenantID), url.PathEscape(externalID))

	body, status, err := d.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, shared.ErrNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrDirectoryUnavailable, status)
	}

	var payload personPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("directory: failed to decode person: %w", err)
	}

	return &party.Person{
		Name:         payload.FullName,
		DocumentType: party.DocumentType(payload.DocumentType),
		DocumentID:   payload.DocumentID,
		Email:        payload.Email,
		Phone:        payload.Phone,
	}, nil
}

// FindByGrade returns the external ids of all people enrolled in a grade
func (d *HTTPDirectory) FindByGrade(ctx context.Context, tenantID string, grade string) ([]string, error) {
	return d.listPeople(ctx, tenantID, url.Values{"grade": {grade}})
}

// FindByGroup returns the external ids of all people in a group
func (d *HTTPDirectory) FindByGroup(ctx context.Context, tenantID string, group string) ([]string, error) {
	return d.listPeople(ctx, tenantID, url.Values{"group": {group}})
}

func (d *HTTPDirectory) listPeople(ctx context.Context, tenantID string, query url.Values) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/institutions/%s/people?%s",
		strings.TrimRight(d.config.BaseURL, "/"),
		url.PathEscape(tenantID), query.Encode())

	body, status, err := d.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrDirectoryUnavailable, status)
	}

	var payload peopleListPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("directory: failed to decode roster: %w", err)
	}

	ids := make([]string, 0, len(payload.People))
	for _, p := range payload.People {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (d *HTTPDirectory) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("directory: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if d.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.config.APIKey)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("directory: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("directory: failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// Ensure HTTPDirectory implements PersonDirectory
var _ party.PersonDirectory = (*HTTPDirectory)(nil)
