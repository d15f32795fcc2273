package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DriftService handles drift lifecycle API calls
type DriftService struct {
	client *Client
}

// DriftListOptions contains options for listing drifts
type DriftListOptions struct {
	ListOptions
	Status       string
	Severity     string
	ResourceType string
	Region       string
	Search       string
}

// CreateDriftRequest is a detection event submitted to the API.
type CreateDriftRequest struct {
	ResourceID        string                 `json:"resource_id"`
	ResourceType      string                 `json:"resource_type"`
	Region            string                 `json:"region"`
	AccountID         string                 `json:"account_id,omitempty"`
	ExpectedState     map[string]interface{} `json:"expected_state"`
	ActualState       map[string]interface{} `json:"actual_state"`
	Severity          string                 `json:"severity"`
	CostImpactMonthly float64                `json:"cost_impact_monthly"`
	DetectedBy        string                 `json:"detected_by"`
}

type decisionRequest struct {
	Reason string `json:"reason"`
}

type resolveRequest struct {
	How string `json:"how"`
}

// Create registers a detected drift
func (s *DriftService) Create(ctx context.Context, req CreateDriftRequest) (*Drift, error) {
	var d Drift
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/drifts", req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// List retrieves a page of drifts
func (s *DriftService) List(ctx context.Context, opts *DriftListOptions) (*Page[Drift], error) {
	query := url.Values{}

	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.Limit > 0 {
			query.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Sort != "" {
			query.Set("sort", opts.Sort)
		}
		if opts.Order != "" {
			query.Set("order", opts.Order)
		}
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
		if opts.Severity != "" {
			query.Set("severity", opts.Severity)
		}
		if opts.ResourceType != "" {
			query.Set("resource_type", opts.ResourceType)
		}
		if opts.Region != "" {
			query.Set("region", opts.Region)
		}
		if opts.Search != "" {
			query.Set("search", opts.Search)
		}
	}

	path := "/api/v1/drifts"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Page[Drift]
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a single drift with derived metadata
func (s *DriftService) Get(ctx context.Context, id string) (*DriftWithMeta, error) {
	var d DriftWithMeta
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/drifts/"+url.PathEscape(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Triage moves a detected drift into triage
func (s *DriftService) Triage(ctx context.Context, id string) (*Drift, error) {
	return s.post(ctx, id, "triage", nil)
}

// Approve approves an open drift for remediation
func (s *DriftService) Approve(ctx context.Context, id, reason string) (*Drift, error) {
	return s.post(ctx, id, "approve", decisionRequest{Reason: reason})
}

// Reject rejects an open drift
func (s *DriftService) Reject(ctx context.Context, id, reason string) (*Drift, error) {
	return s.post(ctx, id, "reject", decisionRequest{Reason: reason})
}

// Resolve closes a decided drift. how must be one of remediated,
// accepted or false_positive.
func (s *DriftService) Resolve(ctx context.Context, id, how string) (*Drift, error) {
	return s.post(ctx, id, "resolve", resolveRequest{How: how})
}

// Summary retrieves aggregated drift counts
func (s *DriftService) Summary(ctx context.Context) (*DriftSummary, error) {
	var sum DriftSummary
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/drifts/summary", nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (s *DriftService) post(ctx context.Context, id, action string, body interface{}) (*Drift, error) {
	path := fmt.Sprintf("/api/v1/drifts/%s/%s", url.PathEscape(id), action)

	var d Drift
	if err := s.client.doRequest(ctx, http.MethodPost, path, body, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
