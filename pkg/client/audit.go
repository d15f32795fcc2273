package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// AuditService handles audit log API calls
type AuditService struct {
	client *Client
}

// AuditListOptions contains options for listing audit logs
type AuditListOptions struct {
	ListOptions
	DriftID string
	Action  string
	ActorID string
}

// List retrieves a page of audit log entries
func (s *AuditService) List(ctx context.Context, opts *AuditListOptions) (*Page[AuditLog], error) {
	query := url.Values{}

	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.Limit > 0 {
			query.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.DriftID != "" {
			query.Set("drift_id", opts.DriftID)
		}
		if opts.Action != "" {
			query.Set("action", opts.Action)
		}
		if opts.ActorID != "" {
			query.Set("actor_id", opts.ActorID)
		}
	}

	path := "/api/v1/audit-logs"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Page[AuditLog]
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
