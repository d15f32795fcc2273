package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// AlertService handles alert API calls
type AlertService struct {
	client *Client
}

// AlertListOptions contains options for listing alerts
type AlertListOptions struct {
	ListOptions
	DriftID  string
	Type     string
	Severity string
	Read     *bool
}

// List retrieves a page of alerts
func (s *AlertService) List(ctx context.Context, opts *AlertListOptions) (*Page[Alert], error) {
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
		if opts.Type != "" {
			query.Set("type", opts.Type)
		}
		if opts.Severity != "" {
			query.Set("severity", opts.Severity)
		}
		if opts.Read != nil {
			query.Set("read", strconv.FormatBool(*opts.Read))
		}
	}

	path := "/api/v1/alerts"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Page[Alert]
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UnreadCount retrieves the number of unread alerts
func (s *AlertService) UnreadCount(ctx context.Context) (int64, error) {
	var resp struct {
		Count int64 `json:"count"`
	}
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/alerts/unread-count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// MarkRead marks a single alert as read
func (s *AlertService) MarkRead(ctx context.Context, id string) (*Alert, error) {
	var a Alert
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/alerts/"+url.PathEscape(id)+"/read", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
