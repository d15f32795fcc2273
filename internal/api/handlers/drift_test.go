package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/driftboard/driftboard/internal/api/dto"
	"github.com/driftboard/driftboard/internal/api/middleware"
	"github.com/driftboard/driftboard/internal/domain/drift"
	"github.com/driftboard/driftboard/internal/pkg/logger"
	"github.com/driftboard/driftboard/internal/pkg/validator"
	"github.com/driftboard/driftboard/internal/services"
	"github.com/driftboard/driftboard/internal/testutil"
)

func newDriftHandler() (*DriftHandler, drift.Service) {
	repo := testutil.NewMockDriftRepository()
	alertRepo := testutil.NewMockAlertRepository()
	auditRepo := testutil.NewMockAuditRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	service := services.NewDriftService(
		repo,
		services.NewAlertService(alertRepo, log),
		services.NewAuditService(auditRepo, log),
		testutil.NewMockSink(),
		time.Hour,
		log,
	)
	return NewDriftHandler(service, log, validator.New()), service
}

func createRequestBody(resourceID string) dto.CreateDriftRequest {
	return dto.CreateDriftRequest{
		ResourceID:    resourceID,
		ResourceType:  "EC2",
		Region:        "us-east-1",
		ExpectedState: drift.StateDoc{"instance_type": "t3.micro"},
		ActualState:   drift.StateDoc{"instance_type": "t3.large"},
		Severity:      "warning",
		DetectedBy:    "api",
	}
}

func withActor(req *http.Request, actorID string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.ActorIDKey, actorID))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func seedDrift(t *testing.T, service drift.Service, resourceID string) *drift.Drift {
	t.Helper()
	d, err := service.Create(context.Background(), drift.CreateInput{
		ResourceID:    resourceID,
		ResourceType:  drift.ResourceEC2,
		Region:        "us-east-1",
		ExpectedState: drift.StateDoc{"instance_type": "t3.micro"},
		ActualState:   drift.StateDoc{"instance_type": "t3.large"},
		Severity:      drift.SeverityWarning,
		DetectedBy:    drift.DetectedByScheduler,
	}, "scanner")
	if err != nil {
		t.Fatalf("failed to seed drift: %v", err)
	}
	return d
}

func TestDriftHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		rawBody        string
		expectedStatus int
	}{
		{
			name:           "create valid drift",
			body:           createRequestBody("i-0new"),
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed body",
			rawBody:        "{not json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown severity",
			body: func() dto.CreateDriftRequest {
				r := createRequestBody("i-0bad")
				r.Severity = "catastrophic"
				return r
			}(),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing resource id",
			body: func() dto.CreateDriftRequest {
				r := createRequestBody("")
				return r
			}(),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "identical states",
			body: dto.CreateDriftRequest{
				ResourceID:    "i-0same",
				ResourceType:  "EC2",
				Region:        "us-east-1",
				ExpectedState: drift.StateDoc{"instance_type": "t3.micro"},
				ActualState:   drift.StateDoc{"instance_type": "t3.micro"},
				Severity:      "warning",
				DetectedBy:    "api",
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newDriftHandler()

			var body []byte
			if tt.rawBody != "" {
				body = []byte(tt.rawBody)
			} else {
				body, _ = json.Marshal(tt.body)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/drifts", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			req = withActor(req, "scanner")
			rr := httptest.NewRecorder()

			handler.Create(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v, body: %s", status, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestDriftHandler_Create_Duplicate(t *testing.T) {
	handler, service := newDriftHandler()
	seedDrift(t, service, "i-0dup")

	body, _ := json.Marshal(createRequestBody("i-0dup"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drifts", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req = withActor(req, "scanner")
	rr := httptest.NewRecorder()

	handler.Create(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("handler returned wrong status code: got %v want %v, body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}

	var response struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string                 `json:"code"`
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Success {
		t.Error("expected success=false on conflict")
	}
	if response.Error.Code != "CONFLICT" {
		t.Errorf("expected CONFLICT code, got %s", response.Error.Code)
	}
	if _, ok := response.Error.Details["existing_drift_id"]; !ok {
		t.Errorf("expected existing_drift_id in details, got %v", response.Error.Details)
	}
}

func TestDriftHandler_Get(t *testing.T) {
	handler, service := newDriftHandler()
	d := seedDrift(t, service, "i-0get")

	tests := []struct {
		name           string
		driftID        string
		expectedStatus int
	}{
		{
			name:           "get existing drift",
			driftID:        d.ID,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "get non-existing drift",
			driftID:        "missing",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/drifts/"+tt.driftID, nil)
			req = withURLParam(req, "id", tt.driftID)
			rr := httptest.NewRecorder()

			handler.Get(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", status, tt.expectedStatus)
			}

			if rr.Code == http.StatusOK {
				var response struct {
					Data dto.DriftWithMetaDTO `json:"data"`
				}
				if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if !response.Data.CanApprove || !response.Data.CanReject {
					t.Error("expected an open drift to be approvable and rejectable")
				}
			}
		})
	}
}

func TestDriftHandler_List(t *testing.T) {
	handler, service := newDriftHandler()
	seedDrift(t, service, "i-0list")

	tests := []struct {
		name           string
		queryParams    string
		expectedStatus int
	}{
		{
			name:           "list all drifts",
			queryParams:    "",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "list with filters",
			queryParams:    "?status=detected&severity=warning&page=1&limit=10",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown status filter",
			queryParams:    "?status=pending",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown sort field",
			queryParams:    "?sort=resource_id",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid page",
			queryParams:    "?page=zero",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/drifts"+tt.queryParams, nil)
			rr := httptest.NewRecorder()

			handler.List(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v, body: %s", status, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestDriftHandler_Approve(t *testing.T) {
	handler, service := newDriftHandler()
	d := seedDrift(t, service, "i-0approve")

	tests := []struct {
		name           string
		driftID        string
		reason         string
		expectedStatus int
	}{
		{
			name:           "reason too short",
			driftID:        d.ID,
			reason:         "ok",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "approve open drift",
			driftID:        d.ID,
			reason:         "remediation scheduled for friday",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "approve already approved drift",
			driftID:        d.ID,
			reason:         "remediation scheduled for friday",
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "approve unknown drift",
			driftID:        "missing",
			reason:         "remediation scheduled for friday",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(dto.DecisionRequest{Reason: tt.reason})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/drifts/"+tt.driftID+"/approve", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			req = withActor(req, "alice")
			req = withURLParam(req, "id", tt.driftID)
			rr := httptest.NewRecorder()

			handler.Approve(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v, body: %s", status, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestDriftHandler_Triage(t *testing.T) {
	handler, service := newDriftHandler()
	d := seedDrift(t, service, "i-0triage")

	post := func(id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/drifts/"+id+"/triage", nil)
		req = withActor(req, "alice")
		req = withURLParam(req, "id", id)
		rr := httptest.NewRecorder()
		handler.Triage(rr, req)
		return rr
	}

	if rr := post(d.ID); rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v, body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	// Triage is not repeatable.
	if rr := post(d.ID); rr.Code != http.StatusConflict {
		t.Errorf("handler returned wrong status code on second triage: got %v want %v", rr.Code, http.StatusConflict)
	}
}

func TestDriftHandler_Resolve(t *testing.T) {
	handler, service := newDriftHandler()
	d := seedDrift(t, service, "i-0resolve")

	resolve := func(id, how string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(dto.ResolveRequest{How: how})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/drifts/"+id+"/resolve", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req = withActor(req, "alice")
		req = withURLParam(req, "id", id)
		rr := httptest.NewRecorder()
		handler.Resolve(rr, req)
		return rr
	}

	// No decision yet.
	if rr := resolve(d.ID, "remediated"); rr.Code != http.StatusConflict {
		t.Errorf("handler returned wrong status code for undecided drift: got %v want %v", rr.Code, http.StatusConflict)
	}

	if _, err := service.Approve(context.Background(), d.ID, "remediation scheduled for friday", "alice"); err != nil {
		t.Fatalf("failed to approve drift: %v", err)
	}

	// Unknown outcome.
	if rr := resolve(d.ID, "ignored"); rr.Code != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code for unknown outcome: got %v want %v", rr.Code, http.StatusBadRequest)
	}

	if rr := resolve(d.ID, "remediated"); rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v, body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestDriftHandler_Summary(t *testing.T) {
	handler, service := newDriftHandler()
	seedDrift(t, service, "i-0sum")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drifts/summary", nil)
	rr := httptest.NewRecorder()

	handler.Summary(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}

	var response struct {
		Data struct {
			ByStatus map[string]int `json:"by_status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.ByStatus["detected"] != 1 {
		t.Errorf("expected 1 detected drift in summary, got %v", response.Data.ByStatus)
	}
}

func TestDriftHandler_Create_ActorHeaders(t *testing.T) {
	driftRepo := testutil.NewMockDriftRepository()
	alertRepo := testutil.NewMockAlertRepository()
	auditRepo := testutil.NewMockAuditRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	service := services.NewDriftService(
		driftRepo,
		services.NewAlertService(alertRepo, log),
		services.NewAuditService(auditRepo, log),
		testutil.NewMockSink(),
		time.Hour,
		log,
	)
	handler := NewDriftHandler(service, log, validator.New())

	wrapped := middleware.Actor()(http.HandlerFunc(handler.Create))

	body, _ := json.Marshal(createRequestBody("i-0actor"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drifts", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ActorIDHeader, "alice")
	req.Header.Set(middleware.ActorEmailHeader, "alice@example.com")
	rr := httptest.NewRecorder()

	wrapped.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("handler returned wrong status code: got %v want %v, body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if len(auditRepo.Logs) != 1 {
		t.Fatalf("audit log count = %d, want 1", len(auditRepo.Logs))
	}
	entry := auditRepo.Logs[0]
	if entry.ActorID != "alice" {
		t.Errorf("audit actor_id = %q, want alice", entry.ActorID)
	}
	if entry.ActorEmail != "alice@example.com" {
		t.Errorf("audit actor_email = %q, want alice@example.com", entry.ActorEmail)
	}
}
