package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sharonlnl728/content-audit-platform/internal/http/middleware"
	"github.com/sharonlnl728/content-audit-platform/internal/model"
	"github.com/sharonlnl728/content-audit-platform/internal/service"
	serviceMocks "github.com/sharonlnl728/content-audit-platform/internal/service/mocks"
)

var alice = model.Identity{ID: 1, Username: "alice"}

// withCaller stands in for the identity middleware.
func withCaller(id model.Identity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.IdentityLocalKey, id)
		return c.Next()
	}
}

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("redis down") }

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})

	t.Run("extra dependency down", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)
		app := fiber.New()
		app.Get("/health", HealthCheck(db, failingPinger{}))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuditText(t *testing.T) {
	tests := []struct {
		name       string
		caller     *model.Identity
		body       string
		setupMock  func(m *serviceMocks.MockAuditService)
		wantStatus int
		wantCode   string
	}{
		{
			name:   "success",
			caller: &alice,
			body:   `{"content":"hello","template_config":{"strict":true},"force_refresh":true}`,
			setupMock: func(m *serviceMocks.MockAuditService) {
				m.On("AuditText", mock.Anything, alice, mock.MatchedBy(func(r service.TextAuditRequest) bool {
					return r.Content == "hello" && r.ForceRefresh && r.TemplateConfig["strict"] == true
				})).Return(&model.AuditResult{ContentHash: "h", Status: model.StatusPass, Categories: []string{}}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed body",
			caller:     &alice,
			body:       `{"content":`,
			setupMock:  func(m *serviceMocks.MockAuditService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_BODY",
		},
		{
			name:       "anonymous caller",
			body:       `{"content":"hello"}`,
			setupMock:  func(m *serviceMocks.MockAuditService) {},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_IDENTITY",
		},
		{
			name:       "anonymous caller with malformed body",
			body:       `{"content":`,
			setupMock:  func(m *serviceMocks.MockAuditService) {},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_IDENTITY",
		},
		{
			name:   "empty content",
			caller: &alice,
			body:   `{"content":""}`,
			setupMock: func(m *serviceMocks.MockAuditService) {
				m.On("AuditText", mock.Anything, alice, mock.Anything).
					Return(nil, fmt.Errorf("%w: content is required", service.ErrInvalidInput)).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:   "scorer down",
			caller: &alice,
			body:   `{"content":"hello"}`,
			setupMock: func(m *serviceMocks.MockAuditService) {
				m.On("AuditText", mock.Anything, alice, mock.Anything).
					Return(nil, fmt.Errorf("%w: connection refused", service.ErrUpstream)).Once()
			},
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_FAILURE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockAuditService)
			tt.setupMock(mockSvc)

			app := fiber.New()
			if tt.caller != nil {
				app.Use(withCaller(*tt.caller))
			}
			app.Post("/audit/text", AuditText(mockSvc))

			req := httptest.NewRequest(http.MethodPost, "/audit/text", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, _ := app.Test(req)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp).Error.Code)
			} else {
				var res model.AuditResult
				json.NewDecoder(resp.Body).Decode(&res)
				assert.Equal(t, model.StatusPass, res.Status)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestAuditImage(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuditService)
	app := fiber.New()
	app.Use(withCaller(alice))
	app.Post("/audit/image", AuditImage(mockSvc))

	t.Run("success", func(t *testing.T) {
		want := service.ImageAuditRequest{ImageURL: "https://img.example/cat.png"}
		mockSvc.On("AuditImage", mock.Anything, alice, want).
			Return(&model.AuditResult{ContentType: model.ContentImage, Status: model.StatusReview}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/audit/image", map[string]string{"imageUrl": want.ImageURL}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var res model.AuditResult
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, model.StatusReview, res.Status)
		mockSvc.AssertExpectations(t)
	})

	t.Run("internal error is not leaked", func(t *testing.T) {
		mockSvc.On("AuditImage", mock.Anything, alice, mock.Anything).
			Return(nil, errors.New("pq: password authentication failed")).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/audit/image", map[string]string{"imageBase64": "aGk="}))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
		assert.NotContains(t, body.Error.Message, "password")
		mockSvc.AssertExpectations(t)
	})
}

func TestAuditBatch(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuditService)
	app := fiber.New()
	app.Use(withCaller(alice))
	app.Post("/audit/batch", AuditBatch(mockSvc))

	t.Run("results in input order", func(t *testing.T) {
		studyID, recordID := int64(3), int64(9)
		mockSvc.On("AuditBatch", mock.Anything, alice, mock.MatchedBy(func(items []service.BatchItem) bool {
			return len(items) == 2 &&
				items[0].Type == "TEXT" && items[0].StudyID == nil &&
				items[1].Type == "VIDEO" && *items[1].StudyID == studyID && *items[1].RecordID == recordID
		})).Return([]model.AuditResult{
			{Status: model.StatusPass},
			model.ErrorResult("Audit failed: unsupported type"),
		}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/audit/batch", map[string]any{
			"items": []map[string]any{
				{"type": "TEXT", "content": "a"},
				{"type": "VIDEO", "content": "b", "studyId": studyID, "recordId": recordID},
			},
		}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var res []model.AuditResult
		json.NewDecoder(resp.Body).Decode(&res)
		require.Len(t, res, 2)
		assert.Equal(t, model.StatusPass, res[0].Status)
		assert.Equal(t, model.StatusError, res[1].Status)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/audit/batch", bytes.NewBufferString(`[`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})
}

func TestHistory(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuditService)
	app := fiber.New()
	app.Use(withCaller(alice))
	app.Get("/history", History(mockSvc))

	t.Run("defaults", func(t *testing.T) {
		mockSvc.On("History", mock.Anything, alice, 0, service.DefaultPageSize).
			Return(&service.HistoryResult{Items: []model.AuditRecord{{ID: 5}}, Total: 1, Size: service.DefaultPageSize}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/history", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var raw map[string]any
		json.NewDecoder(resp.Body).Decode(&raw)
		assert.Len(t, raw["data"], 1)
		assert.EqualValues(t, 1, raw["total"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("explicit page", func(t *testing.T) {
		mockSvc.On("History", mock.Anything, alice, 2, 25).
			Return(&service.HistoryResult{Items: []model.AuditRecord{}, Page: 2, Size: 25}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/history?page=2&size=25", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	for _, tc := range []struct{ query, code string }{
		{"page=abc", "INVALID_PAGE"},
		{"size=ten", "INVALID_SIZE"},
	} {
		t.Run(tc.code, func(t *testing.T) {
			resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/history?"+tc.query, nil))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.code, decodeError(t, resp).Error.Code)
		})
	}
}

func TestReviewAudit(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       any
		svcErr     error
		callsSvc   bool
		wantStatus int
		wantCode   string
	}{
		{"success", "/audit/7/review", service.ReviewRequest{Status: model.StatusPass, Reason: "ok"}, nil, true, http.StatusOK, ""},
		{"invalid id", "/audit/abc/review", service.ReviewRequest{Status: model.StatusPass}, nil, false, http.StatusBadRequest, "INVALID_ID"},
		{"not found", "/audit/7/review", service.ReviewRequest{Status: model.StatusPass}, service.ErrNotFound, true, http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", "/audit/7/review", service.ReviewRequest{Status: model.StatusPass}, service.ErrForbidden, true, http.StatusForbidden, "FORBIDDEN"},
		{"not awaiting review", "/audit/7/review", service.ReviewRequest{Status: model.StatusReject}, service.ErrInvalidState, true, http.StatusConflict, "INVALID_STATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockAuditService)
			if tt.callsSvc {
				var rec *model.AuditRecord
				if tt.svcErr == nil {
					rec = &model.AuditRecord{ID: 7, Status: model.StatusPass}
				}
				mockSvc.On("Review", mock.Anything, alice, int64(7), tt.body).Return(rec, tt.svcErr).Once()
			}

			app := fiber.New()
			app.Use(withCaller(alice))
			app.Put("/audit/:id/review", ReviewAudit(mockSvc))

			resp, _ := app.Test(jsonRequest(http.MethodPut, tt.path, tt.body))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp).Error.Code)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestStatistics(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuditService)
	app := fiber.New()
	app.Use(withCaller(alice))
	app.Get("/statistics", Statistics(mockSvc))

	mockSvc.On("Statistics", mock.Anything, alice).Return(&model.AuditStatistics{
		TotalCount: 3,
		PassCount:  2,
		TrendData:  []model.TrendPoint{{Date: "2025-03-09", Pass: 2}},
	}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/statistics", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var st model.AuditStatistics
	json.NewDecoder(resp.Body).Decode(&st)
	assert.Equal(t, int64(3), st.TotalCount)
	require.Len(t, st.TrendData, 1)
	assert.Equal(t, "2025-03-09", st.TrendData[0].Date)
	mockSvc.AssertExpectations(t)
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockAuditService)
	guardHits := 0
	guard := func(c *fiber.Ctx) error {
		guardHits++
		return fiber.NewError(fiber.StatusTooManyRequests, "slow down")
	}
	RegisterRoutes(app, HealthCheck(nil), mockSvc, guard)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("guards run on content routes only", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, ContentPrefix+"/statistics", nil))
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "RATE_LIMITED", decodeError(t, resp).Error.Code)

		resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 1, guardHits)
		mockSvc.AssertNotCalled(t, "Statistics", mock.Anything, mock.Anything)
	})
}

func TestHandlers_IdentityCheckedBeforeRequest(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuditService)
	app := fiber.New()
	RegisterRoutes(app, LivenessProbe(), mockSvc)

	tests := []struct {
		method, path, body string
	}{
		{http.MethodPost, ContentPrefix + "/audit/text", `{`},
		{http.MethodPost, ContentPrefix + "/audit/image", `{`},
		{http.MethodPost, ContentPrefix + "/audit/batch", `{`},
		{http.MethodGet, ContentPrefix + "/history?page=abc", ``},
		{http.MethodPut, ContentPrefix + "/audit/abc/review", `{`},
		{http.MethodGet, ContentPrefix + "/statistics", ``},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, _ := app.Test(req)

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "INVALID_IDENTITY", decodeError(t, resp).Error.Code)
		})
	}
	assert.Empty(t, mockSvc.Calls)
}

func TestErrorHandler_Unauthorized(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusUnauthorized, "unknown session token")
	})

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "INVALID_IDENTITY", body.Error.Code)
	assert.Equal(t, "unknown session token", body.Error.Message)
}
