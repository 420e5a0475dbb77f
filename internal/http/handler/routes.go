package handler

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sharonlnl728/content-audit-platform/internal/http/middleware"
	"github.com/sharonlnl728/content-audit-platform/internal/model"
	"github.com/sharonlnl728/content-audit-platform/internal/service"
)

// ContentPrefix is the route group of the audit API.
const ContentPrefix = "/api/content"

// Pinger is a dependency the health check verifies besides the database.
type Pinger interface {
	Ping(ctx context.Context) error
}

type batchRequest struct {
	Items []service.BatchItem `json:"items"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. ready serves
// /health; handlers in guards run in front of every /api/content route.
func RegisterRoutes(app *fiber.App, ready fiber.Handler, svc service.AuditService, guards ...fiber.Handler) {
	app.Get("/health", ready)
	app.Get("/healthz", LivenessProbe())

	content := app.Group(ContentPrefix, guards...)
	content.Post("/audit/text", AuditText(svc))
	content.Post("/audit/image", AuditImage(svc))
	content.Post("/audit/batch", AuditBatch(svc))
	content.Get("/history", History(svc))
	content.Put("/audit/:id/review", ReviewAudit(svc))
	content.Get("/statistics", Statistics(svc))
}

// HealthCheck godoc
// @Summary Readiness check
// @Description Pings the database and any extra dependencies
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db *sql.DB, deps ...Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if db == nil || db.PingContext(ctx) != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		for _, d := range deps {
			if err := d.Ping(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// caller returns the resolved identity. Handlers check it before reading the
// request so a missing identity is always reported as such.
func caller(c *fiber.Ctx) (model.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	return id, ok && id.Valid()
}

func unauthorized(c *fiber.Ctx) error {
	return writeServiceError(c, service.ErrInvalidIdentity)
}

// AuditText godoc
// @Summary Audit text
// @Description Returns a cached verdict or scores the text
// @Tags audit
// @Accept json
// @Produce json
// @Param X-User-Info header string false "Gateway identity blob"
// @Param request body service.TextAuditRequest true "Text to audit"
// @Success 200 {object} model.AuditResult
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /api/content/audit/text [post]
func AuditText(svc service.AuditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := caller(c)
		if !ok {
			return unauthorized(c)
		}

		var req service.TextAuditRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.AuditText(c.UserContext(), id, req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// AuditImage godoc
// @Summary Audit image
// @Description Scores an image given by URL or base64 payload; the URL wins when both are sent
// @Tags audit
// @Accept json
// @Produce json
// @Param X-User-Info header string false "Gateway identity blob"
// @Param request body service.ImageAuditRequest true "Image to audit"
// @Success 200 {object} model.AuditResult
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /api/content/audit/image [post]
func AuditImage(svc service.AuditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := caller(c)
		if !ok {
			return unauthorized(c)
		}

		var req service.ImageAuditRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.AuditImage(c.UserContext(), id, req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// AuditBatch godoc
// @Summary Audit a batch
// @Description One result per item in input order; failed items have status ERROR
// @Tags audit
// @Accept json
// @Produce json
// @Param X-User-Info header string false "Gateway identity blob"
// @Param request body batchRequest true "Items to audit"
// @Success 200 {array} model.AuditResult
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /api/content/audit/batch [post]
func AuditBatch(svc service.AuditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := caller(c)
		if !ok {
			return unauthorized(c)
		}

		var req batchRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		results, err := svc.AuditBatch(c.UserContext(), id, req.Items)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(results)
	}
}

// History godoc
// @Summary Audit history
// @Description The caller's ledger, newest first
// @Tags audit
// @Produce json
// @Param X-User-Info header string false "Gateway identity blob"
// @Param page query int false "0-based page" default(0)
// @Param size query int false "page size" default(10)
// @Success 200 {object} service.HistoryResult
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /api/content/history [get]
func History(svc service.AuditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := caller(c)
		if !ok {
			return unauthorized(c)
		}

		page, err := strconv.Atoi(c.Query("page", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
		}
		size, err := strconv.Atoi(c.Query("size", strconv.Itoa(service.DefaultPageSize)))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SIZE", "invalid size")
		}

		res, err := svc.History(c.UserContext(), id, page, size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// ReviewAudit godoc
// @Summary Review an audit
// @Description Resolves a REVIEW record owned by the caller to PASS or REJECT
// @Tags audit
// @Accept json
// @Produce json
// @Param X-User-Info header string false "Gateway identity blob"
// @Param id path int true "Audit record id"
// @Param request body service.ReviewRequest true "Manual verdict"
// @Success 200 {object} model.AuditRecord
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /api/content/audit/{id}/review [put]
func ReviewAudit(svc service.AuditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reviewer, ok := caller(c)
		if !ok {
			return unauthorized(c)
		}

		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req service.ReviewRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		rec, err := svc.Review(c.UserContext(), reviewer, id, req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

// Statistics godoc
// @Summary Audit statistics
// @Description Verdict and content type counts with a seven day trend
// @Tags audit
// @Produce json
// @Param X-User-Info header string false "Gateway identity blob"
// @Success 200 {object} model.AuditStatistics
// @Failure 401 {object} errorPayload
// @Router /api/content/statistics [get]
func Statistics(svc service.AuditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := caller(c)
		if !ok {
			return unauthorized(c)
		}

		st, err := svc.Statistics(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(st)
	}
}
