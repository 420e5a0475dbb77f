package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sharonlnl728/content-audit-platform/internal/cache"
	"github.com/sharonlnl728/content-audit-platform/internal/logging"
	"github.com/sharonlnl728/content-audit-platform/internal/metrics"
	"github.com/sharonlnl728/content-audit-platform/internal/model"
	"github.com/sharonlnl728/content-audit-platform/internal/repository"
	"github.com/sharonlnl728/content-audit-platform/internal/scorer"
	"github.com/sharonlnl728/content-audit-platform/internal/storage"
	"github.com/sharonlnl728/content-audit-platform/internal/study"
	"github.com/sharonlnl728/content-audit-platform/internal/worker"
)

const (
	DefaultCacheTTL = 24 * time.Hour
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// TextAuditRequest asks for a verdict on a piece of text.
type TextAuditRequest struct {
	Content        string         `json:"content"`
	TemplateConfig map[string]any `json:"template_config,omitempty"`
	ForceRefresh   bool           `json:"force_refresh,omitempty"`
}

// ImageAuditRequest carries either a URL or a base64 payload. When both are
// set the URL wins.
type ImageAuditRequest struct {
	ImageURL    string `json:"imageUrl,omitempty"`
	ImageBase64 string `json:"imageBase64,omitempty"`
}

// BatchItem is one entry of a batch audit. IMAGE items carry a URL in Content.
// StudyID and RecordID, when both set, tie the item to a study record that is
// updated with the outcome.
type BatchItem struct {
	Type           model.ContentType `json:"type"`
	Content        string            `json:"content"`
	TemplateConfig map[string]any    `json:"templateConfig,omitempty"`
	StudyID        *int64            `json:"studyId,omitempty"`
	RecordID       *int64            `json:"recordId,omitempty"`
}

// HistoryResult is one page of the caller's ledger.
type HistoryResult struct {
	Items []model.AuditRecord `json:"data"`
	Total int                 `json:"total"`
	Page  int                 `json:"page"`
	Size  int                 `json:"size"`
}

// ReviewRequest is a manual verdict on a REVIEW record.
type ReviewRequest struct {
	Status model.Status `json:"status"`
	Reason string       `json:"reason"`
}

// AuditService is the content audit use-case layer.
type AuditService interface {
	// AuditText returns a cached verdict when one exists (unless ForceRefresh),
	// otherwise scores the text, caches the result and queues a ledger write.
	AuditText(ctx context.Context, caller model.Identity, req TextAuditRequest) (*model.AuditResult, error)

	// AuditImage behaves like AuditText for images. There is no force refresh.
	AuditImage(ctx context.Context, caller model.Identity, req ImageAuditRequest) (*model.AuditResult, error)

	// AuditBatch returns exactly one result per item, in input order. Failed
	// items become ERROR placeholders.
	AuditBatch(ctx context.Context, caller model.Identity, items []BatchItem) ([]model.AuditResult, error)

	// History pages through the caller's records, newest first. page is 0-based.
	History(ctx context.Context, caller model.Identity, page, size int) (*HistoryResult, error)

	// Review resolves a REVIEW record owned by the caller to PASS or REJECT.
	Review(ctx context.Context, caller model.Identity, auditID int64, req ReviewRequest) (*model.AuditRecord, error)

	// Statistics counts the caller's verdicts, with a seven day trend.
	Statistics(ctx context.Context, caller model.Identity) (*model.AuditStatistics, error)
}

// Dependencies wires an AuditService. Repo, Cache, Scorer and Queue are
// required; Study, Archive and Metrics may be nil.
type Dependencies struct {
	Repo     repository.AuditRepository
	Cache    cache.Cache
	Scorer   scorer.Scorer
	Study    study.Pusher
	Queue    worker.Submitter
	Archive  *storage.Archive
	Metrics  *metrics.AuditMetrics
	Logger   *logging.Logger
	CacheTTL time.Duration
	Location *time.Location
	Now      func() time.Time
}

type auditService struct {
	repo     repository.AuditRepository
	cache    cache.Cache
	scorer   scorer.Scorer
	study    study.Pusher
	queue    worker.Submitter
	archive  *storage.Archive
	metrics  *metrics.AuditMetrics
	log      *logging.Logger
	cacheTTL time.Duration
	loc      *time.Location
	now      func() time.Time
}

// NewAuditService constructs an AuditService.
func NewAuditService(d Dependencies) AuditService {
	s := &auditService{
		repo:     d.Repo,
		cache:    d.Cache,
		scorer:   d.Scorer,
		study:    d.Study,
		queue:    d.Queue,
		archive:  d.Archive,
		metrics:  d.Metrics,
		log:      d.Logger,
		cacheTTL: d.CacheTTL,
		loc:      d.Location,
		now:      d.Now,
	}
	if s.log == nil {
		s.log = logging.Nop()
	}
	s.log = s.log.With("audit_service")
	if s.cacheTTL <= 0 {
		s.cacheTTL = DefaultCacheTTL
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// fresh is the outcome of a scorer call: the returned result plus the ledger
// entry still to be written.
type fresh struct {
	record      *model.AuditRecord
	imageBase64 string
}

func (s *auditService) AuditText(ctx context.Context, caller model.Identity, req TextAuditRequest) (*model.AuditResult, error) {
	if !caller.Valid() {
		return nil, ErrInvalidIdentity
	}
	res, pending, err := s.auditText(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		s.persist([]fresh{*pending})
	}
	return res, nil
}

func (s *auditService) AuditImage(ctx context.Context, caller model.Identity, req ImageAuditRequest) (*model.AuditResult, error) {
	if !caller.Valid() {
		return nil, ErrInvalidIdentity
	}
	res, pending, err := s.auditImage(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		s.persist([]fresh{*pending})
	}
	return res, nil
}

func (s *auditService) AuditBatch(ctx context.Context, caller model.Identity, items []BatchItem) ([]model.AuditResult, error) {
	if !caller.Valid() {
		return nil, ErrInvalidIdentity
	}

	results := make([]model.AuditResult, 0, len(items))
	var pending []fresh
	for i, item := range items {
		res, p, err := s.auditItem(ctx, caller, item)
		if err != nil {
			s.log.Warn("batch_item_failed", map[string]any{
				"user_id": caller.ID,
				"index":   i,
				"error":   err.Error(),
			})
			results = append(results, model.ErrorResult("Audit failed: "+err.Error()))
			s.propagateError(ctx, item, err)
			continue
		}
		if p != nil {
			pending = append(pending, *p)
		}
		results = append(results, *res)
		s.propagateVerdict(ctx, item, *res)
	}

	if len(pending) > 0 {
		s.persist(pending)
	}
	return results, nil
}

func (s *auditService) auditItem(ctx context.Context, caller model.Identity, item BatchItem) (*model.AuditResult, *fresh, error) {
	switch model.ContentType(strings.ToUpper(string(item.Type))) {
	case model.ContentText:
		return s.auditText(ctx, caller, TextAuditRequest{Content: item.Content, TemplateConfig: item.TemplateConfig})
	case model.ContentImage:
		return s.auditImage(ctx, caller, ImageAuditRequest{ImageURL: item.Content})
	default:
		return nil, nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidInput, item.Type)
	}
}

func (s *auditService) auditText(ctx context.Context, caller model.Identity, req TextAuditRequest) (*model.AuditResult, *fresh, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	key, err := textCacheKey(req.Content, req.TemplateConfig)
	if err != nil {
		return nil, nil, err
	}

	if !req.ForceRefresh {
		if cached, ok := s.lookup(ctx, key, model.ContentText); ok {
			return cached, nil, nil
		}
	}

	start := time.Now()
	score, err := s.scorer.ScoreText(ctx, req.Content, req.TemplateConfig)
	s.metrics.ObserveScorer(string(model.ContentText), time.Since(start))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	res := s.verdict(model.ContentText, sha256Hex(req.Content), score)
	s.store(ctx, key, res)

	rec, err := s.newRecord(caller, res, score)
	if err != nil {
		return nil, nil, err
	}
	rec.ContentText = req.Content
	return &res, &fresh{record: rec}, nil
}

func (s *auditService) auditImage(ctx context.Context, caller model.Identity, req ImageAuditRequest) (*model.AuditResult, *fresh, error) {
	source, base64Payload := req.ImageURL, ""
	if source == "" {
		source, base64Payload = req.ImageBase64, req.ImageBase64
	}
	if strings.TrimSpace(source) == "" {
		return nil, nil, fmt.Errorf("%w: imageUrl or imageBase64 is required", ErrInvalidInput)
	}
	key := imageCacheKey(source)

	if cached, ok := s.lookup(ctx, key, model.ContentImage); ok {
		return cached, nil, nil
	}

	start := time.Now()
	var score *scorer.Score
	var err error
	if base64Payload != "" {
		score, err = s.scorer.ScoreImage(ctx, "", base64Payload)
	} else {
		score, err = s.scorer.ScoreImage(ctx, source, "")
	}
	s.metrics.ObserveScorer(string(model.ContentImage), time.Since(start))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	res := s.verdict(model.ContentImage, sha256Hex(source), score)
	s.store(ctx, key, res)

	rec, err := s.newRecord(caller, res, score)
	if err != nil {
		return nil, nil, err
	}
	if base64Payload == "" {
		rec.ContentURL = source
	}
	return &res, &fresh{record: rec, imageBase64: base64Payload}, nil
}

func (s *auditService) verdict(ct model.ContentType, contentHash string, score *scorer.Score) model.AuditResult {
	categories := score.Categories
	if categories == nil {
		categories = []string{}
	}
	res := model.AuditResult{
		ContentHash: contentHash,
		ContentType: ct,
		IsViolation: score.IsViolation,
		Confidence:  score.Confidence,
		Reason:      score.Reason,
		Categories:  categories,
		Status:      model.DeriveStatus(score.Confidence, score.IsViolation),
		Timestamp:   s.now().UnixMilli(),
	}
	s.metrics.Verdict(string(ct), string(res.Status))
	return res
}

// lookup treats unreadable entries and cache outages as misses.
func (s *auditService) lookup(ctx context.Context, key string, ct model.ContentType) (*model.AuditResult, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Error("cache_get_failed", err, map[string]any{"key": key})
		}
		s.recordLookup(ctx, ct, false)
		return nil, false
	}

	var res model.AuditResult
	if err := json.Unmarshal(raw, &res); err != nil {
		s.log.Error("cache_entry_corrupt", err, map[string]any{"key": key})
		s.recordLookup(ctx, ct, false)
		return nil, false
	}
	s.recordLookup(ctx, ct, true)
	return &res, true
}

// recordLookup counts the lookup and tags the request span with its outcome.
func (s *auditService) recordLookup(ctx context.Context, ct model.ContentType, hit bool) {
	s.metrics.CacheLookup(string(ct), hit)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("audit.content_type", string(ct)),
		attribute.Bool("audit.cache_hit", hit),
	)
}

func (s *auditService) store(ctx context.Context, key string, res model.AuditResult) {
	b, err := json.Marshal(res)
	if err == nil {
		err = s.cache.Set(ctx, key, b, s.cacheTTL)
	}
	if err != nil {
		s.log.Error("cache_set_failed", err, map[string]any{"key": key})
	}
}

func (s *auditService) newRecord(caller model.Identity, res model.AuditResult, score *scorer.Score) (*model.AuditRecord, error) {
	blob, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode audit result: %w", err)
	}
	aiResult := score.Raw
	if len(aiResult) == 0 || !json.Valid(aiResult) {
		aiResult = blob
	}
	now := s.now()
	return &model.AuditRecord{
		UserID:      caller.ID,
		ContentType: res.ContentType,
		ContentHash: res.ContentHash,
		AuditResult: blob,
		AIResult:    aiResult,
		Confidence:  res.Confidence,
		Status:      res.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *auditService) propagateVerdict(ctx context.Context, item BatchItem, res model.AuditResult) {
	if s.study == nil || item.StudyID == nil || item.RecordID == nil {
		return
	}
	s.study.PushVerdict(ctx, *item.StudyID, *item.RecordID, res)
}

func (s *auditService) propagateError(ctx context.Context, item BatchItem, err error) {
	if s.study == nil || item.StudyID == nil || item.RecordID == nil {
		return
	}
	s.study.PushError(ctx, *item.StudyID, *item.RecordID, err.Error())
}

func (s *auditService) History(ctx context.Context, caller model.Identity, page, size int) (*HistoryResult, error) {
	if !caller.Valid() {
		return nil, ErrInvalidIdentity
	}
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	res, err := s.repo.ListByUser(ctx, caller.ID, repository.PageQuery{Limit: size, Offset: page * size})
	if err != nil {
		return nil, fmt.Errorf("list audit history: %w", err)
	}

	items := res.Items
	if items == nil {
		items = []model.AuditRecord{}
	}
	for i := range items {
		s.attachPreview(ctx, &items[i])
	}
	return &HistoryResult{Items: items, Total: res.Total, Page: page, Size: size}, nil
}

func (s *auditService) attachPreview(ctx context.Context, rec *model.AuditRecord) {
	if rec.ContentType != model.ContentImage || !storage.IsArchived(rec.ContentURL) {
		return
	}
	u, err := s.archive.PreviewURL(ctx, rec.ContentURL)
	if err != nil {
		s.log.Warn("preview_url_failed", map[string]any{"audit_id": rec.ID, "error": err.Error()})
		return
	}
	rec.PreviewURL = u
}
