package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharonlnl728/content-audit-platform/internal/model"
)

// persist hands fresh records to the background queue. The caller never
// learns whether the write succeeded.
func (s *auditService) persist(batch []fresh) {
	name := "persist_audit"
	if len(batch) > 1 {
		name = "persist_audit_batch"
	}
	s.queue.Submit(name, func(ctx context.Context) error {
		return s.write(ctx, batch)
	})
}

// write archives base64 images, then inserts the records. Archived objects
// are removed again if the insert fails.
func (s *auditService) write(ctx context.Context, batch []fresh) error {
	recs := make([]*model.AuditRecord, 0, len(batch))
	var archived []string
	for _, f := range batch {
		if f.imageBase64 != "" && s.archive.Enabled() {
			key, err := s.archive.StoreBase64(ctx, f.record.ContentHash, f.imageBase64)
			if err != nil {
				s.log.Warn("image_archive_failed", map[string]any{
					"content_hash": f.record.ContentHash,
					"error":        err.Error(),
				})
			} else {
				f.record.ContentURL = key
				archived = append(archived, key)
			}
		}
		recs = append(recs, f.record)
	}

	var err error
	if len(recs) == 1 {
		_, err = s.repo.Create(ctx, recs[0])
	} else {
		err = s.repo.CreateBatch(ctx, recs)
	}
	if err == nil {
		return nil
	}

	errs := []error{fmt.Errorf("save audit record: %w", err)}
	for _, key := range archived {
		if delErr := s.archive.Remove(ctx, key); delErr != nil {
			errs = append(errs, fmt.Errorf("rollback delete %s: %w", key, delErr))
		}
	}
	return errors.Join(errs...)
}
