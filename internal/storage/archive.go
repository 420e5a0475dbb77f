package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KeyPrefix namespaces archived images inside the bucket.
const KeyPrefix = "images/"

// DefaultPreviewTTL is how long presigned preview links stay valid.
const DefaultPreviewTTL = 15 * time.Minute

// ErrInvalidImage is returned for payloads that are not valid base64.
var ErrInvalidImage = errors.New("invalid base64 image")

// Archive keeps base64-submitted images so the ledger can point at them.
// A nil *Archive is valid and archives nothing.
type Archive struct {
	store      Storage
	previewTTL time.Duration
}

func NewArchive(store Storage, previewTTL time.Duration) *Archive {
	if previewTTL <= 0 {
		previewTTL = DefaultPreviewTTL
	}
	return &Archive{store: store, previewTTL: previewTTL}
}

// Enabled reports whether images are actually stored.
func (a *Archive) Enabled() bool {
	return a != nil && a.store != nil
}

// ImageKey is the object key of one archived copy of the content with the
// given fingerprint. Each ledger record owns its copy, so removing one never
// breaks another record's content_url.
func ImageKey(contentHash, copyID string) string {
	return KeyPrefix + contentHash + "/" + copyID
}

// IsArchived reports whether a ledger content_url refers to this archive.
func IsArchived(contentURL string) bool {
	return strings.HasPrefix(contentURL, KeyPrefix)
}

// StoreBase64 decodes payload and uploads it under a fresh ImageKey.
// A data URI prefix ("data:image/png;base64,") is accepted.
func (a *Archive) StoreBase64(ctx context.Context, contentHash, payload string) (string, error) {
	if !a.Enabled() {
		return "", nil
	}
	data, err := decodeBase64(payload)
	if err != nil {
		return "", err
	}

	key := ImageKey(contentHash, uuid.NewString())
	_, err = a.store.Put(ctx, key, bytes.NewReader(data), PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: http.DetectContentType(data),
		Metadata:    map[string]string{"content-hash": contentHash},
	})
	if err != nil {
		return "", fmt.Errorf("archive image: %w", err)
	}
	return key, nil
}

// Remove deletes an archived object. Non-archive keys are ignored.
func (a *Archive) Remove(ctx context.Context, key string) error {
	if !a.Enabled() || !IsArchived(key) {
		return nil
	}
	return a.store.Delete(ctx, key)
}

// PreviewURL presigns a download link for an archived key.
func (a *Archive) PreviewURL(ctx context.Context, key string) (string, error) {
	if !a.Enabled() || !IsArchived(key) {
		return "", nil
	}
	return a.store.PresignGet(ctx, key, a.previewTTL)
}

func decodeBase64(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 {
			return nil, ErrInvalidImage
		}
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(s)
	}
	if err != nil || len(data) == 0 {
		return nil, ErrInvalidImage
	}
	return data, nil
}
