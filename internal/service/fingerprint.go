package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const (
	textKeyPrefix  = "audit:text:"
	imageKeyPrefix = "audit:image:"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// canonicalJSON relies on encoding/json writing map keys in sorted order.
func canonicalJSON(v map[string]any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// textCacheKey keys on content and, when present, the template config. A
// present but empty config ({}) is distinct from none (nil).
func textCacheKey(content string, templateConfig map[string]any) (string, error) {
	key := textKeyPrefix + sha256Hex(content)
	if templateConfig == nil {
		return key, nil
	}
	cfg, err := canonicalJSON(templateConfig)
	if err != nil {
		return "", fmt.Errorf("%w: template config: %v", ErrInvalidInput, err)
	}
	return key + ":" + sha256Hex(cfg), nil
}

func imageCacheKey(source string) string {
	return imageKeyPrefix + sha256Hex(source)
}
