package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidIdentity is returned when a caller identity blob has no usable id.
var ErrInvalidIdentity = errors.New("invalid caller identity")

// Identity is the authenticated caller.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Valid reports whether the identity carries a positive user id.
func (i Identity) Valid() bool {
	return i.ID > 0
}

// DecodeIdentity parses the identity blob forwarded by the gateway or stored
// under a session token. Older sessions used "userId" instead of "id", and ids
// may arrive as numbers or numeric strings.
func DecodeIdentity(raw []byte) (Identity, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Identity{}, ErrInvalidIdentity
	}

	var blob map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&blob); err != nil {
		return Identity{}, ErrInvalidIdentity
	}

	idRaw, ok := blob["id"]
	if !ok || isNull(idRaw) {
		idRaw, ok = blob["userId"]
	}
	if !ok {
		return Identity{}, ErrInvalidIdentity
	}
	id, err := parseID(idRaw)
	if err != nil || id <= 0 {
		return Identity{}, ErrInvalidIdentity
	}

	out := Identity{ID: id}
	out.Username = stringField(blob["username"])
	out.Role = stringField(blob["role"])
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func parseID(raw json.RawMessage) (int64, error) {
	if isNull(raw) {
		return 0, ErrInvalidIdentity
	}
	s := string(raw)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
	}
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func stringField(raw json.RawMessage) string {
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
