package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		confidence float64
		violation  bool
		want       Status
	}{
		{0.95, true, StatusReject},
		{0.95, false, StatusPass},
		{1.0, true, StatusReject},
		{0.9, true, StatusReview},
		{0.9, false, StatusReview},
		{0.5, true, StatusReview},
		{0.0, false, StatusReview},
		{0.9000001, false, StatusPass},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveStatus(tt.confidence, tt.violation), "c=%v v=%v", tt.confidence, tt.violation)
	}
}

func TestDecodeIdentity(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Identity
		wantErr bool
	}{
		{name: "numeric id", raw: `{"id": 7, "username": "ann", "role": "USER"}`, want: Identity{ID: 7, Username: "ann", Role: "USER"}},
		{name: "string id", raw: `{"id": "12"}`, want: Identity{ID: 12}},
		{name: "legacy userId", raw: `{"userId": 3}`, want: Identity{ID: 3}},
		{name: "null id falls back to userId", raw: `{"id": null, "userId": 4}`, want: Identity{ID: 4}},
		{name: "large id keeps precision", raw: `{"id": 9007199254740993}`, want: Identity{ID: 9007199254740993}},
		{name: "missing id", raw: `{"username": "ann"}`, wantErr: true},
		{name: "non numeric", raw: `{"id": "abc"}`, wantErr: true},
		{name: "zero", raw: `{"id": 0}`, wantErr: true},
		{name: "not json", raw: `id=1`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeIdentity([]byte(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIdentity)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuditRecord_OwnedBy(t *testing.T) {
	rec := &AuditRecord{UserID: 5}

	assert.True(t, rec.OwnedBy(Identity{ID: 5}))
	assert.False(t, rec.OwnedBy(Identity{ID: 6}))
	assert.False(t, rec.OwnedBy(Identity{}))

	var nilRec *AuditRecord
	assert.False(t, nilRec.OwnedBy(Identity{ID: 5}))
}
