package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlocked_SetsStatusAndReasonPrefix(t *testing.T) {
	r := Blocked("target not authorized")
	assert.Equal(t, ResultError, r.Status)
	assert.Equal(t, "BLOCKED: target not authorized", r.ErrorMessage)
}

func TestTargetFromParams(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"target key", map[string]any{"target": "192.168.1.1"}, "192.168.1.1"},
		{"domain key", map[string]any{"domain": "example.com"}, "example.com"},
		{"host key", map[string]any{"host": "db.internal"}, "db.internal"},
		{"url key", map[string]any{"url": "https://example.com"}, "https://example.com"},
		{"prefers target over domain", map[string]any{"target": "t", "domain": "d"}, "t"},
		{"empty string value is skipped", map[string]any{"target": "", "domain": "d"}, "d"},
		{"non-string value is skipped", map[string]any{"target": 42, "host": "h"}, "h"},
		{"no matching key", map[string]any{"other": "x"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TargetFromParams(tt.params))
		})
	}
}
