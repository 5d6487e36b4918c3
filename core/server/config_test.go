package server_test

import (
	"testing"
	"time"

	"contact-sync/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_BodyLimit(t *testing.T) {
	tests := []struct {
		name string
		mb   int
		want int
	}{
		{"Configured", 16, 16 << 20},
		{"Zero", 0, 4 << 20},
		{"Negative", -1, 4 << 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{BodyLimitMB: tt.mb}
			assert.Equal(t, tt.want, c.BodyLimit())
		})
	}
}

func TestConfig_ReadTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, server.Config{ReadTimeoutSeconds: 30}.ReadTimeout())
}
