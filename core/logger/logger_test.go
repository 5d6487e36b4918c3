package logger

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantLevel zapcore.Level
	}{
		{"DebugConsole", Config{Level: "debug", Format: "console"}, zapcore.DebugLevel},
		{"InfoJSON", Config{Level: "info", Format: "json"}, zapcore.InfoLevel},
		{"Warn", Config{Level: "warn"}, zapcore.WarnLevel},
		{"DefaultLevel", Config{}, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(&tt.cfg)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.wantLevel))
			assert.False(t, l.Core().Enabled(tt.wantLevel-1))
		})
	}

	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	l, err := New(&Config{Level: "info", Format: "json", File: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)

	l.Info("Batch reconciled", zap.String("family", "person"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.Contains(line, `"message":"Batch reconciled"`), line)
	assert.True(t, strings.Contains(line, `"family":"person"`), line)
}

func TestWithRayID(t *testing.T) {
	app := fiber.New()
	var withID, withoutID *zap.Logger
	base := zap.NewNop()

	app.Get("/with", func(c *fiber.Ctx) error {
		c.Locals("ray_id", "abc")
		withID = WithRayID(base, c)
		return nil
	})
	app.Get("/without", func(c *fiber.Ctx) error {
		withoutID = WithRayID(base, c)
		return nil
	})

	_, err := app.Test(httptest.NewRequest("GET", "/with", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("GET", "/without", nil))
	require.NoError(t, err)

	assert.NotSame(t, base, withID)
	assert.Same(t, base, withoutID)
}
