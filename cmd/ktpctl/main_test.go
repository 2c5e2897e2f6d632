package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ktpapi/internal/app"
	"ktpapi/internal/config"
	"ktpapi/internal/service"
	serviceMocks "ktpapi/internal/service/mocks"
)

func run(t *testing.T, cfg *config.AppConfig, d deps, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(cfg, d)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func stubDeps(svc service.ExtractionService) deps {
	return deps{
		build: func(context.Context, *config.AppConfig, *slog.Logger) (*app.Stack, error) {
			return &app.Stack{Service: svc}, nil
		},
	}
}

func TestMigrateCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ktp.db")
	cfg := &config.AppConfig{Database: config.DatabaseConfig{URL: "sqlite:///" + dbPath}}

	out, err := run(t, cfg, defaultDeps(), "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema up to date (sqlite)")

	// Idempotent on a second run.
	_, err = run(t, cfg, defaultDeps(), "migrate")
	require.NoError(t, err)
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestExtractCmd(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "card.png")
	require.NoError(t, os.WriteFile(imagePath, []byte("png"), 0o600))

	t.Run("prints the result", func(t *testing.T) {
		mSvc := new(serviceMocks.MockExtractionService)
		mSvc.On("Extract", mock.Anything, "ktp", []byte("png"), "image/png").Return(&service.Result{
			Status: service.StatusSuccess,
			Source: "gemini",
			Data:   map[string]any{"NIK": "1234567890123456"},
		}, nil)

		out, err := run(t, &config.AppConfig{}, stubDeps(mSvc), "extract", imagePath)

		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "success", got["status"])
		assert.Equal(t, "gemini", got["source"])
		mSvc.AssertExpectations(t)
	})

	t.Run("flags override type and mime", func(t *testing.T) {
		mSvc := new(serviceMocks.MockExtractionService)
		mSvc.On("Extract", mock.Anything, "sim", []byte("png"), "image/webp").
			Return(nil, errors.New("unsupported document type: sim"))

		_, err := run(t, &config.AppConfig{}, stubDeps(mSvc), "extract", "--type", "sim", "--mime", "image/webp", imagePath)

		assert.EqualError(t, err, "unsupported document type: sim")
		mSvc.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, &config.AppConfig{}, stubDeps(nil), "extract", filepath.Join(dir, "nope.jpg"))

		assert.ErrorContains(t, err, "read image")
	})

	t.Run("requires exactly one argument", func(t *testing.T) {
		_, err := run(t, &config.AppConfig{}, stubDeps(nil), "extract")

		assert.Error(t, err)
	})
}

func TestTypesCmd(t *testing.T) {
	out, err := run(t, &config.AppConfig{}, stubDeps(nil), "types")

	require.NoError(t, err)
	assert.Equal(t, "ktp\n", out)
}

func TestMimeFromPath(t *testing.T) {
	assert.Equal(t, "image/jpeg", mimeFromPath("a.jpg"))
	assert.Equal(t, "image/png", mimeFromPath("a.PNG"))
	assert.Equal(t, "image/jpeg", mimeFromPath("noext"))
}
