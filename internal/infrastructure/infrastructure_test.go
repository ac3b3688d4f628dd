package infrastructure_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/infrastructure"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := &config.Config{
		LogLevel: "debug",
		Pipeline: config.PipelineConfig{
			SourceDir: filepath.Join(root, "pdfs"),
			OutputDir: filepath.Join(root, "output"),
		},
		Publish: config.PublishConfig{
			ContentDir: filepath.Join(root, "content"),
			PDFDir:     filepath.Join(root, "public"),
		},
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return cfg
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil {
		t.Error("Lifecycle is nil")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.Output == nil || infra.Content == nil {
		t.Error("Output and Content storage must be set")
	}
	if infra.Public == nil {
		t.Error("Public storage should be set when the PDF copy is enabled")
	}
}

func TestNewSkipPDFCopy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.SkipPDFCopy = true

	infra, err := infrastructure.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if infra.Public != nil {
		t.Error("Public storage should be nil when the PDF copy is disabled")
	}
}

func TestStartCreatesDirectories(t *testing.T) {
	cfg := testConfig(t)
	var logs bytes.Buffer

	infra, err := infrastructure.NewWithWriter(context.Background(), cfg, &logs)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := infra.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for _, dir := range []string{cfg.Pipeline.OutputDir, cfg.Publish.ContentDir, cfg.Publish.PDFDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s should exist after Start", dir)
		}
	}
	if !infra.Lifecycle.Ready() {
		t.Error("lifecycle should be ready after Start")
	}
	if !strings.Contains(logs.String(), "system=storage") {
		t.Errorf("debug logs should carry the storage system key, got %q", logs.String())
	}
	if err := infra.Lifecycle.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !strings.Contains(logs.String(), "infrastructure stopped") {
		t.Errorf("shutdown hook should log, got %q", logs.String())
	}
}
