package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/drummonds/tex2img/compiler"
	"github.com/drummonds/tex2img/raster"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Compile.APIURL != compiler.DefaultAPIURL {
		t.Errorf("APIURL = %q", cfg.Compile.APIURL)
	}
	if cfg.Compile.Compiler != "pdflatex" {
		t.Errorf("Compiler = %q, want pdflatex", cfg.Compile.Compiler)
	}
	if cfg.Compile.Timeout != 60*time.Second {
		t.Errorf("Timeout = %s, want 60s", cfg.Compile.Timeout)
	}
	if cfg.Raster.DPI != raster.DefaultDPI || cfg.Raster.Format != "png" || cfg.Raster.Pages.String() != "first" {
		t.Errorf("Unexpected raster defaults: %+v", cfg.Raster)
	}
	if cfg.Renderer != "pdfium" {
		t.Errorf("Renderer = %q, want pdfium", cfg.Renderer)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TEX2IMG_API_URL", "http://localhost:2345/builds/sync")
	t.Setenv("TEX2IMG_COMPILER", "xelatex")
	t.Setenv("TEX2IMG_TIMEOUT", "15")
	t.Setenv("TEX2IMG_DPI", "300")
	t.Setenv("TEX2IMG_PAGES", "1,3-4")
	t.Setenv("TEX2IMG_FORMAT", "jpeg")
	t.Setenv("TEX2IMG_RENDERER", "fitz")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Compile.APIURL != "http://localhost:2345/builds/sync" || cfg.Compile.Compiler != "xelatex" {
		t.Errorf("Unexpected compile options: %+v", cfg.Compile)
	}
	if cfg.Compile.Timeout != 15*time.Second {
		t.Errorf("Timeout = %s, want 15s", cfg.Compile.Timeout)
	}
	if cfg.Raster.DPI != 300 || cfg.Raster.Format != "jpeg" || cfg.Raster.Pages.String() != "1,3-4" {
		t.Errorf("Unexpected raster options: %+v", cfg.Raster)
	}
	if cfg.Renderer != "fitz" {
		t.Errorf("Renderer = %q, want fitz", cfg.Renderer)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	// Make sure the variable is restored after the test, godotenv sets it directly
	t.Setenv("TEX2IMG_COMPILER", "")
	os.Unsetenv("TEX2IMG_COMPILER")

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TEX2IMG_COMPILER=lualatex\n"), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Compile.Compiler != "lualatex" {
		t.Errorf("Compiler = %q, want lualatex from .env", cfg.Compile.Compiler)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"TEX2IMG_TIMEOUT": "soon",
		"TEX2IMG_DPI":     "high",
		"TEX2IMG_PAGES":   "last",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected an error for %s=%s", key, value)
			}
		})
	}

	t.Run("zero timeout", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("TEX2IMG_TIMEOUT", "0")
		if _, err := Load(); err == nil {
			t.Error("Expected an error for a zero timeout")
		}
	})
}

func TestSetupLoggingLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_OUTPUT", "stdout")

	logger := SetupLogging()
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Info should be disabled at warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("Warn should be enabled at warn level")
	}
}

func TestSetupLoggingToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tex2img.log")
	t.Setenv("LOG_OUTPUT", "file")
	t.Setenv("LOG_FILE", logPath)
	t.Setenv("LOG_LEVEL", "info")

	logger := SetupLogging()
	logger.Info("hello from the test")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Expected the log line to be written to the file")
	}
}
