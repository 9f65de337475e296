package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/drummonds/tex2img/compiler"
	"github.com/drummonds/tex2img/raster"
	"github.com/drummonds/tex2img/raster/pdfrenderer"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Config contains everything needed to compile and rasterize
type Config struct {
	Compile compiler.Options
	Raster  raster.Options
	// Renderer is the rasterization engine, "pdfium" or "fitz"
	Renderer string
}

// Default returns the built-in defaults, nothing read from the environment
func Default() Config {
	return Config{
		Compile: compiler.Options{
			APIURL:   compiler.DefaultAPIURL,
			Compiler: compiler.DefaultCompiler,
			Timeout:  compiler.DefaultTimeout,
			MainFile: compiler.DefaultMainFile,
		},
		Raster: raster.Options{
			DPI:         raster.DefaultDPI,
			Pages:       raster.FirstPage(),
			Format:      raster.DefaultFormat,
			JPEGQuality: raster.DefaultJPEGQuality,
		},
		Renderer: pdfrenderer.EnginePDFium,
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return intVal, nil
}

// Load reads TEX2IMG_* variables on top of the defaults. A .env or tex2img.env
// file in the working directory is loaded first if present. Nothing is read
// unless the caller asks for it.
func Load() (Config, error) {
	// Load .env file (silently ignore if doesn't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("tex2img.env")

	cfg := Default()

	cfg.Compile.APIURL = getEnv("TEX2IMG_API_URL", cfg.Compile.APIURL)
	cfg.Compile.Compiler = getEnv("TEX2IMG_COMPILER", cfg.Compile.Compiler)
	cfg.Compile.MainFile = getEnv("TEX2IMG_MAIN_FILE", cfg.Compile.MainFile)

	timeoutSeconds, err := getEnvInt("TEX2IMG_TIMEOUT", int(cfg.Compile.Timeout/time.Second))
	if err != nil {
		return Config{}, err
	}
	if timeoutSeconds <= 0 {
		return Config{}, fmt.Errorf("TEX2IMG_TIMEOUT must be positive, got %d", timeoutSeconds)
	}
	cfg.Compile.Timeout = time.Duration(timeoutSeconds) * time.Second

	cfg.Raster.DPI, err = getEnvInt("TEX2IMG_DPI", cfg.Raster.DPI)
	if err != nil {
		return Config{}, err
	}
	cfg.Raster.JPEGQuality, err = getEnvInt("TEX2IMG_JPEG_QUALITY", cfg.Raster.JPEGQuality)
	if err != nil {
		return Config{}, err
	}

	cfg.Raster.Pages, err = raster.ParsePages(getEnv("TEX2IMG_PAGES", "first"))
	if err != nil {
		return Config{}, fmt.Errorf("TEX2IMG_PAGES: %w", err)
	}
	cfg.Raster.Format = getEnv("TEX2IMG_FORMAT", cfg.Raster.Format)
	cfg.Renderer = getEnv("TEX2IMG_RENDERER", cfg.Renderer)

	Logger.Info("Configuration loaded",
		"apiURL", cfg.Compile.APIURL,
		"compiler", cfg.Compile.Compiler,
		"timeout", cfg.Compile.Timeout,
		"dpi", cfg.Raster.DPI,
		"pages", cfg.Raster.Pages.String(),
		"format", cfg.Raster.Format,
		"renderer", cfg.Renderer)

	return cfg, nil
}

// SetupLogging configures a logger from LOG_LEVEL, LOG_OUTPUT and LOG_FILE
func SetupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	var logWriter io.Writer
	switch getEnv("LOG_OUTPUT", "stderr") {
	case "stdout":
		logWriter = os.Stdout
	case "file":
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "tex2img.log")))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating log file path: %v\n", err)
			logWriter = os.Stderr
			break
		}
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			logWriter = os.Stderr
			break
		}
		logWriter = logFile
	default:
		logWriter = os.Stderr
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}
