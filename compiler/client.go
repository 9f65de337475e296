package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/drummonds/tex2img/texerror"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

const opCompile = "compile"

// Client submits LaTeX to a remote compilation service.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	opts       Options
	httpClient *http.Client
}

// NewClient validates opts and creates a client
func NewClient(opts Options) (*Client, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.Timeout,
		}
	}

	return &Client{
		opts:       opts,
		httpClient: httpClient,
	}, nil
}

// Options returns the effective options, defaults filled in
func (c *Client) Options() Options {
	return c.opts
}

// Compile sends source as the main file with the client's compiler and returns the PDF
func (c *Client) Compile(ctx context.Context, source string) ([]byte, error) {
	return c.CompileRequest(ctx, Request{Source: source})
}

// CompileRequest makes exactly one POST to the service. It never retries.
func (c *Client) CompileRequest(ctx context.Context, req Request) ([]byte, error) {
	payload, err := buildPayload(req, c.opts)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, texerror.New(texerror.InvalidInput, opCompile, fmt.Errorf("failed to encode request: %w", err))
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, texerror.New(texerror.InvalidInput, opCompile, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/pdf, application/json")

	requestID := ulid.Make().String()
	start := time.Now()
	Logger.Debug("Submitting LaTeX for compilation",
		"requestID", requestID,
		"url", c.opts.APIURL,
		"compiler", payload.Compiler,
		"resources", len(payload.Resources))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		terr := transportError(err)
		Logger.Warn("Compilation request failed", "requestID", requestID, "timeout", terr.Timeout, "error", err)
		return nil, terr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := transportError(fmt.Errorf("failed to read response body: %w", err))
		Logger.Warn("Reading compilation response failed", "requestID", requestID, "status", resp.StatusCode, "error", err)
		return nil, terr
	}

	pdf, err := interpretResponse(resp.StatusCode, resp.Header.Get("Content-Type"), data)
	if err != nil {
		Logger.Info("Compilation rejected",
			"requestID", requestID,
			"status", resp.StatusCode,
			"duration", time.Since(start),
			"error", err)
		return nil, err
	}

	Logger.Info("Compilation complete",
		"requestID", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"bytes", len(pdf))
	return pdf, nil
}

func transportError(err error) *texerror.Error {
	terr := texerror.New(texerror.TransportFailure, opCompile, err)
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		terr.Timeout = true
	}
	return terr
}
