package compiler

import (
	"bytes"
	"errors"
	"testing"

	"github.com/drummonds/tex2img/texerror"
)

func TestStatusTable(t *testing.T) {
	tests := []struct {
		code      int
		outcome   outcome
		retryable bool
	}{
		{200, inspectBody, false},
		{201, inspectBody, false},
		{299, inspectBody, false},
		{302, reject, false},
		{400, reject, false},
		{404, reject, false},
		{429, reject, true},
		{500, reject, true},
		{503, reject, true},
		{102, reject, false},
		{600, reject, false},
	}

	for _, tt := range tests {
		rule := lookupStatus(tt.code)
		if rule.outcome != tt.outcome || rule.retryable != tt.retryable {
			t.Errorf("lookupStatus(%d) = %+v, want outcome %v retryable %v", tt.code, rule, tt.outcome, tt.retryable)
		}
	}
}

func TestSniffBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        bodyKind
	}{
		{"empty", "application/pdf", "", bodyEmpty},
		{"pdf header", "application/pdf", "anything", bodyPDF},
		{"pdf magic", "application/octet-stream", "%PDF-1.7\n", bodyPDF},
		{"json header", "application/json; charset=utf-8", `{"message":"x"}`, bodyJSON},
		{"problem json", "application/problem+json", `{"title":"x"}`, bodyJSON},
		{"json sniffed", "text/plain", ` {"logs":"x"}`, bodyJSON},
		{"html", "text/html", "<html></html>", bodyOther},
		{"broken json", "text/plain", "{not json", bodyOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sniffBody(tt.contentType, []byte(tt.body)); got != tt.want {
				t.Errorf("sniffBody = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInterpretResponse(t *testing.T) {
	t.Run("pdf passes through", func(t *testing.T) {
		pdf, err := interpretResponse(200, "application/pdf", fakePDF)
		if err != nil || !bytes.Equal(pdf, fakePDF) {
			t.Errorf("interpretResponse = %q, %v", pdf, err)
		}
	})

	t.Run("plain text error kept verbatim", func(t *testing.T) {
		_, err := interpretResponse(502, "text/plain", []byte("upstream died\n"))
		var terr *texerror.Error
		if !errors.As(err, &terr) {
			t.Fatalf("Expected *texerror.Error, got %v", err)
		}
		if terr.Message != "upstream died\n" {
			t.Errorf("Message = %q", terr.Message)
		}
		if !terr.Retryable {
			t.Errorf("5xx should be retryable")
		}
	})

	t.Run("empty error body falls back to status text", func(t *testing.T) {
		_, err := interpretResponse(404, "", nil)
		var terr *texerror.Error
		if !errors.As(err, &terr) || terr.Message != "Not Found" {
			t.Errorf("Expected Not Found message, got %v", err)
		}
	})

	t.Run("empty success body", func(t *testing.T) {
		_, err := interpretResponse(200, "application/pdf", nil)
		var terr *texerror.Error
		if !errors.As(err, &terr) || terr.Message != "empty response" {
			t.Errorf("Expected empty response failure, got %v", err)
		}
	})

	t.Run("redirect", func(t *testing.T) {
		_, err := interpretResponse(304, "", nil)
		var terr *texerror.Error
		if !errors.As(err, &terr) || terr.Message != "unexpected redirect" {
			t.Errorf("Expected unexpected redirect, got %v", err)
		}
	})
}
