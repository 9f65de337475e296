package compiler

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/drummonds/tex2img/texerror"
)

type outcome int

const (
	inspectBody outcome = iota
	reject
)

// statusRule maps an inclusive range of HTTP status codes to an outcome
type statusRule struct {
	min, max  int
	outcome   outcome
	retryable bool
	reason    string
}

// statusTable is checked top to bottom, the first matching range wins
var statusTable = []statusRule{
	{min: 200, max: 299, outcome: inspectBody},
	{min: 300, max: 399, outcome: reject, reason: "unexpected redirect"},
	{min: 429, max: 429, outcome: reject, retryable: true, reason: "rate limited"},
	{min: 400, max: 499, outcome: reject},
	{min: 500, max: 599, outcome: reject, retryable: true},
}

var unknownStatus = statusRule{outcome: reject, reason: "unexpected status"}

func lookupStatus(code int) statusRule {
	for _, rule := range statusTable {
		if code >= rule.min && code <= rule.max {
			return rule
		}
	}
	return unknownStatus
}

type bodyKind int

const (
	bodyEmpty bodyKind = iota
	bodyPDF
	bodyJSON
	bodyOther
)

var pdfMagic = []byte("%PDF-")

func sniffBody(contentType string, body []byte) bodyKind {
	if len(body) == 0 {
		return bodyEmpty
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/pdf" || bytes.HasPrefix(body, pdfMagic) {
		return bodyPDF
	}
	if isJSONMediaType(mediaType) || (bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) && json.Valid(body)) {
		return bodyJSON
	}
	return bodyOther
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// errorPayload covers the field names the service has used for diagnostics
type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Logs    string `json:"logs"`
	Log     string `json:"log"`
}

// interpretResponse turns a status, content type and body into PDF bytes or a classified error
func interpretResponse(status int, contentType string, body []byte) ([]byte, error) {
	rule := lookupStatus(status)

	if rule.outcome == inspectBody {
		switch sniffBody(contentType, body) {
		case bodyPDF:
			return body, nil
		case bodyJSON:
			return nil, failureFromBody(status, rule, contentType, body)
		case bodyEmpty:
			return nil, &texerror.Error{Kind: texerror.CompilationFailure, Op: opCompile, StatusCode: status, Message: "empty response"}
		default:
			return nil, &texerror.Error{
				Kind:       texerror.CompilationFailure,
				Op:         opCompile,
				StatusCode: status,
				Message:    "unparseable response",
				Log:        string(body),
			}
		}
	}

	return nil, failureFromBody(status, rule, contentType, body)
}

func failureFromBody(status int, rule statusRule, contentType string, body []byte) *texerror.Error {
	e := &texerror.Error{
		Kind:       texerror.CompilationFailure,
		Op:         opCompile,
		StatusCode: status,
		Retryable:  rule.retryable,
	}

	var payload errorPayload
	if sniffBody(contentType, body) == bodyJSON && json.Unmarshal(body, &payload) == nil {
		e.Message = payload.Message
		if e.Message == "" {
			e.Message = payload.Error
		}
		e.Log = payload.Logs
		if e.Log == "" {
			e.Log = payload.Log
		}
	} else {
		e.Message = string(body)
	}

	if e.Message == "" {
		switch {
		case rule.reason != "":
			e.Message = rule.reason
		case rule.outcome == inspectBody:
			e.Message = "compilation failed"
		default:
			e.Message = http.StatusText(status)
		}
	}
	return e
}
