package compiler

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/drummonds/tex2img/texerror"
)

const (
	// DefaultAPIURL is the public synchronous endpoint of latex-on-http
	DefaultAPIURL   = "https://latex.ytotech.com/builds/sync"
	DefaultCompiler = PDFLaTeX
	DefaultTimeout  = 60 * time.Second
	DefaultMainFile = "main.tex"
)

// Engine names understood by the public service. The client does not check
// against this list; the service decides what it supports.
const (
	PDFLaTeX = "pdflatex"
	XeLaTeX  = "xelatex"
	LuaLaTeX = "lualatex"
	PLaTeX   = "platex"
	UpLaTeX  = "uplatex"
	ConTeXt  = "context"
)

// Options configures a Client. Zero values are replaced by the defaults above.
type Options struct {
	APIURL   string
	Compiler string
	// Timeout bounds the whole round trip, including reading the PDF
	Timeout  time.Duration
	MainFile string
	// HTTPClient overrides the transport. Timeout is still enforced through the request context.
	HTTPClient *http.Client
}

func (o Options) withDefaults() Options {
	if o.APIURL == "" {
		o.APIURL = DefaultAPIURL
	}
	if o.Compiler == "" {
		o.Compiler = DefaultCompiler
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MainFile == "" {
		o.MainFile = DefaultMainFile
	}
	return o
}

func (o Options) validate() error {
	if err := validateURL(o.APIURL); err != nil {
		return texerror.Invalid(opCompile, "api url %q: %w", o.APIURL, err)
	}
	if o.Timeout < 0 {
		return texerror.Invalid(opCompile, "timeout must not be negative, got %s", o.Timeout)
	}
	return nil
}

// validateURL accepts absolute http and https URLs with a host
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
