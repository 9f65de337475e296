package compiler

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/drummonds/tex2img/texerror"
)

// Request is one compilation job: the main LaTeX source plus optional extra files
type Request struct {
	Source string
	// Compiler overrides the client's engine for this request
	Compiler  string
	Resources []Resource
}

// Resource is an additional input file, e.g. an image included by the main document.
// Exactly one of Content, Data or URL must be set.
type Resource struct {
	Path    string
	Content string // text file contents
	Data    []byte // binary contents, sent base64 encoded
	URL     string // fetched by the service
}

// NewResource guesses the kind of content: anything starting with "http" is a
// URL, a path to an existing file is read from disk, otherwise content is used
// as the file text.
func NewResource(path, content string) (Resource, error) {
	if strings.HasPrefix(content, "http") {
		return Resource{Path: path, URL: content}, nil
	}
	if info, err := os.Stat(content); err == nil && info.Mode().IsRegular() {
		return ResourceFromFile(path, content)
	}
	return Resource{Path: path, Content: content}, nil
}

// ResourceFromFile reads filename and sends it as path. An empty path uses the file's base name.
func ResourceFromFile(path, filename string) (Resource, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Resource{}, fmt.Errorf("failed to read resource file: %w", err)
	}
	if path == "" {
		path = filepath.Base(filename)
	}
	return Resource{Path: path, Data: data}, nil
}

func (r Resource) validate() error {
	if r.Path == "" {
		return fmt.Errorf("resource has no path")
	}
	set := 0
	if r.Content != "" {
		set++
	}
	if r.Data != nil {
		set++
	}
	if r.URL != "" {
		set++
		if err := validateURL(r.URL); err != nil {
			return fmt.Errorf("resource %s: %w", r.Path, err)
		}
	}
	if set != 1 {
		return fmt.Errorf("resource %s must set exactly one of content, data or url", r.Path)
	}
	return nil
}

type resourcePayload struct {
	Main    bool   `json:"main,omitempty"`
	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`
	File    string `json:"file,omitempty"`
	URL     string `json:"url,omitempty"`
}

type compilePayload struct {
	Compiler  string            `json:"compiler"`
	Resources []resourcePayload `json:"resources"`
}

// buildPayload validates req and shapes it the way the service expects
func buildPayload(req Request, opts Options) (*compilePayload, error) {
	if strings.TrimSpace(req.Source) == "" {
		return nil, texerror.Invalid(opCompile, "source is empty")
	}
	if !utf8.ValidString(req.Source) {
		return nil, texerror.Invalid(opCompile, "source is not valid UTF-8")
	}

	compiler := req.Compiler
	if compiler == "" {
		compiler = opts.Compiler
	}

	payload := &compilePayload{
		Compiler: compiler,
		Resources: []resourcePayload{{
			Main:    true,
			Path:    opts.MainFile,
			Content: req.Source,
		}},
	}

	for _, res := range req.Resources {
		if err := res.validate(); err != nil {
			return nil, texerror.New(texerror.InvalidInput, opCompile, err)
		}
		entry := resourcePayload{Path: res.Path, Content: res.Content, URL: res.URL}
		if res.Data != nil {
			entry.File = base64.StdEncoding.EncodeToString(res.Data)
		}
		payload.Resources = append(payload.Resources, entry)
	}

	return payload, nil
}
