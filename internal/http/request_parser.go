// Package http serves the ledger page, its JSON API and the probes.
package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"splitter/internal/core"
)

// maxBodyBytes caps request bodies; the API only ever receives a few fields.
const maxBodyBytes = 64 << 10

// ErrMalformedBody is returned for bodies that are neither valid JSON nor a
// valid form encoding.
var ErrMalformedBody = errors.New("malformed request body")

// RequestBodyParser reads a mutation body once and exposes its fields, so
// htmx forms and JSON clients share one handler.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser buffers at most maxBodyBytes of r's body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", ErrMalformedBody, p.err)
	}
	return p
}

// Parse decodes the body as JSON when declared or when it looks like a JSON
// object, and as a form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.declaresJSON() || trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil || p.jsonData == nil {
			p.jsonData = nil
			p.err = fmt.Errorf("%w: expected a JSON object", ErrMalformedBody)
			return p.err
		}
		return nil
	}

	form, err := url.ParseQuery(string(trimmed))
	if err != nil {
		p.err = fmt.Errorf("%w: %v", ErrMalformedBody, err)
		return p.err
	}
	p.formData = form
	return nil
}

func (p *RequestBodyParser) declaresJSON() bool {
	mt, _, err := mime.ParseMediaType(p.contentType)
	return err == nil && mt == "application/json"
}

// Get returns the trimmed, control-free value of key, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Amount reads key as an expense amount. JSON numbers are taken as-is and
// validated by the ledger; strings go through core.ParseAmount so that
// "12,50" from a form is accepted.
func (p *RequestBodyParser) Amount(key string) (float64, error) {
	if p.jsonData != nil {
		if n, ok := p.jsonData[key].(json.Number); ok {
			v, err := n.Float64()
			if err != nil {
				return 0, &core.ValidationError{Field: "amount", Value: n.String(), Err: core.ErrInvalidAmount}
			}
			return v, nil
		}
	}
	return core.ParseAmount(p.Get(key))
}

// isJSON reports whether the body was decoded as a JSON object.
func (p *RequestBodyParser) isJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to a string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
