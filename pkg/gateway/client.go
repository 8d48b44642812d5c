// Package gateway is the client for the remote retrieval-augmented
// backend. Its three operations are stateless single round trips: no
// retry, no backoff, no client-side timeout beyond the caller's context.
// Failures carry the backend's own error message verbatim when one is
// decodable.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"docchat/pkg/logger"
)

// SummaryMode selects the level of detail of a summary.
type SummaryMode string

const (
	SummaryShort    SummaryMode = "short"
	SummaryMedium   SummaryMode = "medium"
	SummaryDetailed SummaryMode = "detailed"
)

// Valid reports whether m is one of the accepted modes.
func (m SummaryMode) Valid() bool {
	switch m {
	case SummaryShort, SummaryMedium, SummaryDetailed:
		return true
	}
	return false
}

// IngestResult is the backend's report for one submitted document.
type IngestResult struct {
	Status         string `json:"status"`
	ValidDocuments int    `json:"valid_documents"`
	ChunksCreated  int    `json:"chunks_created"`
}

// Answer is the backend's response to a question. Sources are opaque
// document references and may be empty.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Summary is the backend's response to a summarize request.
type Summary struct {
	Summary string `json:"summary"`
}

// Client is the Remote Query Gateway contract.
type Client interface {
	Ingest(ctx context.Context, filename string, r io.Reader) (IngestResult, error)
	Ask(ctx context.Context, question string) (Answer, error)
	Summarize(ctx context.Context, mode SummaryMode) (Summary, error)
}

// Error is a non-success gateway response. Message holds the backend's
// "detail" or "message" field verbatim when available, else a
// status-derived fallback.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// HTTPClient talks to the backend over its fixed REST contract.
type HTTPClient struct {
	base string
	hc   *http.Client
}

// New returns a client for the backend at base (e.g. "http://127.0.0.1:8000").
// When hc is nil, http.DefaultClient is used; the backend can be slow on
// large corpora, so no default timeout is imposed.
func New(base string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{base: base, hc: hc}
}

// Ingest submits one binary document for backend-side processing as a
// multipart upload under the "files" field.
func (c *HTTPClient) Ingest(ctx context.Context, filename string, r io.Reader) (_ IngestResult, err error) {
	defer func() { observe("ingest", err) }()
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("files", filename)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/upload", pr)
	if err != nil {
		return IngestResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.hc.Do(req)
	if err != nil {
		return IngestResult{}, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return IngestResult{}, decodeError(resp, "upload failed")
	}
	var out IngestResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return IngestResult{}, fmt.Errorf("invalid upload response: %w", err)
	}
	logger.Info("document_ingested", "file", filename, "valid", out.ValidDocuments, "chunks", out.ChunksCreated)
	return out, nil
}

// Ask submits a natural-language question.
func (c *HTTPClient) Ask(ctx context.Context, question string) (_ Answer, err error) {
	defer func() { observe("ask", err) }()
	u := c.base + "/ask?query=" + url.QueryEscape(question)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Answer{}, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return Answer{}, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Answer{}, decodeError(resp, "query failed")
	}
	var out Answer
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Answer{}, fmt.Errorf("invalid ask response: %w", err)
	}
	return out, nil
}

// Summarize requests a summary of previously ingested documents. The
// backend holds corpus state from prior Ingest calls; no content is
// re-submitted. Both the "summary" and the older "result" response field
// are accepted.
func (c *HTTPClient) Summarize(ctx context.Context, mode SummaryMode) (_ Summary, err error) {
	defer func() { observe("summarize", err) }()
	u := c.base + "/summarize?mode=" + url.QueryEscape(string(mode))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return Summary{}, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Summary{}, decodeError(resp, "summarization failed")
	}
	var raw struct {
		Summary string `json:"summary"`
		Result  string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Summary{}, fmt.Errorf("invalid summarize response: %w", err)
	}
	s := raw.Summary
	if s == "" {
		s = raw.Result
	}
	return Summary{Summary: s}, nil
}

// decodeError builds an *Error from a non-success response, preferring
// the backend's "detail" then "message" field, then the whole body when
// it is JSON, then a status-derived message.
func decodeError(resp *http.Response, what string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var fields struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	msg := ""
	if json.Unmarshal(body, &fields) == nil {
		if fields.Detail != "" {
			msg = fields.Detail
		} else if fields.Message != "" {
			msg = fields.Message
		} else if len(body) > 0 {
			msg = string(body)
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("%s with status %d", what, resp.StatusCode)
	}
	logger.Warn("gateway_error", "status", resp.StatusCode, "message", msg)
	return &Error{Status: resp.StatusCode, Message: msg}
}
