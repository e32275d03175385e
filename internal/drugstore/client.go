// Package drugstore is a thin client for the drug store REST API exercised
// by the smoke checks. It reports status codes and raw bodies and leaves
// judging them to the caller.
package drugstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/camel-workshop/tester/internal/metrics"
	"github.com/camel-workshop/tester/internal/version"
)

const basePath = "/store/drug"

// UploadField is the multipart form field the service reads the PDF from.
const UploadField = "upload_file"

// Drug is the write model accepted by create and update.
type Drug struct {
	ProductNdc string `json:"productNdc"`
	Price      int    `json:"price"`
	Existences int    `json:"existences"`
	Status     string `json:"status"`
}

// Response is a completed exchange with the service.
type Response struct {
	Status int
	Body   []byte
}

// Shape errors mark a body that is valid JSON of the wrong kind.
var (
	ErrNotObject = errors.New("not a JSON object")
	ErrNotArray  = errors.New("not a JSON array of objects")
)

// Object decodes the body as a JSON object.
func (r *Response) Object() (map[string]any, error) {
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w, got %s", ErrNotObject, kindOf(v))
	}
	return m, nil
}

// Array decodes the body as a JSON array of objects.
func (r *Response) Array() ([]map[string]any, error) {
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w, got %s", ErrNotArray, kindOf(v))
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w, got an element of type %s", ErrNotArray, kindOf(it))
		}
		out = append(out, m)
	}
	return out, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Log     *slog.Logger
}

func New(baseURL string, httpc *http.Client, log *slog.Logger) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{BaseURL: baseURL, HTTP: httpc, Log: log}
}

func (c *Client) Create(ctx context.Context, d Drug) (*Response, error) {
	return c.sendJSON(ctx, "create", http.MethodPost, basePath+"/create", d)
}

func (c *Client) Update(ctx context.Context, d Drug) (*Response, error) {
	return c.sendJSON(ctx, "update", http.MethodPut, basePath+"/update", d)
}

func (c *Client) Get(ctx context.Context, ndc string) (*Response, error) {
	return c.do(ctx, "get", http.MethodGet, basePath+"/"+url.PathEscape(ndc), nil, "")
}

// Disable soft-deletes a drug; the service flips its status to INACTIVE.
func (c *Client) Disable(ctx context.Context, ndc string) (*Response, error) {
	return c.do(ctx, "disable", http.MethodDelete, basePath+"/"+url.PathEscape(ndc), nil, "")
}

func (c *Client) UploadPDF(ctx context.Context, filename string, data []byte) (*Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(UploadField, filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return c.do(ctx, "upload", http.MethodPost, basePath+"/uploadPdf", &buf, mw.FormDataContentType())
}

func (c *Client) DownloadPDF(ctx context.Context, filename string) (*Response, error) {
	return c.do(ctx, "download", http.MethodGet, basePath+"/getPdf/"+url.PathEscape(filename), nil, "")
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, v any) (*Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, op, method, path, bytes.NewReader(b), "application/json")
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	start := time.Now()
	resp, err := c.HTTP.Do(req)
	metrics.ObserveTarget(op, time.Since(start))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}
	c.Log.Debug("target response", slog.String("op", op), slog.String("method", method), slog.String("path", path), slog.Int("status", resp.StatusCode), slog.Int("bytes", len(b)), slog.String("body", preview(b)))
	return &Response{Status: resp.StatusCode, Body: b}, nil
}

func preview(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
