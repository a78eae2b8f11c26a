// Package api talks to the REST backend that stores prompts, schemas and
// form definitions.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formmap/pkg/editor"
	"github.com/goliatone/go-formmap/pkg/forms"
	"github.com/goliatone/go-formmap/pkg/schema"
	"github.com/goliatone/go-formmap/pkg/sources"
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: %s %s: status %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("api: %s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client implements sources.Backend, editor.Store and forms.Store.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  string
	logger *zap.Logger
}

var (
	_ sources.Backend = (*Client)(nil)
	_ editor.Store    = (*Client)(nil)
	_ forms.Store     = (*Client)(nil)
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// New validates cfg and constructs a Client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("api: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api: invalid base URL %q", raw)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{base: base, http: client, token: cfg.Token, logger: logger}, nil
}

// PromptsByTags lists the prompts carrying every tag in tagIDs.
func (c *Client) PromptsByTags(ctx context.Context, tagIDs []string) ([]sources.Prompt, error) {
	query := url.Values{}
	if len(tagIDs) > 0 {
		query.Set("tags", strings.Join(tagIDs, ","))
	}
	var body json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/prompts", query, nil, &body); err != nil {
		return nil, err
	}

	var prompts []sources.Prompt
	if err := json.Unmarshal(body, &prompts); err == nil {
		return prompts, nil
	}
	var page struct {
		Data []sources.Prompt `json:"data"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("api: decode prompts: %w", err)
	}
	return page.Data, nil
}

// LatestSchema fetches the latest revision of a schema. Revisions may wrap the
// document in a response format envelope or return it bare.
func (c *Client) LatestSchema(ctx context.Context, schemaID string) (*schema.Schema, error) {
	if strings.TrimSpace(schemaID) == "" {
		return nil, errors.New("api: schema id is required")
	}
	var body json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/schemas/"+url.PathEscape(schemaID)+"/revisions/latest", nil, nil, &body); err != nil {
		return nil, err
	}

	var envelope struct {
		ResponseFormat *struct {
			JSONSchema *struct {
				Schema json.RawMessage `json:"schema"`
			} `json:"json_schema"`
		} `json:"response_format"`
	}
	doc := []byte(body)
	if err := json.Unmarshal(body, &envelope); err == nil &&
		envelope.ResponseFormat != nil && envelope.ResponseFormat.JSONSchema != nil &&
		len(envelope.ResponseFormat.JSONSchema.Schema) > 0 {
		doc = envelope.ResponseFormat.JSONSchema.Schema
	}
	s, err := schema.Parse(string(doc))
	if err != nil {
		return nil, fmt.Errorf("api: decode schema %q: %w", schemaID, err)
	}
	return s, nil
}

// SaveSchema stores s as the new revision of schema id.
func (c *Client) SaveSchema(ctx context.Context, id string, s *schema.Schema) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("api: schema id is required")
	}
	payload := struct {
		JSONSchema *schema.Schema `json:"json_schema"`
	}{JSONSchema: s}
	return c.do(ctx, http.MethodPut, "/schemas/"+url.PathEscape(id), nil, payload, nil)
}

// Form fetches a form definition.
func (c *Client) Form(ctx context.Context, id string) (*forms.Form, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("api: form id is required")
	}
	var body json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/forms/"+url.PathEscape(id), nil, nil, &body); err != nil {
		return nil, err
	}
	return forms.Decode(body)
}

// SaveForm stores a form definition together with its field mappings.
func (c *Client) SaveForm(ctx context.Context, form *forms.Form) error {
	if form == nil || strings.TrimSpace(form.ID) == "" {
		return errors.New("api: form id is required")
	}
	return c.do(ctx, http.MethodPut, "/forms/"+url.PathEscape(form.ID), nil, form, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := *c.base
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	target := endpoint.String()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, target, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("method", method), zap.String("url", target), zap.Error(err))
		return fmt.Errorf("api: %s %s: %w", method, target, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, URL: target, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", method, target, err)
	}
	return nil
}
