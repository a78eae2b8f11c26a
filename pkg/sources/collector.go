// Package sources gathers the schema fields that can feed a form: the prompts
// tagged like the form and the latest schema of each.
package sources

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formmap/pkg/mapping"
	"github.com/goliatone/go-formmap/pkg/schema"
)

// Prompt is an extraction prompt as listed by the backend.
type Prompt struct {
	ID         string `json:"id"`
	RevisionID string `json:"revisionId,omitempty"`
	Name       string `json:"name"`
	SchemaID   string `json:"schemaId,omitempty"`
}

func (p Prompt) identity() string {
	if p.RevisionID != "" {
		return p.RevisionID
	}
	return p.ID
}

// Backend lists prompts and schemas. PromptsByTags returns prompts carrying
// every tag in tagIDs.
type Backend interface {
	PromptsByTags(ctx context.Context, tagIDs []string) ([]Prompt, error)
	LatestSchema(ctx context.Context, schemaID string) (*schema.Schema, error)
}

// PromptSchema pairs a prompt with its schema.
type PromptSchema struct {
	Prompt Prompt
	Schema *schema.Schema
}

// Failure records a request that did not succeed.
type Failure struct {
	PromptID string
	TagID    string
	Err      error
}

func (f Failure) Error() string {
	if f.TagID != "" {
		return fmt.Sprintf("sources: list prompts for tag %q: %v", f.TagID, f.Err)
	}
	return fmt.Sprintf("sources: load schema for prompt %q: %v", f.PromptID, f.Err)
}

// Result holds what could be loaded. Failures never abort sibling requests.
type Result struct {
	Schemas  []PromptSchema
	Failures []Failure
}

// Candidate is one schema field that can be dropped onto a form field.
type Candidate struct {
	Source mapping.Source
	Field  schema.FieldPath
}

// Candidates flattens every loaded schema into mapping sources, grouped by
// prompt in the order the schemas were collected.
func (r Result) Candidates() []Candidate {
	var out []Candidate
	for _, ps := range r.Schemas {
		for _, path := range schema.Paths(ps.Schema) {
			out = append(out, Candidate{
				Source: mapping.SourceFromPath(ps.Prompt.ID, ps.Prompt.Name, path),
				Field:  path,
			})
		}
	}
	return out
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger used for failed requests.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Collector loads prompts and schemas for a set of tags.
type Collector struct {
	backend Backend
	logger  *zap.Logger
}

// NewCollector constructs a collector backed by backend.
func NewCollector(backend Backend, options ...Option) *Collector {
	c := &Collector{backend: backend, logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Collect lists the prompts tagged with any of tagIDs and loads their latest
// schemas. The backend only intersects tags, so each tag is queried on its own
// and the union is deduplicated by prompt revision. Schema fetches run
// concurrently; if ctx is done once they finish, the results are discarded.
func (c *Collector) Collect(ctx context.Context, tagIDs []string) (Result, error) {
	if c.backend == nil {
		return Result{}, fmt.Errorf("sources: backend is nil")
	}

	var result Result
	prompts := c.listPrompts(ctx, tagIDs, &result)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	schemas := make([]*schema.Schema, len(prompts))
	errs := make([]error, len(prompts))
	var wg sync.WaitGroup
	for idx, prompt := range prompts {
		wg.Add(1)
		go func(idx int, prompt Prompt) {
			defer wg.Done()
			s, err := c.backend.LatestSchema(ctx, prompt.SchemaID)
			if err == nil && s == nil {
				err = fmt.Errorf("schema %q not found", prompt.SchemaID)
			}
			schemas[idx], errs[idx] = s, err
		}(idx, prompt)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	for idx, prompt := range prompts {
		if errs[idx] != nil {
			failure := Failure{PromptID: prompt.ID, Err: errs[idx]}
			c.logger.Warn("schema fetch failed",
				zap.String("prompt", prompt.ID),
				zap.String("schema", prompt.SchemaID),
				zap.Error(errs[idx]),
			)
			result.Failures = append(result.Failures, failure)
			continue
		}
		result.Schemas = append(result.Schemas, PromptSchema{Prompt: prompt, Schema: schemas[idx]})
	}
	return result, nil
}

func (c *Collector) listPrompts(ctx context.Context, tagIDs []string, result *Result) []Prompt {
	seen := make(map[string]bool)
	var prompts []Prompt
	for _, tag := range uniqueTags(tagIDs) {
		if ctx.Err() != nil {
			return nil
		}
		listed, err := c.backend.PromptsByTags(ctx, []string{tag})
		if err != nil {
			c.logger.Warn("prompt listing failed", zap.String("tag", tag), zap.Error(err))
			result.Failures = append(result.Failures, Failure{TagID: tag, Err: err})
			continue
		}
		for _, p := range listed {
			if strings.TrimSpace(p.SchemaID) == "" {
				continue
			}
			key := p.identity()
			if seen[key] {
				continue
			}
			seen[key] = true
			prompts = append(prompts, p)
		}
	}
	sort.SliceStable(prompts, func(i, j int) bool {
		return prompts[i].Name < prompts[j].Name
	})
	return prompts
}

func uniqueTags(tagIDs []string) []string {
	seen := make(map[string]bool, len(tagIDs))
	out := make([]string, 0, len(tagIDs))
	for _, tag := range tagIDs {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
