package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formmap/internal/api"
	"github.com/goliatone/go-formmap/internal/prompt"
	"github.com/goliatone/go-formmap/pkg/forms"
	"github.com/goliatone/go-formmap/pkg/mapping"
	"github.com/goliatone/go-formmap/pkg/openapi"
	"github.com/goliatone/go-formmap/pkg/schema"
	"github.com/goliatone/go-formmap/pkg/sources"
)

func validateCommand() command {
	return command{
		name:    "validate",
		usage:   "<schema>",
		summary: "Check a JSON Schema document against the strict structured-output rules",
		flags: func(fs *pflag.FlagSet) {
			fs.Bool("json", false, "Print the result as JSON")
		},
		run: func(ctx context.Context, e *env, fs *pflag.FlagSet) error {
			raw, err := singleArg(fs, "schema")
			if err != nil {
				return err
			}
			doc, err := loadDocument(ctx, e, raw)
			if err != nil {
				return err
			}
			result := doc.Validate()

			if asJSON, _ := fs.GetBool("json"); asJSON {
				if err := writeJSON(e.stdout, result); err != nil {
					return err
				}
			} else {
				printResult(e.stdout, doc.Location(), result)
			}
			if !result.Valid() {
				return errInvalid
			}
			return nil
		},
	}
}

func printResult(w io.Writer, location string, result schema.ValidationResult) {
	for _, issue := range result.Errors {
		switch {
		case issue.Line > 0 && issue.Column > 0:
			fmt.Fprintf(w, "%s:%d:%d: error: %s\n", location, issue.Line, issue.Column, issue.Message)
		case issue.Line > 0:
			fmt.Fprintf(w, "%s:%d: error: %s\n", location, issue.Line, issue.Message)
		default:
			fmt.Fprintf(w, "%s: error: %s\n", location, issue.Message)
		}
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "%s: warning: %s\n", location, warning.Message)
	}
	if result.Valid() {
		fmt.Fprintf(w, "%s: ok (%d warnings)\n", location, len(result.Warnings))
	}
}

func convertCommand() command {
	return command{
		name:    "convert",
		usage:   "<document>",
		summary: "Convert between a JSON Schema document and the editor field list",
		flags: func(fs *pflag.FlagSet) {
			fs.String("from", "schema", "Input kind (schema, fields)")
			fs.String("format", "json", "Field list output format (json, yaml)")
		},
		run: func(ctx context.Context, e *env, fs *pflag.FlagSet) error {
			raw, err := singleArg(fs, "document")
			if err != nil {
				return err
			}
			from, _ := fs.GetString("from")
			format, _ := fs.GetString("format")

			switch from {
			case "schema":
				doc, err := loadDocument(ctx, e, raw)
				if err != nil {
					return err
				}
				s, err := doc.Schema()
				if err != nil {
					return err
				}
				return writeFormatted(e.stdout, format, schema.SchemaToFields(s))
			case "fields":
				data, err := readBytes(ctx, e, raw)
				if err != nil {
					return err
				}
				fields, err := decodeFields(data)
				if err != nil {
					return err
				}
				if err := schema.CheckFields(fields); err != nil {
					return err
				}
				return writeSchema(e.stdout, schema.FieldsToSchema(fields))
			default:
				return fmt.Errorf("unknown input kind %q (must be schema or fields)", from)
			}
		},
	}
}

// decodeFields accepts a field list as JSON or YAML.
func decodeFields(data []byte) ([]schema.Field, error) {
	var fields []schema.Field
	if err := json.Unmarshal(data, &fields); err == nil {
		return fields, nil
	}
	fields = nil
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parse field list: invalid JSON or YAML")
	}
	return fields, nil
}

func pathsCommand() command {
	return command{
		name:    "paths",
		usage:   "<schema>",
		summary: "List the mappable field paths of a schema",
		flags: func(fs *pflag.FlagSet) {
			fs.Bool("json", false, "Print the paths as JSON")
		},
		run: func(ctx context.Context, e *env, fs *pflag.FlagSet) error {
			raw, err := singleArg(fs, "schema")
			if err != nil {
				return err
			}
			doc, err := loadDocument(ctx, e, raw)
			if err != nil {
				return err
			}
			s, err := doc.Schema()
			if err != nil {
				return err
			}
			paths := schema.Paths(s)
			if asJSON, _ := fs.GetBool("json"); asJSON {
				return writeJSON(e.stdout, paths)
			}
			for _, p := range paths {
				fmt.Fprintf(e.stdout, "%s%s (%s)\n", strings.Repeat("  ", p.Depth), p.Path, p.Type)
			}
			return nil
		},
	}
}

func importCommand() command {
	return command{
		name:    "import-openapi",
		usage:   "<openapi-document>",
		summary: "Build a strict schema from an OpenAPI component",
		flags: func(fs *pflag.FlagSet) {
			fs.String("component", "", "Component schema to import; lists components when empty")
			fs.String("output", "schema", "Output kind (schema, fields)")
			fs.String("format", "json", "Field list output format (json, yaml)")
		},
		run: func(ctx context.Context, e *env, fs *pflag.FlagSet) error {
			raw, err := singleArg(fs, "openapi-document")
			if err != nil {
				return err
			}
			data, err := readBytes(ctx, e, raw)
			if err != nil {
				return err
			}

			name, _ := fs.GetString("component")
			if name == "" {
				names, err := openapi.Components(ctx, data)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(e.stdout, n)
				}
				return nil
			}

			fields, err := openapi.ImportComponent(ctx, data, name)
			if err != nil {
				return err
			}
			e.logger.Debug("imported component", zap.String("component", name), zap.Int("fields", len(fields)))

			output, _ := fs.GetString("output")
			switch output {
			case "schema":
				return writeSchema(e.stdout, schema.FieldsToSchema(fields))
			case "fields":
				format, _ := fs.GetString("format")
				return writeFormatted(e.stdout, format, fields)
			default:
				return fmt.Errorf("unknown output kind %q (must be schema or fields)", output)
			}
		},
	}
}

func reconcileCommand() command {
	return command{
		name:    "reconcile",
		usage:   "<previous-form> <current-form>",
		summary: "Carry field mappings over to an edited form, following renamed keys",
		flags: func(fs *pflag.FlagSet) {
			fs.StringP("out", "o", "", "Write the reconciled form to a file instead of stdout")
		},
		run: func(ctx context.Context, e *env, fs *pflag.FlagSet) error {
			if fs.NArg() != 2 {
				return errors.New("expected <previous-form> <current-form>")
			}
			prev, err := loadForm(ctx, e, fs.Arg(0))
			if err != nil {
				return err
			}
			next, err := loadForm(ctx, e, fs.Arg(1))
			if err != nil {
				return err
			}

			out, report := mapping.Reconcile(prev.Fields(), next.Fields(), prev.FieldMappings)
			next.FieldMappings = out
			for oldKey, newKey := range report.Renamed {
				e.logger.Info("mapping renamed", zap.String("from", oldKey), zap.String("to", newKey))
			}
			for _, key := range report.Removed {
				e.logger.Info("mapping removed", zap.String("field", key))
			}
			fmt.Fprintf(e.stderr, "reconciled: %s\n", report.Summary())

			data, err := forms.Encode(next)
			if err != nil {
				return err
			}
			path, _ := fs.GetString("out")
			return writeOutput(e.stdout, path, data)
		},
	}
}

func prefillCommand() command {
	return command{
		name:    "prefill",
		usage:   "<form> <results>",
		summary: "Resolve a form's mappings against extraction results keyed by prompt id",
		run: func(ctx context.Context, e *env, fs *pflag.FlagSet) error {
			if fs.NArg() != 2 {
				return errors.New("expected <form> <results>")
			}
			form, err := loadForm(ctx, e, fs.Arg(0))
			if err != nil {
				return err
			}
			data, err := readBytes(ctx, e, fs.Arg(1))
			if err != nil {
				return err
			}
			var results map[string]any
			if err := json.Unmarshal(data, &results); err != nil {
				return fmt.Errorf("parse results: %w", err)
			}
			return writeJSON(e.stdout, mapping.Prefill(form.FieldMappings, results))
		},
	}
}

func mapCommand() command {
	return command{
		name:    "map",
		usage:   "[form-file]",
		summary: "Interactively map form fields to prompt schema fields",
		flags: func(fs *pflag.FlagSet) {
			fs.String("form-id", "", "Fetch the form from the API instead of a file")
			fs.StringSlice("tags", nil, "Tag ids selecting the prompts; defaults to the form's tags")
			fs.StringP("out", "o", "", "Write the mapped form to a file instead of saving it through the API")
		},
		run: runMap,
	}
}

func runMap(ctx context.Context, e *env, fs *pflag.FlagSet) error {
	if !e.cfg.HasAPI() {
		return errors.New("map needs --api-url (or FORMMAP_API_URL) to look up prompt schemas")
	}
	client, err := api.New(api.Config{
		BaseURL: e.cfg.APIURL,
		Token:   e.cfg.APIToken,
		Timeout: e.cfg.Timeout,
		Logger:  e.logger.Named("api"),
	})
	if err != nil {
		return err
	}

	formID, _ := fs.GetString("form-id")
	var form *forms.Form
	switch {
	case fs.NArg() == 1:
		form, err = loadForm(ctx, e, fs.Arg(0))
	case formID != "":
		form, err = client.Form(ctx, formID)
	default:
		return errors.New("expected a form file or --form-id")
	}
	if err != nil {
		return err
	}

	tags, _ := fs.GetStringSlice("tags")
	if len(tags) == 0 {
		tags = form.TagIDs
	}
	if len(tags) == 0 {
		return errors.New("no tags given and the form carries none")
	}

	collector := sources.NewCollector(client, sources.WithLogger(e.logger.Named("sources")))
	result, err := collector.Collect(ctx, tags)
	if err != nil {
		return err
	}
	for _, failure := range result.Failures {
		fmt.Fprintf(e.stderr, "warning: %v\n", failure)
	}

	driver := prompt.NewSurveyDriver()
	builder := forms.NewBuilder(*form, forms.WithLogger(e.logger.Named("forms")))
	if err := prompt.NewSession(driver, builder, result).Run(ctx); err != nil {
		return err
	}

	if path, _ := fs.GetString("out"); path != "" {
		mapped := builder.Form()
		data, err := forms.Encode(&mapped)
		if err != nil {
			return err
		}
		return writeOutput(e.stdout, path, data)
	}

	save, err := driver.Confirm(ctx, prompt.ConfirmConfig{Message: "Save mappings?", Default: true})
	if err != nil || !save {
		return err
	}
	if err := builder.Save(ctx, client); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "saved %d mappings to form %q\n", len(builder.Mappings()), form.ID)
	return nil
}

func singleArg(fs *pflag.FlagSet, name string) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one <%s> argument", name)
	}
	return fs.Arg(0), nil
}

func readBytes(ctx context.Context, e *env, raw string) ([]byte, error) {
	src, err := schema.ParseSource(raw)
	if err != nil {
		return nil, err
	}
	return e.loader.Bytes(ctx, src)
}

func loadDocument(ctx context.Context, e *env, raw string) (schema.Document, error) {
	src, err := schema.ParseSource(raw)
	if err != nil {
		return schema.Document{}, err
	}
	return e.loader.Load(ctx, src)
}

func loadForm(ctx context.Context, e *env, raw string) (*forms.Form, error) {
	data, err := readBytes(ctx, e, raw)
	if err != nil {
		return nil, err
	}
	return forms.Decode(data)
}

func writeSchema(w io.Writer, s *schema.Schema) error {
	text, err := s.Indent()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, text)
	return err
}

func writeFormatted(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		return writeJSON(w, v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (must be json or yaml)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(stdout, string(data))
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
