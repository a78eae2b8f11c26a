// Package mcp exposes the schema and mapping operations as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/goliatone/go-formmap/internal/config"
	"github.com/goliatone/go-formmap/pkg/formio"
	"github.com/goliatone/go-formmap/pkg/mapping"
	"github.com/goliatone/go-formmap/pkg/schema"
)

// Server wraps the MCP server and its tool handlers.
type Server struct {
	config    *config.Config
	logger    *zap.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a server with every tool registered.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("mcp: config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config:    cfg,
		logger:    logger,
		mcpServer: server.NewMCPServer(cfg.Name, cfg.Version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("validate_schema",
		mcp.WithDescription("Validate a strict JSON Schema document and report errors with line numbers"),
		mcp.WithString("schema", mcp.Required(), mcp.Description("JSON Schema text")),
	), s.handleValidateSchema)

	s.mcpServer.AddTool(mcp.NewTool("fields_to_schema",
		mcp.WithDescription("Convert an editor field list into a strict JSON Schema document"),
		mcp.WithString("fields", mcp.Required(), mcp.Description("JSON array of fields (name, type, description, nestedFields, arrayItemType, arrayObjectFields)")),
	), s.handleFieldsToSchema)

	s.mcpServer.AddTool(mcp.NewTool("schema_to_fields",
		mcp.WithDescription("Convert a JSON Schema document into the editor field list"),
		mcp.WithString("schema", mcp.Required(), mcp.Description("JSON Schema text")),
	), s.handleSchemaToFields)

	s.mcpServer.AddTool(mcp.NewTool("schema_paths",
		mcp.WithDescription("List the dot/bracket paths of every field in a JSON Schema document"),
		mcp.WithString("schema", mcp.Required(), mcp.Description("JSON Schema text")),
	), s.handleSchemaPaths)

	s.mcpServer.AddTool(mcp.NewTool("flatten_form",
		mcp.WithDescription("List the mappable input fields of a Form.io component tree"),
		mcp.WithString("components", mcp.Required(), mcp.Description("Form.io components array or form definition")),
	), s.handleFlattenForm)

	s.mcpServer.AddTool(mcp.NewTool("check_compatibility",
		mcp.WithDescription("Check whether a schema field type can populate a form field type"),
		mcp.WithString("schema_type", mcp.Required(), mcp.Description("Schema field type, e.g. string or object")),
		mcp.WithString("form_type", mcp.Required(), mcp.Description("Form component type, e.g. textfield")),
	), s.handleCheckCompatibility)

	s.mcpServer.AddTool(mcp.NewTool("reconcile_mappings",
		mcp.WithDescription("Repair field mappings after a form's components changed"),
		mcp.WithString("previous", mcp.Required(), mcp.Description("Components before the change")),
		mcp.WithString("current", mcp.Required(), mcp.Description("Components after the change")),
		mcp.WithString("mappings", mcp.Required(), mcp.Description("fieldMappings object")),
	), s.handleReconcile)

	s.mcpServer.AddTool(mcp.NewTool("prefill_form",
		mcp.WithDescription("Resolve field mappings against extraction results keyed by prompt id"),
		mcp.WithString("mappings", mcp.Required(), mcp.Description("fieldMappings object")),
		mcp.WithString("results", mcp.Required(), mcp.Description("Extraction results keyed by prompt id")),
	), s.handlePrefill)
}

func (s *Server) handleValidateSchema(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("schema")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(schema.Validate(text))
}

func (s *Server) handleFieldsToSchema(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var fields []schema.Field
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid fields: %v", err)), nil
	}
	if err := schema.CheckFields(fields); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := schema.FieldsToSchema(fields).Indent()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSchemaToFields(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, errResult := parseSchemaArg(request, "schema")
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(schema.SchemaToFields(doc))
}

func (s *Server) handleSchemaPaths(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, errResult := parseSchemaArg(request, "schema")
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(schema.Paths(doc))
}

func (s *Server) handleFlattenForm(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fields, errResult := formFieldsArg(request, "components")
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(fields)
}

func (s *Server) handleCheckCompatibility(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schemaType, err := request.RequireString("schema_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	formType, err := request.RequireString("form_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if mapping.IsCompatibleType(schemaType, formType) {
		return mcp.NewToolResultText(fmt.Sprintf("compatible: a %s schema field can populate a %s field", schemaType, formType)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("incompatible: a %s schema field cannot populate a %s field", schemaType, formType)), nil
}

func (s *Server) handleReconcile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prev, errResult := formFieldsArg(request, "previous")
	if errResult != nil {
		return errResult, nil
	}
	next, errResult := formFieldsArg(request, "current")
	if errResult != nil {
		return errResult, nil
	}
	m, errResult := mappingsArg(request, "mappings")
	if errResult != nil {
		return errResult, nil
	}

	out, report := mapping.Reconcile(prev, next, m)
	s.logger.Debug("reconciled mappings", zap.String("summary", report.Summary()))
	return jsonResult(map[string]any{
		"fieldMappings": out,
		"renamed":       report.Renamed,
		"removed":       report.Removed,
		"summary":       report.Summary(),
	})
}

func (s *Server) handlePrefill(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, errResult := mappingsArg(request, "mappings")
	if errResult != nil {
		return errResult, nil
	}
	raw, err := request.RequireString("results")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var results map[string]any
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid results: %v", err)), nil
	}
	return jsonResult(mapping.Prefill(m, results))
}

func parseSchemaArg(request mcp.CallToolRequest, name string) (*schema.Schema, *mcp.CallToolResult) {
	text, err := request.RequireString(name)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	doc, err := schema.Parse(text)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return doc, nil
}

func formFieldsArg(request mcp.CallToolRequest, name string) ([]formio.FormField, *mcp.CallToolResult) {
	raw, err := request.RequireString(name)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	components, err := formio.Decode([]byte(raw))
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return formio.Flatten(components), nil
}

func mappingsArg(request mcp.CallToolRequest, name string) (mapping.Mappings, *mcp.CallToolResult) {
	raw, err := request.RequireString(name)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	var m mapping.Mappings
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid mappings: %v", err))
	}
	if err := mapping.Validate(m); err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return m, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Run serves the tools over stdio until the client disconnects.
func (s *Server) Run(_ context.Context) error {
	if s.config.Mode != config.ModeStdio {
		return fmt.Errorf("mcp: unsupported mode %q", s.config.Mode)
	}
	s.logger.Info("serving MCP over stdio", zap.String("name", s.config.Name), zap.String("version", s.config.Version))
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("mcp: stdio server: %w", err)
	}
	return nil
}
