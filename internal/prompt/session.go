package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formmap/pkg/formio"
	"github.com/goliatone/go-formmap/pkg/forms"
	"github.com/goliatone/go-formmap/pkg/mapping"
	"github.com/goliatone/go-formmap/pkg/schema"
	"github.com/goliatone/go-formmap/pkg/sources"
)

const (
	optionDone      = "Done"
	optionBack      = "Back"
	optionAdd       = "Add source"
	optionRemove    = "Remove a source"
	optionRemoveAll = "Remove all sources"
	optionSeparator = "Set separator"
	optionToggle    = "Expand/collapse"
	optionMap       = "Map this field"
	optionCancel    = "Cancel"
)

type group struct {
	prompt sources.Prompt
	paths  []schema.FieldPath
}

// Session walks a user through mapping schema fields onto a form. The source
// list shows a nested field only while all of its ancestors are expanded.
type Session struct {
	driver   Driver
	builder  *forms.Builder
	groups   []group
	expanded map[string]bool
}

// NewSession prepares a mapping session over the schemas in result.
func NewSession(driver Driver, builder *forms.Builder, result sources.Result) *Session {
	s := &Session{driver: driver, builder: builder, expanded: make(map[string]bool)}
	for _, ps := range result.Schemas {
		s.groups = append(s.groups, group{prompt: ps.Prompt, paths: schema.Paths(ps.Schema)})
	}
	return s
}

// Run loops until the user picks Done. Mapping changes are applied to the
// builder as they are made.
func (s *Session) Run(ctx context.Context) error {
	for {
		fields := s.builder.Fields()
		if len(fields) == 0 {
			return s.driver.Info(ctx, "The form has no mappable fields.")
		}
		options := make([]string, 0, len(fields)+1)
		for _, f := range fields {
			options = append(options, s.describeField(f))
		}
		options = append(options, optionDone)

		idx, err := s.driver.Select(ctx, SelectConfig{Message: "Form field", Options: options, PageSize: 15})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(fields) {
			return nil
		}
		if err := s.editField(ctx, fields[idx]); err != nil {
			return err
		}
	}
}

func (s *Session) describeField(f formio.FormField) string {
	label := fmt.Sprintf("%s (%s)", f.Key, f.Type)
	if f.Label != "" && f.Label != f.Key {
		label = fmt.Sprintf("%s %q", label, f.Label)
	}
	fm, ok := s.builder.Mappings()[f.Key]
	if !ok {
		return label
	}
	paths := make([]string, 0, len(fm.Sources))
	for _, src := range fm.Sources {
		paths = append(paths, src.SchemaFieldPath)
	}
	return fmt.Sprintf("%s <- %s", label, strings.Join(paths, " + "))
}

func (s *Session) editField(ctx context.Context, field formio.FormField) error {
	for {
		fm, mapped := s.builder.Mappings()[field.Key]
		options := []string{optionAdd}
		if mapped {
			options = append(options, optionRemove, optionRemoveAll)
			if fm.MappingType == mapping.Concatenated {
				options = append(options, optionSeparator)
			}
		}
		options = append(options, optionBack)

		idx, err := s.driver.Select(ctx, SelectConfig{Message: field.Key, Options: options})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(options) {
			return nil
		}

		switch options[idx] {
		case optionAdd:
			err = s.addSource(ctx, field)
		case optionRemove:
			err = s.removeSource(ctx, field.Key, fm)
		case optionRemoveAll:
			err = s.builder.RemoveAll(field.Key)
		case optionSeparator:
			err = s.setSeparator(ctx, field.Key, fm)
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

type entry struct {
	prompt sources.Prompt
	path   schema.FieldPath
	parent bool
}

func (s *Session) key(promptID, path string) string {
	return promptID + "\x00" + path
}

func (s *Session) entries() ([]entry, []string) {
	var list []entry
	var labels []string
	for _, g := range s.groups {
		expanded := make(map[string]bool)
		for _, p := range g.paths {
			if s.expanded[s.key(g.prompt.ID, p.Path)] {
				expanded[p.Path] = true
			}
		}
		for _, p := range schema.Visible(g.paths, expanded) {
			parent := p.HasChildren(g.paths)
			marker := "   "
			if parent {
				marker = "[+]"
				if expanded[p.Path] {
					marker = "[-]"
				}
			}
			list = append(list, entry{prompt: g.prompt, path: p, parent: parent})
			labels = append(labels, fmt.Sprintf("%s%s %s %s (%s)", strings.Repeat("  ", p.Depth), marker, g.prompt.Name, p.Path, p.Type))
		}
	}
	return list, labels
}

func (s *Session) addSource(ctx context.Context, field formio.FormField) error {
	for {
		list, labels := s.entries()
		if len(list) == 0 {
			return s.driver.Info(ctx, "No schema fields are available for the form's tags.")
		}
		labels = append(labels, optionCancel)
		idx, err := s.driver.Select(ctx, SelectConfig{Message: "Schema field for " + field.Key, Options: labels, PageSize: 20})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(list) {
			return nil
		}

		picked := list[idx]
		if picked.parent {
			choice, err := s.driver.Select(ctx, SelectConfig{Message: picked.path.Path, Options: []string{optionToggle, optionMap}})
			if err != nil {
				return err
			}
			if choice == 0 {
				k := s.key(picked.prompt.ID, picked.path.Path)
				s.expanded[k] = !s.expanded[k]
				continue
			}
		}

		src := mapping.SourceFromPath(picked.prompt.ID, picked.prompt.Name, picked.path)
		err = s.builder.Drop(field.Key, src)
		var incompatible *mapping.IncompatibleError
		if errors.As(err, &incompatible) {
			return s.driver.Info(ctx, fmt.Sprintf("Cannot map %s: %v", picked.path.Path, err))
		}
		return err
	}
}

func (s *Session) removeSource(ctx context.Context, key string, fm mapping.FieldMapping) error {
	options := make([]string, 0, len(fm.Sources)+1)
	for _, src := range fm.Sources {
		options = append(options, fmt.Sprintf("%s %s", src.PromptName, src.SchemaFieldPath))
	}
	options = append(options, optionCancel)
	idx, err := s.driver.Select(ctx, SelectConfig{Message: "Source to remove", Options: options})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(fm.Sources) {
		return nil
	}
	return s.builder.RemoveSource(key, idx)
}

func (s *Session) setSeparator(ctx context.Context, key string, fm mapping.FieldMapping) error {
	sep, err := s.driver.Input(ctx, InputConfig{
		Message:   "Separator",
		Default:   fm.Separator(),
		Help:      "Text placed between concatenated values. Empty restores a single space.",
		Validator: validateSeparator,
	})
	if err != nil {
		return err
	}
	return s.builder.SetSeparator(key, sep)
}

// maxSeparatorLen bounds a separator so prefilled values stay on one line.
const maxSeparatorLen = 16

func validateSeparator(sep string) error {
	if strings.ContainsAny(sep, "\r\n") {
		return errors.New("separator must fit on one line")
	}
	if n := utf8.RuneCountInString(sep); n > maxSeparatorLen {
		return fmt.Errorf("separator is %d characters long; the limit is %d", n, maxSeparatorLen)
	}
	return nil
}
