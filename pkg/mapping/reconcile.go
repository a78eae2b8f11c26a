package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formmap/pkg/formio"
)

// Report describes what a reconciliation did.
type Report struct {
	Changed bool
	// Renamed maps the old form field key to the key the mapping moved to.
	Renamed map[string]string
	Removed []string
}

// Summary renders the report as "N renamed, M removed".
func (r Report) Summary() string {
	return fmt.Sprintf("%d renamed, %d removed", len(r.Renamed), len(r.Removed))
}

// Reconcile repairs m after the form changed from prev to next. A mapping whose
// key disappeared moves to the single new unmapped field that matches the old
// field by label, or by type and a case-insensitive label substring. With zero
// or several candidates the mapping is dropped. Orphans are processed in key
// order and a field claimed by one move is not offered to the next.
func Reconcile(prev, next []formio.FormField, m Mappings) (Mappings, Report) {
	if formio.SameKeys(prev, next) {
		return m, Report{}
	}

	report := Report{Changed: true, Renamed: make(map[string]string)}
	prevIdx := formio.Index(prev)
	nextIdx := formio.Index(next)

	var unmapped []formio.FormField
	seen := make(map[string]bool)
	for _, f := range next {
		if _, existed := prevIdx[f.Key]; existed || seen[f.Key] {
			continue
		}
		seen[f.Key] = true
		if _, mapped := m[f.Key]; !mapped {
			unmapped = append(unmapped, f)
		}
	}

	out := m.Clone()
	claimed := make(map[string]bool)
	for _, key := range m.Keys() {
		if _, ok := nextIdx[key]; ok {
			continue
		}
		old, known := prevIdx[key]
		if !known {
			old = formio.FormField{Key: key}
		}
		candidates := renameCandidates(old, unmapped, claimed)
		if len(candidates) == 1 {
			target := candidates[0].Key
			out[target] = out[key]
			delete(out, key)
			claimed[target] = true
			report.Renamed[key] = target
			continue
		}
		delete(out, key)
		report.Removed = append(report.Removed, key)
	}
	sort.Strings(report.Removed)
	return out, report
}

func renameCandidates(old formio.FormField, unmapped []formio.FormField, claimed map[string]bool) []formio.FormField {
	var out []formio.FormField
	oldLabel := strings.ToLower(strings.TrimSpace(old.Label))
	for _, f := range unmapped {
		if claimed[f.Key] {
			continue
		}
		if old.Label != "" && f.Label == old.Label {
			out = append(out, f)
			continue
		}
		label := strings.ToLower(strings.TrimSpace(f.Label))
		if oldLabel == "" || label == "" || !strings.EqualFold(f.Type, old.Type) {
			continue
		}
		if strings.Contains(label, oldLabel) || strings.Contains(oldLabel, label) {
			out = append(out, f)
		}
	}
	return out
}

// Tracker remembers the last seen form fields so callers can reconcile on
// every component tree change.
type Tracker struct {
	fields []formio.FormField
	primed bool
}

// NewTracker starts tracking from fields.
func NewTracker(fields []formio.FormField) *Tracker {
	return &Tracker{fields: append([]formio.FormField(nil), fields...), primed: true}
}

// Observe records next as the current form shape and reconciles m against the
// previous one. The first observation of an unprimed tracker only records.
func (t *Tracker) Observe(next []formio.FormField, m Mappings) (Mappings, Report) {
	if !t.primed {
		t.fields = append([]formio.FormField(nil), next...)
		t.primed = true
		return m, Report{}
	}
	out, report := Reconcile(t.fields, next, m)
	t.fields = append([]formio.FormField(nil), next...)
	return out, report
}

// Fields returns the last observed form fields.
func (t *Tracker) Fields() []formio.FormField {
	return append([]formio.FormField(nil), t.fields...)
}
