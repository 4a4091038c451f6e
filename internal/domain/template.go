package domain

import "github.com/wms-platform/labeltagctl/internal/apperr"

// LabelTemplate is an immutable parsed ZPL template: raw content plus
// the set of placeholder names it requires.
type LabelTemplate struct {
	Name         string
	Raw          string
	Placeholders map[string]struct{}
}

// NewLabelTemplate constructs a LabelTemplate from already-parsed
// placeholders. Parsing itself lives in internal/template, which is the
// only place that knows how to walk the raw content.
func NewLabelTemplate(name, raw string, placeholders map[string]struct{}) (*LabelTemplate, error) {
	if name == "" {
		return nil, apperr.ValidationError("label template name is required")
	}
	return &LabelTemplate{Name: name, Raw: raw, Placeholders: placeholders}, nil
}
