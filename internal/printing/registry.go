// Package printing loads the printer inventory and routing rules and drives the ZPL-over-TCP wire transport.
package printing

import (
	"context"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wms-platform/labeltagctl/internal/apperr"
	"github.com/wms-platform/labeltagctl/internal/domain"
)

// printerFile is the on-disk shape of the printer inventory. Unknown
// fields are ignored by yaml.v3's default decode behaviour.
type printerFile struct {
	Printers []printerEntry `yaml:"printers"`
}

type printerEntry struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	IP           string            `yaml:"ip"`
	Port         int               `yaml:"port"`
	Tags         map[string]string `yaml:"tags"`
	LocationHint string            `yaml:"locationHint"`
	Enabled      *bool             `yaml:"enabled"`
}

// routingFile is the on-disk shape of the routing table: a
// defaultPrinterId plus a list of rules, each a `when.all[0]` clause
// of {field, op, value} paired with a `then.printerId`.
type routingFile struct {
	DefaultPrinterID string      `yaml:"defaultPrinterId"`
	Rules            []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	ID      string `yaml:"id"`
	Enabled *bool  `yaml:"enabled"`
	When    struct {
		All []ruleCondition `yaml:"all"`
	} `yaml:"when"`
	Then struct {
		PrinterID string `yaml:"printerId"`
	} `yaml:"then"`
}

type ruleCondition struct {
	Field string `yaml:"field"`
	Op    string `yaml:"op"`
	Value string `yaml:"value"`
}

const defaultPrinterPort = 9100

// Registry answers printer-lookup and rule-based selection queries.
// It is immutable after construction.
type Registry struct {
	printers         map[string]*domain.PrinterConfig
	rules            []domain.RoutingRule
	defaultPrinterID string
}

// LoadRegistry reads the printer inventory and routing table YAML
// documents and builds a Registry.
func LoadRegistry(printersR, routingR io.Reader) (*Registry, error) {
	var pf printerFile
	if err := yaml.NewDecoder(printersR).Decode(&pf); err != nil && err != io.EOF {
		return nil, apperr.ConfigError("malformed printer inventory").Wrap(err)
	}

	var rf routingFile
	if err := yaml.NewDecoder(routingR).Decode(&rf); err != nil && err != io.EOF {
		return nil, apperr.ConfigError("malformed routing table").Wrap(err)
	}

	reg := &Registry{
		printers:         make(map[string]*domain.PrinterConfig),
		defaultPrinterID: rf.DefaultPrinterID,
	}

	for _, pe := range pf.Printers {
		port := pe.Port
		if port == 0 {
			port = defaultPrinterPort
		}
		enabled := true
		if pe.Enabled != nil {
			enabled = *pe.Enabled
		}
		printer, err := domain.NewPrinterConfig(pe.ID, pe.IP, port, domain.PrinterConfig{
			Name:         pe.Name,
			Tags:         pe.Tags,
			Enabled:      enabled,
			LocationHint: pe.LocationHint,
		})
		if err != nil {
			return nil, err
		}
		reg.printers[printer.ID] = printer
	}

	for _, re := range rf.Rules {
		enabled := true
		if re.Enabled != nil {
			enabled = *re.Enabled
		}
		if len(re.When.All) == 0 {
			return nil, apperr.ConfigError("routing rule " + re.ID + " has no when.all condition")
		}
		cond := re.When.All[0]
		reg.rules = append(reg.rules, domain.RoutingRule{
			ID:              re.ID,
			Enabled:         enabled,
			Field:           cond.Field,
			Operator:        domain.RoutingOperator(strings.ToUpper(cond.Op)),
			Value:           cond.Value,
			TargetPrinterID: re.Then.PrinterID,
		})
	}

	return reg, nil
}

// FindPrinter returns the printer registered under id, if it exists
// and is enabled.
func (r *Registry) FindPrinter(id string) (*domain.PrinterConfig, bool) {
	p, ok := r.printers[id]
	if !ok || !p.Enabled {
		return nil, false
	}
	return p, true
}

// SelectPrinter evaluates the routing rules in declaration order
// against ctx and returns the matching printer. A rule matches iff it is enabled, its field is present in ctx,
// and the operator applied to the uppercased context value and the
// uppercased rule value returns true. The first match wins; otherwise
// defaultPrinterId is used. The resolved printer must exist and be
// enabled.
func (r *Registry) SelectPrinter(ctx context.Context, fields map[string]string) (*domain.PrinterConfig, error) {
	targetID := r.defaultPrinterID

	for _, rule := range r.rules {
		if !rule.Enabled {
			continue
		}
		value, present := fields[rule.Field]
		if !present {
			continue
		}
		matched, err := evaluate(rule.Operator, value, rule.Value)
		if err != nil {
			return nil, apperr.ValidationError("routing rule " + rule.ID + " uses an unknown operator: " + string(rule.Operator))
		}
		if matched {
			targetID = rule.TargetPrinterID
			break
		}
	}

	if targetID == "" {
		return nil, apperr.ConfigError("no routing rule matched and no default printer is configured")
	}

	printer, ok := r.FindPrinter(targetID)
	if !ok {
		return nil, apperr.ConfigError("routing selected printer " + targetID + " which is unknown or disabled")
	}
	return printer, nil
}

// evaluate applies op to (actual, expected), both compared
// case-insensitively. Unknown operators return an error rather than a
// silent non-match.
func evaluate(op domain.RoutingOperator, actual, expected string) (bool, error) {
	a := strings.ToUpper(actual)
	e := strings.ToUpper(expected)
	switch op {
	case domain.OpEquals:
		return a == e, nil
	case domain.OpStartsWith:
		return strings.HasPrefix(a, e), nil
	case domain.OpContains:
		return strings.Contains(a, e), nil
	default:
		return false, apperr.ValidationError("unsupported routing operator: " + string(op))
	}
}
