// Package plan reads and writes study-plan documents: YAML files that list
// preferred study slots, validated against an embedded JSON schema.
package plan

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/athro-ai/athro/internal/study"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "schema://athro/plan.json"

// ErrInvalidPlan is wrapped by every document-level failure.
var ErrInvalidPlan = errors.New("invalid study plan")

// Document is a parsed study plan.
type Document struct {
	Name  string     `yaml:"name,omitempty"`
	Slots []SlotSpec `yaml:"slots"`
}

// SlotSpec is one slot entry. Either Preset or Count and DurationMinutes
// are set.
type SlotSpec struct {
	Day             Weekday `yaml:"day"`
	Preset          string  `yaml:"preset,omitempty"`
	Count           int     `yaml:"count,omitempty"`
	DurationMinutes int     `yaml:"duration_minutes,omitempty"`
	StartHour       int     `yaml:"start_hour"`
}

// Weekday is an ISO weekday written as a name or a number.
type Weekday int

// UnmarshalYAML accepts "wednesday", "wed" or 3.
func (d *Weekday) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: day must be a name or number", node.Line)
	}
	day, err := study.ParseWeekday(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Weekday(day)
	return nil
}

// MarshalYAML writes the lower-case day name.
func (d Weekday) MarshalYAML() (any, error) {
	return strings.ToLower(study.WeekdayName(int(d))), nil
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Parse validates data against the plan schema and decodes it.
func Parse(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, invalid(fmt.Errorf("yaml: %w", err))
	}

	// The validator wants JSON-shaped values.
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, invalid(fmt.Errorf("convert to json: %w", err))
	}
	var instance any
	if err := json.Unmarshal(b, &instance); err != nil {
		return nil, invalid(fmt.Errorf("convert to json: %w", err))
	}

	sch, err := schema()
	if err != nil {
		return nil, fmt.Errorf("compile plan schema: %w", err)
	}
	if err := sch.Validate(instance); err != nil {
		return nil, invalid(fmt.Errorf("schema validation failed: %w", err))
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, invalid(err)
	}
	return &doc, nil
}

// Load reads and parses the plan at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return Parse(data)
}

// Templates converts the document into validated slot templates for userID.
func (d *Document) Templates(userID string) ([]*study.PreferredStudySlot, error) {
	out := make([]*study.PreferredStudySlot, 0, len(d.Slots))
	for i, spec := range d.Slots {
		count, dur := spec.Count, spec.DurationMinutes
		if spec.Preset != "" {
			p, err := study.ParsePreset(spec.Preset)
			if err != nil {
				return nil, fmt.Errorf("slot %d: %w", i+1, err)
			}
			count, dur = p.SlotCount, p.DurationMinutes
		}
		slot, err := study.NewSlot(userID, int(spec.Day), count, dur, spec.StartHour)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i+1, err)
		}
		out = append(out, slot)
	}
	return out, nil
}

// FromSlots builds a document describing slots. Slots matching a catalogue
// preset are written with their preset name.
func FromSlots(name string, slots []*study.PreferredStudySlot) *Document {
	doc := &Document{Name: name, Slots: make([]SlotSpec, 0, len(slots))}
	for _, s := range slots {
		spec := SlotSpec{Day: Weekday(s.DayOfWeek), StartHour: s.PreferredStartHour}
		if p, ok := study.PresetByName(fmt.Sprintf("%dx%d", s.SlotCount, s.SlotDurationMinutes)); ok {
			spec.Preset = p.Name
		} else {
			spec.Count = s.SlotCount
			spec.DurationMinutes = s.SlotDurationMinutes
		}
		doc.Slots = append(doc.Slots, spec)
	}
	return doc
}

// Encode writes the document as YAML.
func (d *Document) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	return enc.Close()
}

func invalid(err error) error {
	return &study.ValidationError{
		Field:   "plan",
		Message: err.Error(),
		Err:     fmt.Errorf("%w: %w", ErrInvalidPlan, err),
	}
}
