package generator

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// SchemaKind selects which output shape the model is asked for.
type SchemaKind string

const (
	// SchemaFields is the JSON object schema with eight named string fields.
	SchemaFields SchemaKind = "fields"
	// SchemaSections is the tagged-section schema (names, pitch, audience, html).
	SchemaSections SchemaKind = "sections"
)

func ParseSchemaKind(s string) (SchemaKind, error) {
	switch SchemaKind(strings.ToLower(strings.TrimSpace(s))) {
	case SchemaFields, "":
		return SchemaFields, nil
	case SchemaSections:
		return SchemaSections, nil
	default:
		return "", fmt.Errorf("unknown schema kind %q (want %q or %q)", s, SchemaFields, SchemaSections)
	}
}

// Tone values accepted on an Idea.
const (
	ToneProfessional = "professional"
	ToneCasual       = "casual"
	ToneInnovative   = "innovative"
	ToneFun          = "fun"
)

var Tones = []string{ToneProfessional, ToneCasual, ToneInnovative, ToneFun}

// Industries is the closed set offered by the idea form.
var Industries = []string{
	"Technology", "Healthcare", "Education", "Finance",
	"E-commerce", "Real Estate", "Food & Beverage", "Other",
}

// Idea is the user's startup concept. Either the structured fields or the
// single free-text IdeaText are used, depending on the schema kind.
type Idea struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Tone        string `json:"tone,omitempty"`
	IdeaText    string `json:"idea_text,omitempty"`
}

// Normalized returns a trimmed copy with the tone defaulted to professional.
func (i Idea) Normalized() Idea {
	out := Idea{
		Title:       strings.TrimSpace(i.Title),
		Description: strings.TrimSpace(i.Description),
		Industry:    strings.TrimSpace(i.Industry),
		Tone:        strings.ToLower(strings.TrimSpace(i.Tone)),
		IdeaText:    strings.TrimSpace(i.IdeaText),
	}
	if out.Tone == "" {
		out.Tone = ToneProfessional
	}
	return out
}

// Validate checks the fields the given schema kind requires.
func (i Idea) Validate(kind SchemaKind) error {
	n := i.Normalized()
	switch kind {
	case SchemaSections:
		if !slices.Contains(Tones, n.Tone) {
			return &ValidationError{Field: "tone", Reason: fmt.Sprintf("%q is not a known tone", n.Tone)}
		}
		if n.IdeaText != "" {
			return nil
		}
		if n.Title == "" {
			return &ValidationError{Field: "title", Reason: "idea text or title is required"}
		}
		if n.Description == "" {
			return &ValidationError{Field: "description", Reason: "is required"}
		}
		return nil
	default:
		if n.Title == "" {
			return &ValidationError{Field: "title", Reason: "is required"}
		}
		if n.Description == "" {
			return &ValidationError{Field: "description", Reason: "is required"}
		}
		if n.Industry == "" {
			return &ValidationError{Field: "industry", Reason: "is required"}
		}
		if !slices.Contains(Industries, n.Industry) {
			return &ValidationError{Field: "industry", Reason: fmt.Sprintf("%q is not a known industry", n.Industry)}
		}
		if !slices.Contains(Tones, n.Tone) {
			return &ValidationError{Field: "tone", Reason: fmt.Sprintf("%q is not a known tone", n.Tone)}
		}
		return nil
	}
}

// DisplayField is one labelled block of a pitch, in display order.
type DisplayField struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// GeneratedPitch is the structured model output, in either schema variant.
type GeneratedPitch interface {
	Kind() SchemaKind
	DisplayFields() []DisplayField
}

// FieldPitch is the field-based variant.
type FieldPitch struct {
	StartupName      string `json:"startup_name"`
	Tagline          string `json:"tagline"`
	ElevatorPitch    string `json:"elevator_pitch"`
	ProblemStatement string `json:"problem_statement"`
	Solution         string `json:"solution"`
	TargetAudience   string `json:"target_audience"`
	ValueProposition string `json:"value_proposition"`
	LandingCopy      string `json:"landing_copy"`
}

func (p FieldPitch) Kind() SchemaKind { return SchemaFields }

func (p FieldPitch) DisplayFields() []DisplayField {
	return []DisplayField{
		{Label: "Startup Name", Text: p.StartupName},
		{Label: "Tagline", Text: p.Tagline},
		{Label: "Elevator Pitch", Text: p.ElevatorPitch},
		{Label: "Problem", Text: p.ProblemStatement},
		{Label: "Solution", Text: p.Solution},
		{Label: "Target Audience", Text: p.TargetAudience},
		{Label: "Value Proposition", Text: p.ValueProposition},
		{Label: "Landing Copy", Text: p.LandingCopy},
	}
}

// SectionPitch is the tagged-section variant. Each field is a free-text blob.
type SectionPitch struct {
	Names    string `json:"names"`
	Pitch    string `json:"pitch"`
	Audience string `json:"audience"`
	HTMLCode string `json:"htmlCode"`
}

func (p SectionPitch) Kind() SchemaKind { return SchemaSections }

// DisplayFields omits the HTML document; it is rendered separately.
func (p SectionPitch) DisplayFields() []DisplayField {
	return []DisplayField{
		{Label: "Names", Text: p.Names},
		{Label: "Pitch", Text: p.Pitch},
		{Label: "Audience", Text: p.Audience},
	}
}

// EncodePitch serializes a pitch to its stored JSON document.
func EncodePitch(p GeneratedPitch) ([]byte, error) {
	switch v := p.(type) {
	case FieldPitch, SectionPitch:
		return json.Marshal(v)
	case *FieldPitch:
		return json.Marshal(*v)
	case *SectionPitch:
		return json.Marshal(*v)
	case nil:
		return nil, fmt.Errorf("pitch is nil")
	default:
		return nil, fmt.Errorf("unsupported pitch type %T", p)
	}
}

// DecodePitch restores a stored document. An empty kind is detected from the
// document's keys, which is how records written before the schema column
// existed are read.
func DecodePitch(kind SchemaKind, data []byte) (GeneratedPitch, error) {
	if kind == "" {
		kind = DetectSchemaKind(data)
	}
	switch kind {
	case SchemaSections:
		var p SectionPitch
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode section pitch: %w", err)
		}
		return p, nil
	case SchemaFields:
		var p FieldPitch
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode field pitch: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown schema kind %q", kind)
	}
}

// DetectSchemaKind guesses the variant of a stored document from its keys.
func DetectSchemaKind(data []byte) SchemaKind {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return SchemaFields
	}
	if _, ok := keys["startup_name"]; ok {
		return SchemaFields
	}
	for _, k := range []string{"names", "pitch", "audience", "htmlCode"} {
		if _, ok := keys[k]; ok {
			return SchemaSections
		}
	}
	return SchemaFields
}
