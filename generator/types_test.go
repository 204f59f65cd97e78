package generator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdeaValidate(t *testing.T) {
	tests := []struct {
		name  string
		kind  SchemaKind
		idea  Idea
		field string
	}{
		{name: "complete field idea", kind: SchemaFields, idea: Idea{Title: "EcoTrack", Description: "carbon tracker", Industry: "Technology", Tone: "innovative"}},
		{name: "tone defaults", kind: SchemaFields, idea: Idea{Title: "EcoTrack", Description: "carbon tracker", Industry: "Technology"}},
		{name: "blank title", kind: SchemaFields, idea: Idea{Title: "  ", Description: "d", Industry: "Technology"}, field: "title"},
		{name: "missing description", kind: SchemaFields, idea: Idea{Title: "t", Industry: "Technology"}, field: "description"},
		{name: "missing industry", kind: SchemaFields, idea: Idea{Title: "t", Description: "d"}, field: "industry"},
		{name: "unknown industry", kind: SchemaFields, idea: Idea{Title: "t", Description: "d", Industry: "Space Mining"}, field: "industry"},
		{name: "unknown tone", kind: SchemaFields, idea: Idea{Title: "t", Description: "d", Industry: "Other", Tone: "grumpy"}, field: "tone"},
		{name: "free text idea", kind: SchemaSections, idea: Idea{IdeaText: "an app for dog walkers"}},
		{name: "sections accept any industry", kind: SchemaSections, idea: Idea{Title: "t", Description: "d", Industry: "Space Mining"}},
		{name: "sections need something", kind: SchemaSections, idea: Idea{}, field: "title"},
		{name: "sections unknown tone", kind: SchemaSections, idea: Idea{IdeaText: "an app for dog walkers", Tone: "furious"}, field: "tone"},
		{name: "sections known tone", kind: SchemaSections, idea: Idea{IdeaText: "an app for dog walkers", Tone: "Fun"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.idea.Validate(tc.kind)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestEncodeDecodePitch(t *testing.T) {
	field := FieldPitch{StartupName: "Nova", Tagline: "Bright"}
	data, err := EncodePitch(field)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"value_proposition":""`)

	got, err := DecodePitch(SchemaFields, data)
	require.NoError(t, err)
	assert.Equal(t, field, got)

	section := SectionPitch{Names: "Nova", HTMLCode: "<html></html>"}
	data, err = EncodePitch(&section)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"htmlCode"`)

	got, err = DecodePitch(SchemaSections, data)
	require.NoError(t, err)
	assert.Equal(t, section, got)

	_, err = EncodePitch(nil)
	assert.Error(t, err)
}

func TestDecodePitchDetectsLegacyDocuments(t *testing.T) {
	got, err := DecodePitch("", []byte(`{"names":"Nova\nBright","pitch":"p"}`))
	require.NoError(t, err)
	assert.Equal(t, SchemaSections, got.Kind())

	got, err = DecodePitch("", []byte(`{"startup_name":"Nova"}`))
	require.NoError(t, err)
	assert.Equal(t, SchemaFields, got.Kind())
	assert.Equal(t, "Nova", got.(FieldPitch).StartupName)
}

func TestParseSchemaKind(t *testing.T) {
	k, err := ParseSchemaKind("")
	require.NoError(t, err)
	assert.Equal(t, SchemaFields, k)

	k, err = ParseSchemaKind(" Sections ")
	require.NoError(t, err)
	assert.Equal(t, SchemaSections, k)

	_, err = ParseSchemaKind("yaml")
	assert.Error(t, err)
}

func TestDisplayFieldsCoverEverySchemaField(t *testing.T) {
	fields := FieldPitch{}.DisplayFields()
	assert.Len(t, fields, 8)
	assert.Equal(t, "Startup Name", fields[0].Label)

	sections := SectionPitch{}.DisplayFields()
	assert.Len(t, sections, 3)
}
