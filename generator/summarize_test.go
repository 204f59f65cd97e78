package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionSummarizer(t *testing.T) {
	s := NewSectionSummarizer()

	tests := []struct {
		name string
		text string
		want Summary
	}{
		{name: "plain lines", text: "Nova\nBright ideas", want: Summary{Title: "Nova", Tagline: "Bright ideas"}},
		{name: "blank lines skipped", text: "\n\n  Nova  \n\n\nBright ideas\nAlt", want: Summary{Title: "Nova", Tagline: "Bright ideas"}},
		{name: "markdown decoration", text: "1. **Nova**\n- \"Bright ideas\"", want: Summary{Title: "Nova", Tagline: "Bright ideas"}},
		{name: "heading", text: "## Nova\n* Bright ideas", want: Summary{Title: "Nova", Tagline: "Bright ideas"}},
		{name: "single line", text: "Nova", want: Summary{Title: "Nova"}},
		{name: "empty", text: "", want: Summary{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.Summarize(tc.text))
		})
	}
}

func TestSectionSummarizerTruncates(t *testing.T) {
	s := SectionSummarizer{MaxTitle: 4, MaxTagline: 0}
	got := s.Summarize("Abcdefgh\nA tagline that is not cut")
	assert.Equal(t, "Abc…", got.Title)
	assert.Equal(t, "A tagline that is not cut", got.Tagline)
}

func TestSummarizePitch(t *testing.T) {
	s := NewSectionSummarizer()

	assert.Equal(t, Summary{Title: "Nova", Tagline: "Bright"}, s.SummarizePitch(FieldPitch{StartupName: "Nova", Tagline: "Bright"}))
	assert.Equal(t, Summary{Title: "Nova", Tagline: "Bright"}, s.SummarizePitch(SectionPitch{Names: "Nova\nBright\nOther"}))
	assert.Equal(t, Summary{}, s.SummarizePitch(nil))
}
