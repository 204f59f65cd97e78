package generator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// MockLLM answers offline with a well-formed response for the prompt's schema.
// It is meant for local development without an API key.
type MockLLM struct{}

var mockIdeaLine = regexp.MustCompile(`(?m)^(?:Startup Idea|Idea):\s*(.+)$`)

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	name := "Sample"
	if match := mockIdeaLine.FindStringSubmatch(prompt.User); len(match) == 2 {
		if words := strings.Fields(match[1]); len(words) > 0 {
			name = words[0]
		}
	}

	var sb strings.Builder
	if prompt.Kind == SchemaSections {
		sb.WriteString(fmt.Sprintf("<%s>\n%sly\nYour idea, ready to pitch\n</%s>\n", TagNames, name, TagNames))
		sb.WriteString(fmt.Sprintf("<%s>\n%sly turns a rough idea into a clear product story.\n</%s>\n", TagPitch, name, TagPitch))
		sb.WriteString(fmt.Sprintf("<%s>\nFounders preparing their first investor meeting.\n</%s>\n", TagAudience, TagAudience))
		sb.WriteString(fmt.Sprintf("<%s>\n<!DOCTYPE html><html><head><title>%sly</title></head><body><h1>%sly</h1></body></html>\n</%s>\n", TagHTML, name, name, TagHTML))
		return sb.String(), nil
	}

	sb.WriteString("```json\n")
	sb.WriteString(fmt.Sprintf(`{"startup_name": "%sly", "tagline": "Your idea, ready to pitch", `, name))
	sb.WriteString(`"elevator_pitch": "A sample pitch generated offline.", "problem_statement": "Pitches take too long to write.", `)
	sb.WriteString(`"solution": "Generate a first draft in seconds.", "target_audience": "Early-stage founders.", `)
	sb.WriteString(`"value_proposition": "Spend time on the product, not the deck.", "landing_copy": "Pitch smarter."}`)
	sb.WriteString("\n```\n")
	return sb.String(), nil
}
