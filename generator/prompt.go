package generator

import (
	"fmt"
	"strings"
)

// Prompt is the message pair sent to the LLM.
type Prompt struct {
	System string
	User   string
	Kind   SchemaKind
}

// Section tags used by the section schema, in output order.
const (
	TagNames    = "NAMES_SECTION"
	TagPitch    = "PITCH_SECTION"
	TagAudience = "AUDIENCE_SECTION"
	TagHTML     = "HTML_SECTION"
)

var sectionTags = []string{TagNames, TagPitch, TagAudience, TagHTML}

const fieldSkeleton = `{
  "startup_name": "Creative name here",
  "tagline": "Short catchy tagline",
  "elevator_pitch": "Brief 2-3 sentence summary",
  "problem_statement": "What problem this solves",
  "solution": "How this solution works",
  "target_audience": "Who will use this",
  "value_proposition": "Why this is valuable",
  "landing_copy": "Website hero text"
}`

// BuildPrompt validates the idea and builds the prompt for the given schema.
func BuildPrompt(kind SchemaKind, idea Idea) (Prompt, error) {
	if err := idea.Validate(kind); err != nil {
		return Prompt{}, err
	}
	if kind == SchemaSections {
		return BuildSectionPrompt(idea), nil
	}
	return BuildFieldPrompt(idea), nil
}

// BuildFieldPrompt asks for a single JSON object with the eight pitch fields.
func BuildFieldPrompt(idea Idea) Prompt {
	idea = idea.Normalized()
	var sb strings.Builder
	sb.WriteString("Create a startup pitch package as a JSON object. Be creative and professional.\n\n")
	sb.WriteString(fmt.Sprintf("Startup Idea: %s\n", idea.Title))
	sb.WriteString(fmt.Sprintf("Description: %s\n", idea.Description))
	sb.WriteString(fmt.Sprintf("Industry: %s\n", idea.Industry))
	sb.WriteString(fmt.Sprintf("Desired Tone: %s\n\n", idea.Tone))
	sb.WriteString("Return ONLY this JSON structure, nothing else:\n\n")
	sb.WriteString(fieldSkeleton)
	sb.WriteString("\n\nImportant: Return pure JSON only, no other text or explanations.")

	return Prompt{
		System: "You are a startup pitch writer. Respond with a single JSON object and nothing else.",
		User:   sb.String(),
		Kind:   SchemaFields,
	}
}

// BuildSectionPrompt asks for four tagged free-text sections, the last one a
// complete HTML landing page.
func BuildSectionPrompt(idea Idea) Prompt {
	idea = idea.Normalized()
	var sb strings.Builder
	sb.WriteString("Turn the following startup idea into a pitch package.\n\n")
	if idea.IdeaText != "" {
		sb.WriteString(fmt.Sprintf("Idea: %s\n", idea.IdeaText))
	} else {
		sb.WriteString(fmt.Sprintf("Idea: %s\n", idea.Title))
		sb.WriteString(fmt.Sprintf("Details: %s\n", idea.Description))
	}
	if idea.Industry != "" {
		sb.WriteString(fmt.Sprintf("Industry: %s\n", idea.Industry))
	}
	sb.WriteString(fmt.Sprintf("Tone: %s\n\n", idea.Tone))
	sb.WriteString("Return exactly these four sections, each wrapped in its tags:\n\n")
	sb.WriteString(fmt.Sprintf("<%s>\nThe best startup name on the first line, a one-line tagline on the second line, then up to three alternative names.\n</%s>\n", TagNames, TagNames))
	sb.WriteString(fmt.Sprintf("<%s>\nA short elevator pitch covering the problem and the solution.\n</%s>\n", TagPitch, TagPitch))
	sb.WriteString(fmt.Sprintf("<%s>\nThe target audience and why they need this.\n</%s>\n", TagAudience, TagAudience))
	sb.WriteString(fmt.Sprintf("<%s>\nA complete, self-contained HTML landing page with inline CSS.\n</%s>\n\n", TagHTML, TagHTML))
	sb.WriteString("Rules:\n")
	sb.WriteString("- Output only the four tagged sections, with no text before, between or after them.\n")
	sb.WriteString("- Do not wrap any section in markdown code fences (```), including the HTML section.\n")
	sb.WriteString("- Do not use scripts in the HTML.\n")

	return Prompt{
		System: "You are a startup pitch writer. Follow the requested tagged format exactly.",
		User:   sb.String(),
		Kind:   SchemaSections,
	}
}
