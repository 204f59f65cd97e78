package generator

import (
	"regexp"
	"strings"
)

// Summary is the short title/tagline pair shown on pitch cards.
type Summary struct {
	Title   string `json:"title"`
	Tagline string `json:"tagline"`
}

// SectionSummarizer derives a Summary from a free-text section: the first
// non-empty line is the title and the second non-empty line is the tagline.
// Lines are stripped of list bullets, numbering, heading markers, bold markers
// and wrapping quotes, then cut to the configured rune limits with an ellipsis.
type SectionSummarizer struct {
	MaxTitle   int
	MaxTagline int
}

func NewSectionSummarizer() SectionSummarizer {
	return SectionSummarizer{MaxTitle: 60, MaxTagline: 120}
}

var linePrefix = regexp.MustCompile(`^(?:#{1,6}\s+|[-*•]\s+|\d+[.)]\s+)`)

func (s SectionSummarizer) Summarize(text string) Summary {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = cleanSummaryLine(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == 2 {
			break
		}
	}

	var out Summary
	if len(lines) > 0 {
		out.Title = truncate(lines[0], s.MaxTitle)
	}
	if len(lines) > 1 {
		out.Tagline = truncate(lines[1], s.MaxTagline)
	}
	return out
}

// SummarizePitch picks the title/tagline of either schema variant.
func (s SectionSummarizer) SummarizePitch(p GeneratedPitch) Summary {
	switch v := p.(type) {
	case FieldPitch:
		return Summary{Title: truncate(v.StartupName, s.MaxTitle), Tagline: truncate(v.Tagline, s.MaxTagline)}
	case SectionPitch:
		return s.Summarize(v.Names)
	default:
		return Summary{}
	}
}

func cleanSummaryLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimSpace(linePrefix.ReplaceAllString(line, ""))
	line = strings.TrimSpace(strings.Trim(line, "*_"))
	line = strings.TrimSpace(strings.Trim(line, `"'“”`))
	return line
}

// truncate cuts s to at most n runes, ending with "…" when shortened.
// n <= 0 means no limit.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
