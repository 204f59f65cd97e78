package generator

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// ParseStrategy records which extraction step produced a result.
type ParseStrategy string

const (
	StrategyNone   ParseStrategy = "none"
	StrategyDirect ParseStrategy = "direct"
	StrategyFenced ParseStrategy = "fenced"
	StrategyBraces ParseStrategy = "braces"
	StrategyTags   ParseStrategy = "tags"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```[A-Za-z]*[ \\t]*\\r?\\n?(.*?)```")
	fenceMarker = regexp.MustCompile("```[A-Za-z]*")
	sectionRes  = map[string]*regexp.Regexp{}
)

func init() {
	for _, tag := range sectionTags {
		sectionRes[tag] = regexp.MustCompile(`(?is)<\s*` + tag + `\s*>(.*?)<\s*/\s*` + tag + `\s*>`)
	}
}

// Parse extracts a pitch of the given schema from raw model output.
func Parse(kind SchemaKind, raw string) (GeneratedPitch, ParseStrategy, error) {
	if kind == SchemaSections {
		p, strategy, err := ParseSectionPitch(raw)
		if err != nil {
			return nil, strategy, err
		}
		return p, strategy, nil
	}
	p, strategy, err := ParseFieldPitch(raw)
	if err != nil {
		return nil, strategy, err
	}
	return p, strategy, nil
}

// ParseFieldPitch tries, in order: decoding the whole text, decoding the
// contents of a fenced code block (or the text with fence markers removed),
// and decoding the first brace-delimited span. A result only counts when
// startup_name is present and non-blank.
func ParseFieldPitch(raw string) (FieldPitch, ParseStrategy, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return FieldPitch{}, StrategyNone, &ParseError{Kind: SchemaFields, Reason: "empty response"}
	}

	if p, ok := decodeFieldPitch(text); ok {
		return p, StrategyDirect, nil
	}
	for _, candidate := range unfencedCandidates(text) {
		if p, ok := decodeFieldPitch(candidate); ok {
			return p, StrategyFenced, nil
		}
	}
	for _, candidate := range braceCandidates(text) {
		if p, ok := decodeFieldPitch(candidate); ok {
			return p, StrategyBraces, nil
		}
	}
	return FieldPitch{}, StrategyNone, &ParseError{Kind: SchemaFields, Reason: "no JSON object with a startup_name"}
}

// ParseSectionPitch extracts each tagged section. A missing tag leaves its
// field empty; only a response with no tags at all is a failure.
func ParseSectionPitch(raw string) (SectionPitch, ParseStrategy, error) {
	found := 0
	section := func(tag string) string {
		m := sectionRes[tag].FindStringSubmatch(raw)
		if m == nil {
			return ""
		}
		found++
		return cleanSection(m[1])
	}

	p := SectionPitch{
		Names:    section(TagNames),
		Pitch:    section(TagPitch),
		Audience: section(TagAudience),
		HTMLCode: section(TagHTML),
	}
	if found == 0 {
		return SectionPitch{}, StrategyNone, &ParseError{Kind: SchemaSections, Reason: "no tagged sections found"}
	}
	return p, StrategyTags, nil
}

func decodeFieldPitch(text string) (FieldPitch, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return FieldPitch{}, false
	}
	p := FieldPitch{
		StartupName:      jsonText(fields["startup_name"]),
		Tagline:          jsonText(fields["tagline"]),
		ElevatorPitch:    jsonText(fields["elevator_pitch"]),
		ProblemStatement: jsonText(fields["problem_statement"]),
		Solution:         jsonText(fields["solution"]),
		TargetAudience:   jsonText(fields["target_audience"]),
		ValueProposition: jsonText(fields["value_proposition"]),
		LandingCopy:      jsonText(fields["landing_copy"]),
	}
	return p, p.StartupName != ""
}

// jsonText renders any JSON value as display text. Models sometimes answer
// with lists or numbers where a string was asked for.
func jsonText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}

func unfencedCandidates(text string) []string {
	var out []string
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	stripped := strings.TrimSpace(fenceMarker.ReplaceAllString(text, ""))
	if stripped != "" && stripped != text && (len(out) == 0 || out[0] != stripped) {
		out = append(out, stripped)
	}
	return out
}

// braceCandidates returns the first balanced {...} span, then the span from
// the first '{' to the last '}' when that differs.
func braceCandidates(text string) []string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil
	}
	var out []string
	if end := matchBrace(text, start); end > start {
		out = append(out, text[start:end+1])
	}
	if last := strings.LastIndexByte(text, '}'); last > start {
		greedy := text[start : last+1]
		if len(out) == 0 || out[0] != greedy {
			out = append(out, greedy)
		}
	}
	return out
}

// matchBrace returns the index of the brace closing the one at start, or -1.
// Braces inside JSON strings are ignored.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func cleanSection(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if m := fencedBlock.FindStringSubmatch(s); m != nil {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(fenceMarker.ReplaceAllString(s, ""))
	}
	return s
}
