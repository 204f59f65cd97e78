// Package publisher renders stored pitches as landing pages and exports them.
package publisher

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"pitchcraft/generator"
	"pitchcraft/store"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

var pageTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
<style>
body{font-family:system-ui,-apple-system,"Segoe UI",sans-serif;max-width:760px;margin:0 auto;padding:3rem 1.5rem;line-height:1.6;color:#1f2933}
h1{font-size:2.6rem;margin-bottom:.2rem}
blockquote{margin:0 0 2rem;padding:0;border:0;font-size:1.3rem;color:#52606d}
h2{margin-top:2.2rem;font-size:1.2rem;text-transform:uppercase;letter-spacing:.05em;color:#3e4c59}
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

type page struct {
	Title       string
	Description string
	Body        template.HTML
}

// Markdown renders the pitch as a markdown document: the name as the
// heading, the tagline as a quote, then one section per remaining field.
func Markdown(pitch generator.GeneratedPitch) string {
	summary := generator.NewSectionSummarizer().SummarizePitch(pitch)
	fields := pitch.DisplayFields()
	if pitch.Kind() == generator.SchemaFields && len(fields) > 2 {
		fields = fields[2:]
	}

	var b strings.Builder
	title := summary.Title
	if title == "" {
		title = "Untitled pitch"
	}
	b.WriteString(fmt.Sprintf("# %s\n\n", title))
	if summary.Tagline != "" {
		b.WriteString(fmt.Sprintf("> %s\n\n", summary.Tagline))
	}
	for _, f := range fields {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			continue
		}
		b.WriteString(fmt.Sprintf("## %s\n\n%s\n\n", f.Label, text))
	}
	return b.String()
}

// RenderLanding returns a standalone HTML page for the record. A section
// pitch that carries its own HTML document is served sanitized; everything
// else is rendered from Markdown.
func RenderLanding(rec store.PitchRecord) (string, error) {
	pitch, err := rec.GeneratedPitch()
	if err != nil {
		return "", err
	}
	if sp, ok := pitch.(generator.SectionPitch); ok && strings.TrimSpace(sp.HTMLCode) != "" {
		return SanitizeHTML(sp.HTMLCode)
	}

	body, err := mdToHTML(Markdown(pitch))
	if err != nil {
		return "", err
	}
	summary := generator.NewSectionSummarizer().SummarizePitch(pitch)

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, page{
		Title:       summary.Title,
		Description: digest(summary.Tagline+" "+firstText(pitch), 160),
		Body:        template.HTML(body),
	})
	if err != nil {
		return "", fmt.Errorf("render landing page: %w", err)
	}
	return buf.String(), nil
}

func mdToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// firstText returns the first non-empty field after the title and tagline.
func firstText(pitch generator.GeneratedPitch) string {
	fields := pitch.DisplayFields()
	if pitch.Kind() == generator.SchemaFields && len(fields) > 2 {
		fields = fields[2:]
	}
	for _, f := range fields {
		if strings.TrimSpace(f.Text) != "" {
			return f.Text
		}
	}
	return ""
}

// digest collapses whitespace and cuts to limit runes.
func digest(s string, limit int) string {
	joined := strings.Join(strings.Fields(s), " ")
	r := []rune(joined)
	if len(r) <= limit {
		return joined
	}
	return string(r[:limit])
}
