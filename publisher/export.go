package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"pitchcraft/generator"
	"pitchcraft/logger"
	"pitchcraft/store"
)

// Exporter writes landing pages and their markdown source to Dir.
type Exporter struct {
	Dir string
}

// Exported lists the files written for one record.
type Exported struct {
	HTMLPath     string
	MarkdownPath string
}

// Export writes <slug>-<id>.html and <slug>-<id>.md for the record.
func (e Exporter) Export(ctx context.Context, rec store.PitchRecord) (Exported, error) {
	if err := ctx.Err(); err != nil {
		return Exported{}, err
	}
	if e.Dir == "" {
		return Exported{}, errors.New("export dir is required")
	}
	pitch, err := rec.GeneratedPitch()
	if err != nil {
		return Exported{}, err
	}

	page, err := RenderLanding(rec)
	if err != nil {
		return Exported{}, err
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return Exported{}, fmt.Errorf("create export dir: %w", err)
	}

	base := fileBase(generator.NewSectionSummarizer().SummarizePitch(pitch).Title, rec.ID)
	out := Exported{
		HTMLPath:     filepath.Join(e.Dir, base+".html"),
		MarkdownPath: filepath.Join(e.Dir, base+".md"),
	}
	if err := os.WriteFile(out.HTMLPath, []byte(page), 0o644); err != nil {
		return Exported{}, fmt.Errorf("write landing page: %w", err)
	}
	if err := os.WriteFile(out.MarkdownPath, []byte(Markdown(pitch)), 0o644); err != nil {
		return Exported{}, fmt.Errorf("write markdown: %w", err)
	}

	logger.Info("pitch exported", "id", rec.ID, "html", out.HTMLPath)
	return out, nil
}

func fileBase(title, id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	slug := slugify(title, 40)
	if short == "" {
		return slug
	}
	return slug + "-" + short
}

// slugify lowercases s and joins its letter and digit runs with hyphens.
func slugify(s string, limit int) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	slug := b.String()
	if r := []rune(slug); len(r) > limit {
		slug = strings.TrimRight(string(r[:limit]), "-")
	}
	if slug == "" {
		return "pitch"
	}
	return slug
}
