package main

import (
	"fmt"
	"strings"

	"github.com/k0kubun/pp/v3"

	"pitchcraft/generator"
	"pitchcraft/store"
)

func printRecord(rec *store.PitchRecord) error {
	pitch, err := rec.GeneratedPitch()
	if err != nil {
		return err
	}
	summary := generator.NewSectionSummarizer().SummarizePitch(pitch)

	headerColor.Println(summary.Title)
	if summary.Tagline != "" {
		infoColor.Println(summary.Tagline)
	}
	fmt.Println()
	for _, f := range pitch.DisplayFields() {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		headerColor.Println(f.Label)
		fmt.Println(f.Text)
		fmt.Println()
	}
	if sp, ok := pitch.(generator.SectionPitch); ok && sp.HTMLCode != "" {
		infoColor.Printf("Landing page: %d bytes of HTML (use export to write it)\n", len(sp.HTMLCode))
	}
	fmt.Printf("id %s  schema %s  strategy %s  created %s\n", rec.ID, rec.Schema, orDash(rec.ParseStrategy), createdAt(rec))
	return nil
}

func printList(records []store.PitchRecord) {
	summarizer := generator.NewSectionSummarizer()
	for _, rec := range records {
		title := "(unreadable pitch)"
		tagline := ""
		if pitch, err := rec.GeneratedPitch(); err == nil {
			s := summarizer.SummarizePitch(pitch)
			title, tagline = s.Title, s.Tagline
		}
		headerColor.Printf("%-28s", title)
		fmt.Printf("  %s  %s\n", createdAt(&rec), rec.ID)
		if tagline != "" {
			infoColor.Printf("  %s\n", tagline)
		}
		if rec.UsedFallback {
			warningColor.Println("  template pitch")
		}
	}
}

func dumpRecord(rec *store.PitchRecord) error {
	pitch, err := rec.GeneratedPitch()
	if err != nil {
		return err
	}
	pp.Println(struct {
		Record *store.PitchRecord
		Pitch  generator.GeneratedPitch
	}{rec, pitch})
	return nil
}

func createdAt(rec *store.PitchRecord) string {
	if rec.CreatedAt == nil {
		return "-"
	}
	return rec.CreatedAt.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
