package generator

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"unicode"
)

// Description preview lengths used in the templated prose.
const (
	pitchPreviewRunes    = 100
	solutionPreviewRunes = 120
)

var toneTaglines = map[string][]string{
	ToneProfessional: {"Innovation Meets Excellence", "Transforming Business Solutions", "Enterprise-Grade Technology"},
	ToneCasual:       {"Making Life Easier", "Simple Solutions for You", "Work Smarter, Not Harder"},
	ToneInnovative:   {"The Future is Here", "Next-Generation Solutions", "Revolutionizing Technology"},
	ToneFun:          {"Where Work Meets Play!", "Making Business Fun Again", "Creative Solutions for Creative Minds"},
}

// TaglinesFor returns the tagline templates for a tone, falling back to the
// professional set for unknown tones.
func TaglinesFor(tone string) []string {
	if set, ok := toneTaglines[strings.ToLower(strings.TrimSpace(tone))]; ok {
		return set
	}
	return toneTaglines[ToneProfessional]
}

// Fallback synthesizes a field pitch from the idea alone, without any external
// call. The only randomness is the choice of name and tagline template, drawn
// from a seeded source.
type Fallback struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewFallback(seed uint64) *Fallback {
	return &Fallback{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomFallback seeds from the runtime's random source.
func NewRandomFallback() *Fallback {
	return NewFallback(rand.Uint64())
}

// Generate never fails; blank inputs are replaced by neutral words.
func (f *Fallback) Generate(idea Idea) FieldPitch {
	idea = idea.Normalized()

	title := idea.Title
	if title == "" && idea.IdeaText != "" {
		title = firstWords(idea.IdeaText, 4)
	}
	description := idea.Description
	if description == "" {
		description = idea.IdeaText
	}
	if description == "" {
		description = "your idea"
	}
	if title == "" {
		title = "Idea"
	}
	industry := idea.Industry
	if industry == "" {
		industry = "Startup"
	}

	word := nameToken(firstWords(title, 1))
	if word == "" {
		word = "Idea"
	}
	industryWord := nameToken(industry)
	if industryWord == "" {
		industryWord = "Startup"
	}

	names := []string{
		word + "AI",
		industryWord + "Pro",
		"Smart" + word,
		"NextGen" + industryWord,
	}
	taglines := TaglinesFor(idea.Tone)

	f.mu.Lock()
	name := names[f.rng.IntN(len(names))]
	tagline := taglines[f.rng.IntN(len(taglines))]
	f.mu.Unlock()

	lowerTitle := strings.ToLower(title)
	return FieldPitch{
		StartupName: name,
		Tagline:     tagline,
		ElevatorPitch: fmt.Sprintf("%s provides innovative solutions for %s. We help businesses in the %s industry achieve their goals through cutting-edge technology and expert insights.",
			name, preview(description, pitchPreviewRunes), industry),
		ProblemStatement: fmt.Sprintf("Businesses in the %s sector face challenges with %s, including inefficiency, high costs, and lack of specialized tools.",
			industry, lowerTitle),
		Solution: fmt.Sprintf("Our platform offers a comprehensive solution that %s. We provide user-friendly tools, expert support, and scalable technology to address these challenges effectively.",
			preview(description, solutionPreviewRunes)),
		TargetAudience: fmt.Sprintf("Startups, small to medium businesses, and professionals in the %s industry who need efficient solutions for %s.",
			industry, lowerTitle),
		ValueProposition: "Save time, reduce operational costs, increase efficiency, and drive growth with our specialized platform designed for your industry needs.",
		LandingCopy: fmt.Sprintf("Welcome to %s - Your partner in %s innovation. Discover how we can transform your business and help you achieve remarkable results. Start your journey today!",
			name, industry),
	}
}

// preview cuts s to at most n runes.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// nameToken keeps letters and digits so "Food & Beverage" becomes "FoodBeverage".
func nameToken(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
