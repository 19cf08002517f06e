package prompt

import (
	"strings"
	"testing"
	"time"

	"wayfarer/pkg/domain"
)

func testAdventure() domain.Adventure {
	return domain.Adventure{
		ID:           "adv-1",
		Title:        "Dolomites Loop",
		Location:     "South Tyrol, Italy",
		StartDate:    time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC),
		DurationDays: 7,
		DistanceKM:   412.5,
		StopCount:    3,
		MediaCount:   58,
		Stops: []domain.Stop{
			{Name: "Ortisei", PhotoCount: 21, Position: 0},
			{Name: "Seceda", PhotoCount: 30, Position: 1},
			{Name: "Lago di Braies", Position: 2},
		},
	}
}

func TestSummaryPrompt(t *testing.T) {
	p := Summary(testAdventure())
	if !strings.Contains(p.System, "travel writer") {
		t.Fatalf("system prompt missing persona: %q", p.System)
	}
	for _, want := range []string{
		"2-3 sentence",
		"Dolomites Loop",
		"South Tyrol, Italy",
		"Jun 10, 2025 to Jun 17, 2025",
		"7 days",
		"412.5 km",
		"Ortisei, Seceda, Lago di Braies",
		`"unforgettable journey"`,
	} {
		if !strings.Contains(p.User, want) {
			t.Fatalf("summary prompt missing %q:\n%s", want, p.User)
		}
	}
}

func TestHighlightsPromptDemandsJSONArray(t *testing.T) {
	p := Highlights(testAdventure())
	if !strings.Contains(p.System, "JSON array") {
		t.Fatalf("system prompt missing JSON instruction: %q", p.System)
	}
	for _, want := range []string{
		"4-6 highlights",
		"action verb",
		"under 10 words",
		"ONLY a JSON array",
		"Ortisei (21 photos)",
		"Seceda (30 photos)",
		"Lago di Braies",
	} {
		if !strings.Contains(p.User, want) {
			t.Fatalf("highlights prompt missing %q:\n%s", want, p.User)
		}
	}
}

func TestStopListFallsBackWithoutStops(t *testing.T) {
	adv := testAdventure()
	adv.Stops = nil
	p := Summary(adv)
	if !strings.Contains(p.User, "Various locations") {
		t.Fatalf("expected fallback stop list:\n%s", p.User)
	}

	adv.Stops = []domain.Stop{{Name: "   "}}
	p = Summary(adv)
	if !strings.Contains(p.User, "Various locations") {
		t.Fatalf("blank stop names should fall back:\n%s", p.User)
	}
}

func TestStoryPromptStyles(t *testing.T) {
	cases := []struct {
		style domain.StoryStyle
		want  string
	}{
		{domain.StyleNarrative, "first-person narrative"},
		{domain.StyleBlog, "blog post"},
		{domain.StylePoetic, "poetic"},
		{domain.StyleFactual, "factual travelogue"},
		{domain.StoryStyle("unknown"), "first-person narrative"},
	}
	for _, tc := range cases {
		p := Story(testAdventure(), tc.style)
		if !strings.Contains(p.User, tc.want) {
			t.Fatalf("style %q: prompt missing %q:\n%s", tc.style, tc.want, p.User)
		}
		if !strings.Contains(p.User, "200-300 word") {
			t.Fatalf("style %q: prompt missing length instruction", tc.style)
		}
		if !strings.Contains(p.User, "do not invent") {
			t.Fatalf("style %q: prompt missing fabrication guard", tc.style)
		}
	}
}

func TestPromptStripsDescriptionMarkup(t *testing.T) {
	adv := testAdventure()
	adv.Description = "<p>Rode the <b>Sella Ronda</b></p><script>alert(1)</script>"
	p := Summary(adv)
	if !strings.Contains(p.User, "Rode the Sella Ronda") {
		t.Fatalf("description text missing:\n%s", p.User)
	}
	if strings.Contains(p.User, "<p>") || strings.Contains(p.User, "alert(1)") {
		t.Fatalf("markup leaked into prompt:\n%s", p.User)
	}
}

func TestStripHTML(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain  text\n here", "plain text here"},
		{"<div>a</div><div>b</div>", "a b"},
		{"<ul><li>one</li><li>two</li></ul>", "one two"},
	}
	for _, tc := range cases {
		if got := StripHTML(tc.in); got != tc.want {
			t.Fatalf("StripHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
