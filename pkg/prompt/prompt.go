package prompt

import (
	"fmt"
	"strings"

	"wayfarer/pkg/domain"
)

// Prompt pairs a system-role instruction with the user-role request text.
type Prompt struct {
	System string
	User   string
}

const (
	writerSystemPrompt     = "You are a skilled travel writer who turns trip data into vivid, personal prose."
	highlightsSystemPrompt = "You are a skilled travel writer. Return only valid JSON arrays."
)

// Summary builds the prompt for a short evocative trip summary.
func Summary(adv domain.Adventure) Prompt {
	var b strings.Builder
	b.WriteString("Write a 2-3 sentence evocative summary of this trip.\n\n")
	writeFacts(&b, adv, false)
	b.WriteString("\nCapture what made this trip distinctive. Avoid generic travel phrasing such as \"unforgettable journey\".")
	return Prompt{System: writerSystemPrompt, User: b.String()}
}

// Highlights builds the prompt for a JSON array of short trip highlights.
func Highlights(adv domain.Adventure) Prompt {
	var b strings.Builder
	b.WriteString("List 4-6 highlights of this trip.\n\n")
	writeFacts(&b, adv, true)
	b.WriteString("\nEach highlight must start with an action verb and stay under 10 words.\n")
	b.WriteString("Respond with ONLY a JSON array of strings, nothing else.")
	return Prompt{System: highlightsSystemPrompt, User: b.String()}
}

// Story builds the prompt for a longer piece in the requested style.
// Unknown styles fall back to the narrative default.
func Story(adv domain.Adventure, style domain.StoryStyle) Prompt {
	var b strings.Builder
	b.WriteString("Write a 200-300 word piece about this trip, in 3-4 paragraphs.\n\n")
	writeFacts(&b, adv, true)
	b.WriteString("\n")
	b.WriteString(styleInstruction(style))
	b.WriteString("\nStick to the facts above; do not invent specific events that cannot be verified from them.")
	return Prompt{System: writerSystemPrompt, User: b.String()}
}

func styleInstruction(style domain.StoryStyle) string {
	switch style {
	case domain.StyleBlog:
		return "Write it as a casual first-person blog post with a conversational tone."
	case domain.StylePoetic:
		return "Write it in a lyrical, poetic register with strong imagery."
	case domain.StyleFactual:
		return "Write it as a factual travelogue, plain and precise, no embellishment."
	}
	return "Write it as a flowing first-person narrative."
}

func writeFacts(b *strings.Builder, adv domain.Adventure, withPhotoCounts bool) {
	fmt.Fprintf(b, "Trip: %s\n", adv.Title)
	fmt.Fprintf(b, "Location: %s\n", adv.Location)
	if !adv.StartDate.IsZero() && !adv.EndDate.IsZero() {
		fmt.Fprintf(b, "Dates: %s to %s\n", adv.StartDate.Format("Jan 2, 2006"), adv.EndDate.Format("Jan 2, 2006"))
	}
	fmt.Fprintf(b, "Duration: %d days\n", adv.DurationDays)
	fmt.Fprintf(b, "Distance traveled: %.1f km\n", adv.DistanceKM)
	fmt.Fprintf(b, "Stops: %d, Photos and videos: %d\n", adv.StopCount, adv.MediaCount)
	fmt.Fprintf(b, "Places visited: %s\n", stopList(adv.Stops, withPhotoCounts))
	if desc := strings.TrimSpace(StripHTML(adv.Description)); desc != "" {
		fmt.Fprintf(b, "Traveler's notes: %s\n", desc)
	}
}

func stopList(stops []domain.Stop, withPhotoCounts bool) string {
	if len(stops) == 0 {
		return "Various locations"
	}
	names := make([]string, 0, len(stops))
	for _, stop := range stops {
		name := strings.TrimSpace(stop.Name)
		if name == "" {
			continue
		}
		if withPhotoCounts && stop.PhotoCount > 0 {
			name = fmt.Sprintf("%s (%d photos)", name, stop.PhotoCount)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return "Various locations"
	}
	return strings.Join(names, ", ")
}
