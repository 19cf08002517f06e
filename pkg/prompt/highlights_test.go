package prompt

import (
	"reflect"
	"testing"
)

func TestParseHighlightsBracketedJSON(t *testing.T) {
	got := ParseHighlights(`Intro text ["a", "b", "c"] trailing`)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseHighlights = %v, want %v", got, want)
	}
}

func TestParseHighlightsWholeTextArray(t *testing.T) {
	got := ParseHighlights(`["Hiked the ridge", "Swam at dawn"]`)
	want := []string{"Hiked the ridge", "Swam at dawn"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseHighlights = %v, want %v", got, want)
	}
}

func TestParseHighlightsBulletFallback(t *testing.T) {
	got := ParseHighlights("- Saw the tower\n* Ate pasta")
	want := []string{"Saw the tower", "Ate pasta"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseHighlights = %v, want %v", got, want)
	}
}

func TestParseHighlightsBulletVariants(t *testing.T) {
	got := ParseHighlights("• Climbed the pass\n\n  - Tasted local cheese  \nWatched the sunset")
	want := []string{"Climbed the pass", "Tasted local cheese", "Watched the sunset"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseHighlights = %v, want %v", got, want)
	}
}

func TestParseHighlightsNonArrayJSON(t *testing.T) {
	got := ParseHighlights(`"just one highlight"`)
	want := []string{`"just one highlight"`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseHighlights = %v, want %v", got, want)
	}
}

func TestParseHighlightsMalformedBrackets(t *testing.T) {
	got := ParseHighlights("[not json\n- Crossed the bridge")
	want := []string{"[not json", "Crossed the bridge"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseHighlights = %v, want %v", got, want)
	}
}

func TestParseHighlightsEmpty(t *testing.T) {
	got := ParseHighlights("   \n ")
	if len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestParseHighlightsMixedElementTypes(t *testing.T) {
	got := ParseHighlights(`[1, "two"]`)
	want := []string{"1", "two"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseHighlights = %v, want %v", got, want)
	}
}
