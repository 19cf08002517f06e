package domain

import "time"

type ArtifactType string

const (
	ArtifactSummary    ArtifactType = "summary"
	ArtifactHighlights ArtifactType = "highlights"
	ArtifactStory      ArtifactType = "story"
)

// ValidArtifactType reports whether t is one of the known artifact kinds.
func ValidArtifactType(t ArtifactType) bool {
	switch t {
	case ArtifactSummary, ArtifactHighlights, ArtifactStory:
		return true
	}
	return false
}

type StoryStyle string

const (
	StyleNarrative StoryStyle = "narrative"
	StyleBlog      StoryStyle = "blog"
	StylePoetic    StoryStyle = "poetic"
	StyleFactual   StoryStyle = "factual"
)

// ParseStoryStyle maps a request value to a StoryStyle. Empty input defaults
// to narrative; unknown values are rejected.
func ParseStoryStyle(raw string) (StoryStyle, bool) {
	switch StoryStyle(raw) {
	case "":
		return StyleNarrative, true
	case StyleNarrative, StyleBlog, StylePoetic, StyleFactual:
		return StoryStyle(raw), true
	}
	return "", false
}

// Adventure is a recorded trip with its metadata and ordered stops.
type Adventure struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Location     string    `json:"location"`
	Description  string    `json:"description,omitempty"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	DurationDays int       `json:"durationDays"`
	DistanceKM   float64   `json:"distanceKm"`
	StopCount    int       `json:"stopCount"`
	MediaCount   int       `json:"mediaCount"`
	Stops        []Stop    `json:"stops,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Stop is one point along an adventure, in visit order.
type Stop struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PhotoCount int    `json:"photoCount"`
	Position   int    `json:"position"`
}

// Media is an uploaded photo or video attached to an adventure.
type Media struct {
	ID          string    `json:"id"`
	AdventureID string    `json:"adventureId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	StorageKey  string    `json:"-"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AIConfig is the singleton generation configuration record.
type AIConfig struct {
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	AutoGenerate   bool   `json:"autoGenerate"`
	VertexProject  string `json:"vertexProject,omitempty"`
	VertexLocation string `json:"vertexLocation,omitempty"`
}

// DefaultAIConfig is returned whenever the stored configuration cannot be read.
func DefaultAIConfig() AIConfig {
	return AIConfig{
		Provider:       "openai",
		Model:          "gpt-4o-mini",
		AutoGenerate:   false,
		VertexLocation: "us-central1",
	}
}

// Artifact is one generated output cached for an adventure. At most one
// artifact exists per (adventure, type); regeneration overwrites in place.
type Artifact struct {
	AdventureID string       `json:"adventureId"`
	Type        ArtifactType `json:"type"`
	Content     string       `json:"content"`
	Highlights  []string     `json:"highlights,omitempty"`
	Model       string       `json:"model"`
	TokensUsed  int          `json:"tokensUsed"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
