package store

import "wayfarer/pkg/domain"

// Store defines persistence for adventures, media, the AI configuration
// singleton, and the generated-artifact cache.
type Store interface {
	// adventures
	SaveAdventure(domain.Adventure) error
	GetAdventure(id string) (domain.Adventure, bool, error)
	ListAdventures() ([]domain.Adventure, error)
	DeleteAdventure(id string) error

	// media
	SaveMedia(domain.Media) error
	GetMedia(id string) (domain.Media, bool, error)
	ListMediaByAdventure(adventureID string) ([]domain.Media, error)
	DeleteMedia(id string) error
	SetMediaCount(adventureID string, count int) error

	// ai config (single row)
	GetAIConfig() (domain.AIConfig, error)
	SaveAIConfig(domain.AIConfig) error

	// artifact cache, unique on (adventure_id, summary_type)
	UpsertArtifact(domain.Artifact) error
	GetArtifact(adventureID string, artifactType domain.ArtifactType) (domain.Artifact, bool, error)
	ListArtifacts(adventureID string) ([]domain.Artifact, error)
}
