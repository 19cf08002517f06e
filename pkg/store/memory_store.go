package store

import (
	"sort"
	"sync"
	"time"

	"wayfarer/pkg/domain"
)

// MemoryStore keeps everything in-process. Used in tests and for local
// development without Postgres.
type MemoryStore struct {
	mu         sync.RWMutex
	adventures map[string]domain.Adventure
	order      []string
	media      map[string]domain.Media
	artifacts  map[string]domain.Artifact // key: adventureID + ":" + type
	config     *domain.AIConfig
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		adventures: make(map[string]domain.Adventure),
		media:      make(map[string]domain.Media),
		artifacts:  make(map[string]domain.Artifact),
	}
}

// SaveAdventure stores or replaces an adventure, tracking insertion order.
func (m *MemoryStore) SaveAdventure(adv domain.Adventure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.adventures[adv.ID]; !exists {
		m.order = append(m.order, adv.ID)
	}
	adv.StopCount = len(adv.Stops)
	m.adventures[adv.ID] = adv
	return nil
}

// GetAdventure returns one adventure by ID.
func (m *MemoryStore) GetAdventure(id string) (domain.Adventure, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	adv, ok := m.adventures[id]
	return adv, ok, nil
}

// ListAdventures returns adventures in insertion order.
func (m *MemoryStore) ListAdventures() ([]domain.Adventure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Adventure, 0, len(m.order))
	for _, id := range m.order {
		if adv, ok := m.adventures[id]; ok {
			out = append(out, adv)
		}
	}
	return out, nil
}

// DeleteAdventure removes an adventure and everything attached to it.
func (m *MemoryStore) DeleteAdventure(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.adventures, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	for mediaID, media := range m.media {
		if media.AdventureID == id {
			delete(m.media, mediaID)
		}
	}
	for key, artifact := range m.artifacts {
		if artifact.AdventureID == id {
			delete(m.artifacts, key)
		}
	}
	return nil
}

// SaveMedia stores or replaces a media record.
func (m *MemoryStore) SaveMedia(media domain.Media) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[media.ID] = media
	return nil
}

// GetMedia returns one media record by ID.
func (m *MemoryStore) GetMedia(id string) (domain.Media, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	media, ok := m.media[id]
	return media, ok, nil
}

// ListMediaByAdventure returns media for an adventure, oldest first.
func (m *MemoryStore) ListMediaByAdventure(adventureID string) ([]domain.Media, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Media, 0)
	for _, media := range m.media {
		if media.AdventureID == adventureID {
			out = append(out, media)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteMedia removes one media record.
func (m *MemoryStore) DeleteMedia(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.media, id)
	return nil
}

// SetMediaCount updates the media counter on the adventure.
func (m *MemoryStore) SetMediaCount(adventureID string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	adv, ok := m.adventures[adventureID]
	if !ok {
		return nil
	}
	adv.MediaCount = count
	adv.UpdatedAt = time.Now().UTC()
	m.adventures[adventureID] = adv
	return nil
}

// GetAIConfig returns the stored configuration, defaulting until one is saved.
func (m *MemoryStore) GetAIConfig() (domain.AIConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return domain.DefaultAIConfig(), nil
	}
	return *m.config, nil
}

// SaveAIConfig replaces the singleton configuration.
func (m *MemoryStore) SaveAIConfig(cfg domain.AIConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = &cfg
	return nil
}

// UpsertArtifact inserts or overwrites the artifact for its key.
func (m *MemoryStore) UpsertArtifact(a domain.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}
	m.artifacts[artifactKey(a.AdventureID, a.Type)] = a
	return nil
}

// GetArtifact is a point lookup on the artifact cache.
func (m *MemoryStore) GetArtifact(adventureID string, artifactType domain.ArtifactType) (domain.Artifact, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	artifact, ok := m.artifacts[artifactKey(adventureID, artifactType)]
	return artifact, ok, nil
}

// ListArtifacts returns all cached artifacts for an adventure.
func (m *MemoryStore) ListArtifacts(adventureID string) ([]domain.Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Artifact, 0)
	for _, artifact := range m.artifacts {
		if artifact.AdventureID == adventureID {
			out = append(out, artifact)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func artifactKey(adventureID string, artifactType domain.ArtifactType) string {
	return adventureID + ":" + string(artifactType)
}
