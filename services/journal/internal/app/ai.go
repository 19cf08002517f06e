package app

import (
	"context"
	"fmt"
	"time"

	"wayfarer/internal/util"
	"wayfarer/pkg/ai"
	"wayfarer/pkg/domain"
	"wayfarer/pkg/prompt"
	"wayfarer/pkg/queue"
)

// AIConfig resolves the stored generation configuration. Any storage error
// degrades to the hardcoded default; resolution itself never fails.
func (a *App) AIConfig(ctx context.Context) domain.AIConfig {
	cfg, err := a.store.GetAIConfig()
	if err != nil {
		util.LoggerFromContext(ctx).Warn("ai config read failed, using default", "err", err)
		return domain.DefaultAIConfig()
	}
	return cfg
}

// SetAIConfig validates and persists the singleton configuration.
func (a *App) SetAIConfig(ctx context.Context, cfg domain.AIConfig) error {
	provider, err := ai.ParseProvider(cfg.Provider)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	cfg.Provider = string(provider)
	if cfg.Model == "" {
		cfg.Model = ai.DefaultModel(provider)
	}
	if cfg.VertexLocation == "" {
		cfg.VertexLocation = domain.DefaultAIConfig().VertexLocation
	}
	return a.store.SaveAIConfig(cfg)
}

// AIStatus reports which providers have credentials wired in.
func (a *App) AIStatus() ai.Status {
	return a.ai.Status()
}

// GenerateSummary produces and caches a short summary for the adventure.
func (a *App) GenerateSummary(ctx context.Context, adventureID string) (domain.Artifact, error) {
	adv, err := a.adventureForGeneration(adventureID)
	if err != nil {
		return domain.Artifact{}, err
	}
	return a.generate(ctx, adv, domain.ArtifactSummary, prompt.Summary(adv))
}

// GenerateHighlights produces and caches a highlight list for the adventure.
func (a *App) GenerateHighlights(ctx context.Context, adventureID string) (domain.Artifact, error) {
	adv, err := a.adventureForGeneration(adventureID)
	if err != nil {
		return domain.Artifact{}, err
	}
	return a.generate(ctx, adv, domain.ArtifactHighlights, prompt.Highlights(adv))
}

// GenerateStory produces and caches a longer narrative in the given style.
func (a *App) GenerateStory(ctx context.Context, adventureID string, style domain.StoryStyle) (domain.Artifact, error) {
	adv, err := a.adventureForGeneration(adventureID)
	if err != nil {
		return domain.Artifact{}, err
	}
	return a.generate(ctx, adv, domain.ArtifactStory, prompt.Story(adv, style))
}

func (a *App) adventureForGeneration(adventureID string) (domain.Adventure, error) {
	adv, ok, err := a.store.GetAdventure(adventureID)
	if err != nil {
		return domain.Adventure{}, fmt.Errorf("get adventure: %w", err)
	}
	if !ok {
		return domain.Adventure{}, ErrAdventureNotFound
	}
	return adv, nil
}

// generate runs one provider call and caches the artifact. A cache-write
// failure is logged; the generated content is still returned.
func (a *App) generate(ctx context.Context, adv domain.Adventure, artifactType domain.ArtifactType, p prompt.Prompt) (domain.Artifact, error) {
	cfg := a.AIConfig(ctx)
	provider, err := ai.ParseProvider(cfg.Provider)
	if err != nil {
		return domain.Artifact{}, err
	}
	res, err := a.ai.Generate(ctx, provider, cfg.Model, p.System, p.User)
	if err != nil {
		util.LoggerFromContext(ctx).Error("generation failed",
			"adventure_id", adv.ID, "type", artifactType, "provider", provider, "err", err)
		return domain.Artifact{}, err
	}

	model := cfg.Model
	if model == "" {
		model = ai.DefaultModel(provider)
	}
	artifact := domain.Artifact{
		AdventureID: adv.ID,
		Type:        artifactType,
		Content:     res.Content,
		Model:       model,
		TokensUsed:  res.TokensUsed,
		UpdatedAt:   time.Now().UTC(),
	}
	if artifactType == domain.ArtifactHighlights {
		artifact.Highlights = prompt.ParseHighlights(res.Content)
	}
	if err := a.store.UpsertArtifact(artifact); err != nil {
		util.LoggerFromContext(ctx).Error("artifact cache write failed",
			"adventure_id", adv.ID, "type", artifactType, "err", err)
	}
	return artifact, nil
}

// BatchResult aggregates one RegenerateAll run. A failed stage leaves its
// field nil and contributes nothing to the token total.
type BatchResult struct {
	Summary    *domain.Artifact `json:"summary"`
	Highlights *domain.Artifact `json:"highlights"`
	TokensUsed int              `json:"tokensUsed"`
}

// RegenerateAll runs the summary stage then the highlights stage,
// sequentially. Stage failures are logged and tolerated; neither stage is
// retried and neither aborts the other.
func (a *App) RegenerateAll(ctx context.Context, adventureID string) (BatchResult, error) {
	adv, err := a.adventureForGeneration(adventureID)
	if err != nil {
		return BatchResult{}, err
	}
	logger := util.LoggerFromContext(ctx)
	var result BatchResult

	if summary, err := a.generate(ctx, adv, domain.ArtifactSummary, prompt.Summary(adv)); err != nil {
		logger.Warn("summary stage failed", "adventure_id", adv.ID, "err", err)
	} else {
		result.Summary = &summary
		result.TokensUsed += summary.TokensUsed
	}

	if highlights, err := a.generate(ctx, adv, domain.ArtifactHighlights, prompt.Highlights(adv)); err != nil {
		logger.Warn("highlights stage failed", "adventure_id", adv.ID, "err", err)
	} else {
		result.Highlights = &highlights
		result.TokensUsed += highlights.TokensUsed
	}

	return result, nil
}

// CachedArtifact reads one cached artifact. Misses and storage errors both
// yield nil; errors are logged, never surfaced.
func (a *App) CachedArtifact(ctx context.Context, adventureID string, artifactType domain.ArtifactType) *domain.Artifact {
	artifact, ok, err := a.store.GetArtifact(adventureID, artifactType)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("artifact cache read failed",
			"adventure_id", adventureID, "type", artifactType, "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	return &artifact
}

// Artifacts lists all cached artifacts for an adventure. Storage errors
// degrade to an empty list, logged.
func (a *App) Artifacts(ctx context.Context, adventureID string) []domain.Artifact {
	artifacts, err := a.store.ListArtifacts(adventureID)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("artifact list failed", "adventure_id", adventureID, "err", err)
		return nil
	}
	return artifacts
}

// EnqueueRegeneration submits a manual regeneration job.
func (a *App) EnqueueRegeneration(ctx context.Context, adventureID string) (queue.JobStatus, error) {
	if a.jobs == nil {
		return queue.JobStatus{}, fmt.Errorf("job queue not configured")
	}
	if _, err := a.adventureForGeneration(adventureID); err != nil {
		return queue.JobStatus{}, err
	}
	return a.jobs.Enqueue(ctx, adventureID, "manual")
}

// JobStatus reads one queued job's status.
func (a *App) JobStatus(ctx context.Context, jobID string) (queue.JobStatus, bool, error) {
	if a.jobs == nil {
		return queue.JobStatus{}, false, nil
	}
	return a.jobs.GetJob(ctx, jobID)
}

// HandleRegenerationJob is the queue worker entrypoint.
func (a *App) HandleRegenerationJob(ctx context.Context, job queue.JobStatus) error {
	_, err := a.RegenerateAll(ctx, job.AdventureID)
	return err
}

// maybeEnqueueRegeneration enqueues an auto job when the stored config asks
// for it. Enqueue failures never fail the triggering write.
func (a *App) maybeEnqueueRegeneration(ctx context.Context, adventureID string) {
	if a.jobs == nil {
		return
	}
	cfg := a.AIConfig(ctx)
	if !cfg.AutoGenerate {
		return
	}
	if _, err := a.jobs.Enqueue(ctx, adventureID, "auto"); err != nil {
		util.LoggerFromContext(ctx).Warn("auto regeneration enqueue failed", "adventure_id", adventureID, "err", err)
	}
}
