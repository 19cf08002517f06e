package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"wayfarer/internal/util"
	"wayfarer/pkg/ai"
	"wayfarer/pkg/domain"
	"wayfarer/pkg/queue"
	"wayfarer/pkg/storage"
	"wayfarer/pkg/store"
)

// Sentinel errors mapped to HTTP statuses by the route layer.
var (
	ErrAdventureNotFound = errors.New("adventure not found")
	ErrMediaNotFound     = errors.New("media not found")
	ErrInvalidInput      = errors.New("invalid input")
)

// JobQueue is the subset of the redis queue the app enqueues onto.
type JobQueue interface {
	Enqueue(ctx context.Context, adventureID, trigger string) (queue.JobStatus, error)
	GetJob(ctx context.Context, jobID string) (queue.JobStatus, bool, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	Objects        storage.ObjectStore

	Dispatcher *ai.Dispatcher
	Jobs       JobQueue
}

// App is the core application service wiring storage, object storage, the
// job queue, and generation together.
type App struct {
	store         store.Store
	objects       storage.ObjectStore
	ai            *ai.Dispatcher
	jobs          JobQueue
	presignExpiry time.Duration
}

// New constructs the application. Store and Objects may be injected for
// tests; otherwise Postgres and MinIO connections are established here.
func New(cfg Config) (*App, error) {
	objStore := cfg.Objects
	if objStore == nil {
		var err error
		objStore, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
	}
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("ai dispatcher required")
	}

	return &App{
		store:         dataStore,
		objects:       objStore,
		ai:            cfg.Dispatcher,
		jobs:          cfg.Jobs,
		presignExpiry: 15 * time.Minute,
	}, nil
}

// AdventureInput carries the writable adventure fields.
type AdventureInput struct {
	Title       string      `json:"title"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	StartDate   time.Time   `json:"startDate"`
	EndDate     time.Time   `json:"endDate"`
	DistanceKM  float64     `json:"distanceKm"`
	Stops       []StopInput `json:"stops"`
}

type StopInput struct {
	Name       string `json:"name"`
	PhotoCount int    `json:"photoCount"`
}

// CreateAdventure stores a new adventure and, when auto-generation is on,
// enqueues a regeneration job for it.
func (a *App) CreateAdventure(ctx context.Context, in AdventureInput) (domain.Adventure, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Adventure{}, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	now := time.Now().UTC()
	adv := domain.Adventure{
		ID:        util.NewID(),
		CreatedAt: now,
	}
	applyInput(&adv, in, now)
	if err := a.store.SaveAdventure(adv); err != nil {
		return domain.Adventure{}, fmt.Errorf("save adventure: %w", err)
	}
	a.maybeEnqueueRegeneration(ctx, adv.ID)
	return adv, nil
}

// UpdateAdventure overwrites the writable fields of an existing adventure.
func (a *App) UpdateAdventure(ctx context.Context, id string, in AdventureInput) (domain.Adventure, error) {
	adv, ok, err := a.store.GetAdventure(id)
	if err != nil {
		return domain.Adventure{}, fmt.Errorf("get adventure: %w", err)
	}
	if !ok {
		return domain.Adventure{}, ErrAdventureNotFound
	}
	if strings.TrimSpace(in.Title) == "" {
		in.Title = adv.Title
	}
	applyInput(&adv, in, time.Now().UTC())
	if err := a.store.SaveAdventure(adv); err != nil {
		return domain.Adventure{}, fmt.Errorf("save adventure: %w", err)
	}
	a.maybeEnqueueRegeneration(ctx, adv.ID)
	return adv, nil
}

func applyInput(adv *domain.Adventure, in AdventureInput, now time.Time) {
	adv.Title = strings.TrimSpace(in.Title)
	adv.Location = strings.TrimSpace(in.Location)
	adv.Description = in.Description
	adv.StartDate = in.StartDate
	adv.EndDate = in.EndDate
	adv.DistanceKM = in.DistanceKM
	adv.DurationDays = durationDays(in.StartDate, in.EndDate)
	adv.UpdatedAt = now

	stops := make([]domain.Stop, 0, len(in.Stops))
	for i, s := range in.Stops {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		stops = append(stops, domain.Stop{
			ID:         util.NewID(),
			Name:       name,
			PhotoCount: s.PhotoCount,
			Position:   i,
		})
	}
	adv.Stops = stops
	adv.StopCount = len(stops)
}

func durationDays(start, end time.Time) int {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// GetAdventure retrieves an adventure by ID.
func (a *App) GetAdventure(id string) (domain.Adventure, bool, error) {
	return a.store.GetAdventure(id)
}

// ListAdventures returns all adventures, newest first.
func (a *App) ListAdventures() ([]domain.Adventure, error) {
	return a.store.ListAdventures()
}

// DeleteAdventure removes an adventure, its media objects, and cached
// artifacts.
func (a *App) DeleteAdventure(ctx context.Context, id string) error {
	_, ok, err := a.store.GetAdventure(id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	media, err := a.store.ListMediaByAdventure(id)
	if err != nil {
		return err
	}
	if err := a.store.DeleteAdventure(id); err != nil {
		return err
	}
	for _, m := range media {
		if err := a.objects.Delete(ctx, m.StorageKey); err != nil {
			util.LoggerFromContext(ctx).Warn("delete media object failed",
				"adventure_id", id, "media_id", m.ID, "err", err)
		}
	}
	return nil
}

// UploadMedia stores a media file and its metadata, then refreshes the
// adventure's media count.
func (a *App) UploadMedia(ctx context.Context, adventureID, filename string, r io.Reader, size int64) (domain.Media, error) {
	_, ok, err := a.store.GetAdventure(adventureID)
	if err != nil {
		return domain.Media{}, err
	}
	if !ok {
		return domain.Media{}, ErrAdventureNotFound
	}
	if strings.TrimSpace(filename) == "" {
		return domain.Media{}, fmt.Errorf("%w: filename required", ErrInvalidInput)
	}

	id := util.NewID()
	key := storage.MediaKey(adventureID, id, filename)
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := a.objects.Put(ctx, key, r, size, contentType); err != nil {
		return domain.Media{}, fmt.Errorf("save media object: %w", err)
	}
	media := domain.Media{
		ID:          id,
		AdventureID: adventureID,
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		StorageKey:  key,
		SizeBytes:   size,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.store.SaveMedia(media); err != nil {
		_ = a.objects.Delete(ctx, key)
		return domain.Media{}, fmt.Errorf("save media: %w", err)
	}
	a.refreshMediaCount(ctx, adventureID)
	return media, nil
}

// OpenMedia streams a stored media object. The caller closes the reader.
func (a *App) OpenMedia(ctx context.Context, adventureID, mediaID string) (domain.Media, io.ReadCloser, error) {
	media, err := a.mediaForAdventure(adventureID, mediaID)
	if err != nil {
		return domain.Media{}, nil, err
	}
	rc, err := a.objects.Get(ctx, media.StorageKey)
	if err != nil {
		return domain.Media{}, nil, fmt.Errorf("open media object: %w", err)
	}
	return media, rc, nil
}

// MediaDownloadURL returns a pre-signed URL and the original filename.
func (a *App) MediaDownloadURL(ctx context.Context, adventureID, mediaID string) (string, string, error) {
	media, err := a.mediaForAdventure(adventureID, mediaID)
	if err != nil {
		return "", "", err
	}
	url, err := a.objects.PresignGet(ctx, media.StorageKey, a.presignExpiry)
	if err != nil {
		return "", "", err
	}
	return url, media.Filename, nil
}

// DeleteMedia removes a media record and its object.
func (a *App) DeleteMedia(ctx context.Context, adventureID, mediaID string) error {
	media, err := a.mediaForAdventure(adventureID, mediaID)
	if err != nil {
		return err
	}
	if err := a.store.DeleteMedia(mediaID); err != nil {
		return err
	}
	if err := a.objects.Delete(ctx, media.StorageKey); err != nil {
		return err
	}
	a.refreshMediaCount(ctx, adventureID)
	return nil
}

// ListMedia returns media metadata for an adventure.
func (a *App) ListMedia(adventureID string) ([]domain.Media, error) {
	return a.store.ListMediaByAdventure(adventureID)
}

func (a *App) mediaForAdventure(adventureID, mediaID string) (domain.Media, error) {
	media, ok, err := a.store.GetMedia(mediaID)
	if err != nil {
		return domain.Media{}, err
	}
	if !ok || media.AdventureID != adventureID {
		return domain.Media{}, ErrMediaNotFound
	}
	return media, nil
}

func (a *App) refreshMediaCount(ctx context.Context, adventureID string) {
	media, err := a.store.ListMediaByAdventure(adventureID)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("list media for count failed", "adventure_id", adventureID, "err", err)
		return
	}
	if err := a.store.SetMediaCount(adventureID, len(media)); err != nil {
		util.LoggerFromContext(ctx).Warn("set media count failed", "adventure_id", adventureID, "err", err)
	}
}
