package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"wayfarer/pkg/domain"
)

const migrateLockID int64 = 52310524

const aiConfigRowID = 1

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&AdventureModel{},
			&StopModel{},
			&MediaModel{},
			&AIConfigModel{},
			&AISummaryModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveAdventure upserts an adventure and replaces its stop list.
func (s *GormStore) SaveAdventure(adv domain.Adventure) error {
	model := adventureToModel(adv)
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "location", "description", "start_date", "end_date", "duration_days", "distance_km", "media_count", "updated_at"}),
		}).Create(&model).Error; err != nil {
			return err
		}
		if err := tx.Where("adventure_id = ?", adv.ID).Delete(&StopModel{}).Error; err != nil {
			return err
		}
		if len(adv.Stops) == 0 {
			return nil
		}
		stops := make([]StopModel, 0, len(adv.Stops))
		for i, stop := range adv.Stops {
			stops = append(stops, StopModel{
				ID:          stop.ID,
				AdventureID: adv.ID,
				Name:        stop.Name,
				PhotoCount:  stop.PhotoCount,
				Position:    i,
			})
		}
		return tx.Create(&stops).Error
	})
}

// GetAdventure loads an adventure with its stops in visit order.
func (s *GormStore) GetAdventure(id string) (domain.Adventure, bool, error) {
	var model AdventureModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Adventure{}, false, nil
		}
		return domain.Adventure{}, false, err
	}
	var stops []StopModel
	if err := s.db.Where("adventure_id = ?", id).Order("position asc").Find(&stops).Error; err != nil {
		return domain.Adventure{}, false, err
	}
	return adventureFromModel(model, stops), true, nil
}

// ListAdventures returns all adventures, newest first, without stop lists.
func (s *GormStore) ListAdventures() ([]domain.Adventure, error) {
	var models []AdventureModel
	if err := s.db.Order("created_at desc").Find(&models).Error; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	counts := map[string]int{}
	if len(ids) > 0 {
		type stopCount struct {
			AdventureID string
			N           int
		}
		var rows []stopCount
		if err := s.db.Model(&StopModel{}).
			Select("adventure_id, count(*) as n").
			Where("adventure_id IN ?", ids).
			Group("adventure_id").
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			counts[row.AdventureID] = row.N
		}
	}
	out := make([]domain.Adventure, 0, len(models))
	for _, m := range models {
		adv := adventureFromModel(m, nil)
		adv.StopCount = counts[m.ID]
		out = append(out, adv)
	}
	return out, nil
}

// DeleteAdventure removes the adventure with its stops, media rows, and
// cached artifacts.
func (s *GormStore) DeleteAdventure(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("adventure_id = ?", id).Delete(&StopModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("adventure_id = ?", id).Delete(&MediaModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("adventure_id = ?", id).Delete(&AISummaryModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&AdventureModel{}, "id = ?", id).Error
	})
}

// SaveMedia stores a media record.
func (s *GormStore) SaveMedia(m domain.Media) error {
	model := mediaToModel(m)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"filename", "content_type", "storage_key", "size_bytes"}),
	}).Create(&model).Error
}

// GetMedia loads one media record by ID.
func (s *GormStore) GetMedia(id string) (domain.Media, bool, error) {
	var model MediaModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Media{}, false, nil
		}
		return domain.Media{}, false, err
	}
	return mediaFromModel(model), true, nil
}

// ListMediaByAdventure returns media for an adventure, oldest first.
func (s *GormStore) ListMediaByAdventure(adventureID string) ([]domain.Media, error) {
	var models []MediaModel
	if err := s.db.Where("adventure_id = ?", adventureID).Order("created_at asc").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Media, 0, len(models))
	for _, m := range models {
		out = append(out, mediaFromModel(m))
	}
	return out, nil
}

// DeleteMedia removes one media record.
func (s *GormStore) DeleteMedia(id string) error {
	return s.db.Delete(&MediaModel{}, "id = ?", id).Error
}

// SetMediaCount updates the denormalized media counter on the adventure.
func (s *GormStore) SetMediaCount(adventureID string, count int) error {
	return s.db.Model(&AdventureModel{}).
		Where("id = ?", adventureID).
		Updates(map[string]any{
			"media_count": count,
			"updated_at":  time.Now().UTC(),
		}).Error
}

// GetAIConfig reads the singleton configuration row.
func (s *GormStore) GetAIConfig() (domain.AIConfig, error) {
	var model AIConfigModel
	if err := s.db.First(&model, "id = ?", aiConfigRowID).Error; err != nil {
		return domain.AIConfig{}, err
	}
	return domain.AIConfig{
		Provider:       model.Provider,
		Model:          model.Model,
		AutoGenerate:   model.AutoGenerate,
		VertexProject:  model.VertexProject,
		VertexLocation: model.VertexLocation,
	}, nil
}

// SaveAIConfig upserts the singleton configuration row.
func (s *GormStore) SaveAIConfig(cfg domain.AIConfig) error {
	model := AIConfigModel{
		ID:             aiConfigRowID,
		Provider:       cfg.Provider,
		Model:          cfg.Model,
		AutoGenerate:   cfg.AutoGenerate,
		VertexProject:  cfg.VertexProject,
		VertexLocation: cfg.VertexLocation,
		UpdatedAt:      time.Now().UTC(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"provider", "model", "auto_generate", "vertex_project", "vertex_location", "updated_at"}),
	}).Create(&model).Error
}

// UpsertArtifact inserts a generated artifact, or on conflict of
// (adventure_id, summary_type) overwrites content, model, and token count.
func (s *GormStore) UpsertArtifact(a domain.Artifact) error {
	model, err := artifactToModel(a)
	if err != nil {
		return err
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "adventure_id"}, {Name: "summary_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "highlights", "model", "tokens_used", "updated_at"}),
	}).Create(&model).Error
}

// GetArtifact is a point lookup on the artifact cache.
func (s *GormStore) GetArtifact(adventureID string, artifactType domain.ArtifactType) (domain.Artifact, bool, error) {
	var model AISummaryModel
	err := s.db.Where("adventure_id = ? AND summary_type = ?", adventureID, string(artifactType)).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Artifact{}, false, nil
		}
		return domain.Artifact{}, false, err
	}
	artifact, err := artifactFromModel(model)
	if err != nil {
		return domain.Artifact{}, false, err
	}
	return artifact, true, nil
}

// ListArtifacts returns all cached artifacts for an adventure.
func (s *GormStore) ListArtifacts(adventureID string) ([]domain.Artifact, error) {
	var models []AISummaryModel
	if err := s.db.Where("adventure_id = ?", adventureID).Order("summary_type asc").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Artifact, 0, len(models))
	for _, m := range models {
		artifact, err := artifactFromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, artifact)
	}
	return out, nil
}

func adventureToModel(adv domain.Adventure) AdventureModel {
	return AdventureModel{
		ID:           adv.ID,
		Title:        adv.Title,
		Location:     adv.Location,
		Description:  adv.Description,
		StartDate:    adv.StartDate,
		EndDate:      adv.EndDate,
		DurationDays: adv.DurationDays,
		DistanceKM:   adv.DistanceKM,
		MediaCount:   adv.MediaCount,
		CreatedAt:    adv.CreatedAt,
		UpdatedAt:    adv.UpdatedAt,
	}
}

func adventureFromModel(m AdventureModel, stops []StopModel) domain.Adventure {
	adv := domain.Adventure{
		ID:           m.ID,
		Title:        m.Title,
		Location:     m.Location,
		Description:  m.Description,
		StartDate:    m.StartDate,
		EndDate:      m.EndDate,
		DurationDays: m.DurationDays,
		DistanceKM:   m.DistanceKM,
		MediaCount:   m.MediaCount,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if len(stops) > 0 {
		adv.Stops = make([]domain.Stop, 0, len(stops))
		for _, stop := range stops {
			adv.Stops = append(adv.Stops, domain.Stop{
				ID:         stop.ID,
				Name:       stop.Name,
				PhotoCount: stop.PhotoCount,
				Position:   stop.Position,
			})
		}
	}
	adv.StopCount = len(adv.Stops)
	return adv
}

func mediaToModel(m domain.Media) MediaModel {
	return MediaModel{
		ID:          m.ID,
		AdventureID: m.AdventureID,
		Filename:    m.Filename,
		ContentType: m.ContentType,
		StorageKey:  m.StorageKey,
		SizeBytes:   m.SizeBytes,
		CreatedAt:   m.CreatedAt,
	}
}

func mediaFromModel(m MediaModel) domain.Media {
	return domain.Media{
		ID:          m.ID,
		AdventureID: m.AdventureID,
		Filename:    m.Filename,
		ContentType: m.ContentType,
		StorageKey:  m.StorageKey,
		SizeBytes:   m.SizeBytes,
		CreatedAt:   m.CreatedAt,
	}
}

func artifactToModel(a domain.Artifact) (AISummaryModel, error) {
	model := AISummaryModel{
		ID:          newArtifactID(a.AdventureID, a.Type),
		AdventureID: a.AdventureID,
		SummaryType: string(a.Type),
		Content:     a.Content,
		Model:       a.Model,
		TokensUsed:  a.TokensUsed,
		UpdatedAt:   a.UpdatedAt,
	}
	if model.UpdatedAt.IsZero() {
		model.UpdatedAt = time.Now().UTC()
	}
	if len(a.Highlights) > 0 {
		payload, err := json.Marshal(a.Highlights)
		if err != nil {
			return AISummaryModel{}, fmt.Errorf("encode highlights: %w", err)
		}
		model.Highlights = payload
	}
	return model, nil
}

func artifactFromModel(m AISummaryModel) (domain.Artifact, error) {
	artifact := domain.Artifact{
		AdventureID: m.AdventureID,
		Type:        domain.ArtifactType(m.SummaryType),
		Content:     m.Content,
		Model:       m.Model,
		TokensUsed:  m.TokensUsed,
		UpdatedAt:   m.UpdatedAt,
	}
	if len(m.Highlights) > 0 {
		if err := json.Unmarshal(m.Highlights, &artifact.Highlights); err != nil {
			return domain.Artifact{}, fmt.Errorf("decode highlights: %w", err)
		}
	}
	return artifact, nil
}

// newArtifactID derives a stable row ID from the unique key so that repeated
// upserts never accumulate rows even if the conflict clause is bypassed.
func newArtifactID(adventureID string, artifactType domain.ArtifactType) string {
	return adventureID + ":" + string(artifactType)
}
