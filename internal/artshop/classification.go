package artshop

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/koopa0/artshop/internal/events"
	apperrors "github.com/koopa0/artshop/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// ClassificationService 分類服務
type ClassificationService struct {
	classifications ClassificationStore
	arts            ArtStore

	cache    EntityCache[Classification]
	artCache EntityCache[Art]

	group  singleflight.Group
	events notifier
	logger *slog.Logger
}

// NewClassificationService 創建分類服務
func NewClassificationService(store Store, caches Caches, publisher events.Publisher, logger *slog.Logger) *ClassificationService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("service", "classification")
	return &ClassificationService{
		classifications: store,
		arts:            store,
		cache:           caches.Classifications,
		artCache:        caches.Arts,
		events:          notifier{publisher: publisher, logger: logger},
		logger:          logger,
	}
}

// Create 新增分類
func (s *ClassificationService) Create(ctx context.Context, in Classification) (Classification, error) {
	if err := validateClassification(in); err != nil {
		return Classification{}, err
	}

	saved, err := s.classifications.CreateClassification(ctx, Classification{
		Name:        in.Name,
		Description: in.Description,
	})
	if err != nil {
		return Classification{}, fmt.Errorf("create classification: %w", err)
	}
	s.cache.Put(saved.ID, saved)

	s.logger.Info("classification created", "id", saved.ID, "name", saved.Name)
	s.events.notify(ctx, events.EntityClassification, events.ActionCreated, saved.ID)
	return saved, nil
}

// CreateBulk 批次新增分類
func (s *ClassificationService) CreateBulk(ctx context.Context, in []Classification) ([]Classification, error) {
	if err := checkBulkSize(len(in), "Classification", "classifications"); err != nil {
		return nil, err
	}
	for i, c := range in {
		if err := validateClassification(c); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	created := make([]Classification, 0, len(in))
	for _, c := range in {
		saved, err := s.Create(ctx, c)
		if err != nil {
			return created, err
		}
		created = append(created, saved)
	}
	return created, nil
}

// Get 依 ID 取得分類
func (s *ClassificationService) Get(ctx context.Context, id int) (Classification, error) {
	return loadThrough(ctx, &s.group, s.cache, id, s.classifications.GetClassification)
}

// List 列出所有分類
func (s *ClassificationService) List(ctx context.Context) ([]Classification, error) {
	generation := s.cache.Generation()
	list, err := s.classifications.ListClassifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	putAll(s.cache, generation, list, classificationID)
	return list, nil
}

// ByName 依名稱查詢（不分大小寫、部分比對）
func (s *ClassificationService) ByName(ctx context.Context, name string) ([]Classification, error) {
	generation := s.cache.Generation()
	list, err := s.classifications.SearchClassifications(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("search classifications: %w", err)
	}
	if len(list) == 0 {
		s.logger.Warn("no classifications found with name", "name", name)
	}
	putAll(s.cache, generation, list, classificationID)
	return list, nil
}

// ByArtTitle 依作品標題查詢分類
func (s *ClassificationService) ByArtTitle(ctx context.Context, title string) ([]Classification, error) {
	generation := s.cache.Generation()
	list, err := s.classifications.ClassificationsByArtTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("classifications by art title: %w", err)
	}
	if len(list) == 0 {
		s.logger.Warn("no classifications found for artwork title", "title", title)
	}
	putAll(s.cache, generation, list, classificationID)
	return list, nil
}

// Update 整筆更新分類
func (s *ClassificationService) Update(ctx context.Context, id int, in Classification) (Classification, error) {
	if err := validateClassification(in); err != nil {
		return Classification{}, err
	}

	in.ID = id
	return s.save(ctx, in)
}

// Patch 部分更新分類
func (s *ClassificationService) Patch(ctx context.Context, id int, p ClassificationPatch) (Classification, error) {
	if !p.HasUpdates() {
		return Classification{}, apperrors.InvalidInput("No fields to update")
	}

	current, err := s.classifications.GetClassification(ctx, id)
	if err != nil {
		return Classification{}, err
	}
	if p.Name != nil {
		current.Name = *p.Name
	}
	if p.Description != nil {
		current.Description = *p.Description
	}
	if err := validateClassification(current); err != nil {
		return Classification{}, err
	}

	return s.save(ctx, current)
}

// save 寫入資料庫後更新快取，並刷新此分類下的作品
func (s *ClassificationService) save(ctx context.Context, c Classification) (Classification, error) {
	updated, err := s.classifications.UpdateClassification(ctx, c)
	if err != nil {
		return Classification{}, err
	}
	s.cache.Update(updated.ID, updated)

	arts, err := s.arts.ArtsByClassificationID(ctx, updated.ID)
	if err != nil {
		s.logger.Warn("refresh arts of updated classification failed", "id", updated.ID, "error", err)
	}
	for _, art := range arts {
		s.artCache.Update(art.ID, art)
	}

	s.events.notify(ctx, events.EntityClassification, events.ActionUpdated, updated.ID)
	return updated, nil
}

// Delete 刪除分類，原本屬於此分類的作品變為未分類
func (s *ClassificationService) Delete(ctx context.Context, id int) error {
	arts, err := s.arts.ArtsByClassificationID(ctx, id)
	if err != nil {
		return fmt.Errorf("arts of classification %d: %w", id, err)
	}

	if err := s.classifications.DeleteClassification(ctx, id); err != nil {
		return err
	}
	s.cache.Evict(id)

	for _, art := range arts {
		refreshed, err := s.arts.GetArt(ctx, art.ID)
		if err != nil {
			s.logger.Warn("refresh art after classification delete failed", "art_id", art.ID, "error", err)
			continue
		}
		s.artCache.Update(refreshed.ID, refreshed)
	}

	s.logger.Info("classification deleted", "id", id)
	s.events.notify(ctx, events.EntityClassification, events.ActionDeleted, id)
	return nil
}

// CacheInfo 快取診斷摘要
func (s *ClassificationService) CacheInfo() string {
	return s.cache.InfoSummary()
}
