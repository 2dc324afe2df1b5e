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

// ArtService 藝術品服務
//
// 藝術品同時牽動藝術家與分類的嵌入視圖（作品標題清單），
// 所以每次寫入後，新舊關聯的藝術家與分類都會重新載入並 Update 進快取。
// Update 只作用於已在快取中的 key，不會把冷資料塞進快取。
type ArtService struct {
	store Store

	cache               EntityCache[Art]
	artistCache         EntityCache[Artist]
	classificationCache EntityCache[Classification]

	group  singleflight.Group
	events notifier
	logger *slog.Logger
}

// NewArtService 創建藝術品服務
func NewArtService(store Store, caches Caches, publisher events.Publisher, logger *slog.Logger) *ArtService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("service", "art")
	return &ArtService{
		store:               store,
		cache:               caches.Arts,
		artistCache:         caches.Artists,
		classificationCache: caches.Classifications,
		events:              notifier{publisher: publisher, logger: logger},
		logger:              logger,
	}
}

// Add 新增藝術品
//
// 嵌入的分類與藝術家：
//   - 帶 ID：必須已存在，否則 NOT_FOUND
//   - 不帶 ID：依名稱尋找，找不到則建立
func (s *ArtService) Add(ctx context.Context, in Art) (Art, error) {
	if err := validateArt(in); err != nil {
		return Art{}, err
	}

	art, err := s.resolve(ctx, in)
	if err != nil {
		return Art{}, err
	}

	saved, err := s.store.CreateArt(ctx, art)
	if err != nil {
		return Art{}, fmt.Errorf("create art: %w", err)
	}
	s.cache.Put(saved.ID, saved)
	s.refreshRelated(ctx, saved.ArtistIDs(), classificationIDOf(saved))

	s.logger.Info("art created", "id", saved.ID, "title", saved.Title)
	s.events.notify(ctx, events.EntityArt, events.ActionCreated, saved.ID)
	return saved, nil
}

// AddBulk 批次新增藝術品
func (s *ArtService) AddBulk(ctx context.Context, in []Art) ([]Art, error) {
	if err := checkBulkSize(len(in), "Art", "artworks"); err != nil {
		return nil, err
	}
	for i, a := range in {
		if blank(a.Title) {
			return nil, apperrors.InvalidInput("Art title is required for all items (item %d)", i)
		}
		if err := validateArt(a); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	created := make([]Art, 0, len(in))
	for _, a := range in {
		saved, err := s.Add(ctx, a)
		if err != nil {
			return created, err
		}
		created = append(created, saved)
	}
	return created, nil
}

// Get 依 ID 取得藝術品
func (s *ArtService) Get(ctx context.Context, id int) (Art, error) {
	return loadThrough(ctx, &s.group, s.cache, id, s.store.GetArt)
}

// GetByTitle 依完整標題取得藝術品
func (s *ArtService) GetByTitle(ctx context.Context, title string) (Art, error) {
	generation := s.cache.Generation()
	art, err := s.store.GetArtByTitle(ctx, title)
	if err != nil {
		return Art{}, err
	}
	s.cache.PutIfUnchanged(generation, art.ID, art)
	return art, nil
}

// List 列出所有藝術品
func (s *ArtService) List(ctx context.Context) ([]Art, error) {
	generation := s.cache.Generation()
	arts, err := s.store.ListArts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list arts: %w", err)
	}
	s.logger.Debug("arts loaded", "count", len(arts))
	putAll(s.cache, generation, arts, artID)
	return arts, nil
}

// ByArtistName 依創作者姓氏查詢
func (s *ArtService) ByArtistName(ctx context.Context, name string) ([]Art, error) {
	generation := s.cache.Generation()
	arts, err := s.store.ArtsByArtistName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("arts by artist name: %w", err)
	}
	if len(arts) == 0 {
		s.logger.Warn("no artworks found for artist", "artist", name)
	}
	putAll(s.cache, generation, arts, artID)
	return arts, nil
}

// ByClassificationID 依分類 ID 查詢
func (s *ArtService) ByClassificationID(ctx context.Context, classificationID int) ([]Art, error) {
	generation := s.cache.Generation()
	arts, err := s.store.ArtsByClassificationID(ctx, classificationID)
	if err != nil {
		return nil, fmt.Errorf("arts by classification id: %w", err)
	}
	if len(arts) == 0 {
		s.logger.Debug("no artworks found for classification", "classification_id", classificationID)
	}
	putAll(s.cache, generation, arts, artID)
	return arts, nil
}

// ByClassificationName 依分類名稱查詢（不分大小寫、部分比對）
func (s *ArtService) ByClassificationName(ctx context.Context, name string) ([]Art, error) {
	generation := s.cache.Generation()
	arts, err := s.store.ArtsByClassificationName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("arts by classification name: %w", err)
	}
	if len(arts) == 0 {
		s.logger.Debug("no artworks found for classification name", "name", name)
	}
	putAll(s.cache, generation, arts, artID)
	return arts, nil
}

// Update 整筆更新藝術品
//
// Classification 為 nil 表示移除分類；Artists 為 nil 表示保留原創作者。
func (s *ArtService) Update(ctx context.Context, id int, in Art) (Art, error) {
	if err := validateArt(in); err != nil {
		return Art{}, err
	}

	current, err := s.store.GetArt(ctx, id)
	if err != nil {
		return Art{}, err
	}

	if in.Artists == nil {
		in.Artists = current.Artists
	}
	art, err := s.resolve(ctx, in)
	if err != nil {
		return Art{}, err
	}
	art.ID = id

	return s.save(ctx, current, art)
}

// Patch 部分更新藝術品
func (s *ArtService) Patch(ctx context.Context, id int, p ArtPatch) (Art, error) {
	if err := validateArtPatch(p); err != nil {
		return Art{}, err
	}

	current, err := s.store.GetArt(ctx, id)
	if err != nil {
		return Art{}, err
	}

	next := current
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Year != nil {
		year := *p.Year
		next.Year = &year
	}
	if p.ClassificationID != nil {
		c, err := s.store.GetClassification(ctx, *p.ClassificationID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return Art{}, apperrors.NotFound("Classification not found with id: %d", *p.ClassificationID)
			}
			return Art{}, err
		}
		next.Classification = &c
	}
	if p.ArtistIDs != nil {
		artists := make([]Artist, 0, len(p.ArtistIDs))
		for _, artistID := range uniqueIDs(p.ArtistIDs) {
			a, err := s.store.GetArtist(ctx, artistID)
			if err != nil {
				if apperrors.IsNotFound(err) {
					return Art{}, apperrors.NotFound("Some artists not found: %d", artistID)
				}
				return Art{}, err
			}
			artists = append(artists, a)
		}
		next.Artists = artists
	}

	return s.save(ctx, current, next)
}

// save 寫入資料庫、Update 快取，並刷新新舊關聯實體
func (s *ArtService) save(ctx context.Context, before, art Art) (Art, error) {
	updated, err := s.store.UpdateArt(ctx, art)
	if err != nil {
		return Art{}, err
	}
	s.cache.Update(updated.ID, updated)

	s.refreshRelated(ctx,
		uniqueIDs(before.ArtistIDs(), updated.ArtistIDs()),
		classificationIDOf(before), classificationIDOf(updated))

	s.events.notify(ctx, events.EntityArt, events.ActionUpdated, updated.ID)
	return updated, nil
}

// Delete 刪除藝術品
func (s *ArtService) Delete(ctx context.Context, id int) error {
	art, err := s.store.GetArt(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteArt(ctx, id); err != nil {
		return err
	}
	s.cache.Evict(id)
	s.refreshRelated(ctx, art.ArtistIDs(), classificationIDOf(art))

	s.logger.Info("art deleted", "id", id)
	s.events.notify(ctx, events.EntityArt, events.ActionDeleted, id)
	return nil
}

// CacheInfo 快取診斷摘要
func (s *ArtService) CacheInfo() string {
	return s.cache.InfoSummary()
}

// resolve 將嵌入的分類與藝術家對應到資料庫中的實體
func (s *ArtService) resolve(ctx context.Context, in Art) (Art, error) {
	art := Art{
		ID:    in.ID,
		Title: in.Title,
		Year:  in.Year,
	}

	if in.Classification != nil {
		c, err := s.resolveClassification(ctx, *in.Classification)
		if err != nil {
			return Art{}, err
		}
		art.Classification = &c
	}

	seen := make(map[int]struct{}, len(in.Artists))
	for _, a := range in.Artists {
		artist, err := s.resolveArtist(ctx, a)
		if err != nil {
			return Art{}, err
		}
		if _, dup := seen[artist.ID]; dup {
			continue
		}
		seen[artist.ID] = struct{}{}
		art.Artists = append(art.Artists, artist)
	}
	return art, nil
}

func (s *ArtService) resolveClassification(ctx context.Context, in Classification) (Classification, error) {
	if in.ID != 0 {
		c, err := s.store.GetClassification(ctx, in.ID)
		if err != nil {
			return Classification{}, fmt.Errorf("classification %d: %w", in.ID, err)
		}
		return c, nil
	}

	existing, err := s.store.FindClassificationByName(ctx, in.Name)
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return Classification{}, fmt.Errorf("find classification by name: %w", err)
	}

	created, err := s.store.CreateClassification(ctx, Classification{Name: in.Name, Description: in.Description})
	if err != nil {
		return Classification{}, fmt.Errorf("create classification: %w", err)
	}
	s.classificationCache.Put(created.ID, created)
	s.events.notify(ctx, events.EntityClassification, events.ActionCreated, created.ID)
	return created, nil
}

func (s *ArtService) resolveArtist(ctx context.Context, in Artist) (Artist, error) {
	if in.ID != 0 {
		a, err := s.store.GetArtist(ctx, in.ID)
		if err != nil {
			return Artist{}, fmt.Errorf("artist %d: %w", in.ID, err)
		}
		return a, nil
	}

	existing, err := s.store.FindArtistByName(ctx, in.FirstName, in.LastName)
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return Artist{}, fmt.Errorf("find artist by name: %w", err)
	}

	created, err := s.store.CreateArtist(ctx, Artist{
		FirstName:  in.FirstName,
		MiddleName: in.MiddleName,
		LastName:   in.LastName,
	})
	if err != nil {
		return Artist{}, fmt.Errorf("create artist: %w", err)
	}
	s.artistCache.Put(created.ID, created)
	s.events.notify(ctx, events.EntityArtist, events.ActionCreated, created.ID)
	return created, nil
}

// refreshRelated 重新載入關聯的藝術家與分類，Update 進各自的快取
//
// 刷新失敗只記錄日誌：資料庫已是正確狀態，快取最多短暫保留舊視圖。
func (s *ArtService) refreshRelated(ctx context.Context, artistIDs []int, classificationIDs ...int) {
	for _, id := range artistIDs {
		artist, err := s.store.GetArtist(ctx, id)
		if err != nil {
			s.logger.Warn("refresh related artist failed", "artist_id", id, "error", err)
			continue
		}
		s.artistCache.Update(id, artist)
	}

	for _, id := range uniqueIDs(classificationIDs) {
		c, err := s.store.GetClassification(ctx, id)
		if err != nil {
			s.logger.Warn("refresh related classification failed", "classification_id", id, "error", err)
			continue
		}
		s.classificationCache.Update(id, c)
	}
}

func classificationIDOf(a Art) int {
	if a.Classification == nil {
		return 0
	}
	return a.Classification.ID
}
