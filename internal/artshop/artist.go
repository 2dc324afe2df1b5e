package artshop

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/koopa0/artshop/internal/events"
	apperrors "github.com/koopa0/artshop/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// ArtistService 藝術家服務
//
// 快取一致性規則：
//   - 讀取：Cache-Aside（loadThrough）
//   - 寫入：先寫資料庫，成功後才動快取
//   - 藝術家姓名變更會改變作品中的嵌入視圖，所以相關作品也要 Update
type ArtistService struct {
	artists ArtistStore
	arts    ArtStore

	cache    EntityCache[Artist]
	artCache EntityCache[Art]

	group  singleflight.Group
	events notifier
	logger *slog.Logger
}

// NewArtistService 創建藝術家服務
func NewArtistService(store Store, caches Caches, publisher events.Publisher, logger *slog.Logger) *ArtistService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("service", "artist")
	return &ArtistService{
		artists:  store,
		arts:     store,
		cache:    caches.Artists,
		artCache: caches.Arts,
		events:   notifier{publisher: publisher, logger: logger},
		logger:   logger,
	}
}

// Create 新增藝術家
//
// 已存在相同名與姓的藝術家時，直接返回既有資料（不重複建立）。
func (s *ArtistService) Create(ctx context.Context, in Artist) (Artist, error) {
	if err := validateArtistNames(in.FirstName, in.MiddleName, in.LastName); err != nil {
		return Artist{}, err
	}

	if !blank(in.FirstName) && !blank(in.LastName) {
		existing, err := s.artists.FindArtistByName(ctx, in.FirstName, in.LastName)
		switch {
		case err == nil:
			s.logger.Warn("artist already exists",
				"first_name", existing.FirstName,
				"last_name", existing.LastName,
				"id", existing.ID)
			return existing, nil
		case !apperrors.IsNotFound(err):
			return Artist{}, fmt.Errorf("find artist by name: %w", err)
		}
	}

	saved, err := s.artists.CreateArtist(ctx, Artist{
		FirstName:  in.FirstName,
		MiddleName: in.MiddleName,
		LastName:   in.LastName,
	})
	if err != nil {
		return Artist{}, fmt.Errorf("create artist: %w", err)
	}
	s.cache.Put(saved.ID, saved)

	s.logger.Info("artist created", "id", saved.ID, "name", saved.FullName())
	s.events.notify(ctx, events.EntityArtist, events.ActionCreated, saved.ID)
	return saved, nil
}

// CreateBulk 批次新增藝術家
//
// 寫入前先驗證全部項目，任何一筆不合法就整批拒絕。
func (s *ArtistService) CreateBulk(ctx context.Context, in []Artist) ([]Artist, error) {
	if err := checkBulkSize(len(in), "Artist", "artists"); err != nil {
		return nil, err
	}
	for i, a := range in {
		if err := validateArtistNames(a.FirstName, a.MiddleName, a.LastName); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	created := make([]Artist, 0, len(in))
	for _, a := range in {
		saved, err := s.Create(ctx, a)
		if err != nil {
			return created, err
		}
		created = append(created, saved)
	}
	return created, nil
}

// Get 依 ID 取得藝術家
func (s *ArtistService) Get(ctx context.Context, id int) (Artist, error) {
	return loadThrough(ctx, &s.group, s.cache, id, s.artists.GetArtist)
}

// List 列出所有藝術家
func (s *ArtistService) List(ctx context.Context) ([]Artist, error) {
	generation := s.cache.Generation()
	artists, err := s.artists.ListArtists(ctx)
	if err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}
	s.logger.Debug("artists loaded", "count", len(artists))
	putAll(s.cache, generation, artists, artistID)
	return artists, nil
}

// Search 依名、姓搜尋（不分大小寫、部分比對）；兩者皆空時返回空清單
func (s *ArtistService) Search(ctx context.Context, firstName, lastName string) ([]Artist, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" && lastName == "" {
		return []Artist{}, nil
	}

	generation := s.cache.Generation()
	artists, err := s.artists.SearchArtists(ctx, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("search artists: %w", err)
	}
	putAll(s.cache, generation, artists, artistID)
	return artists, nil
}

// ByArtTitle 依作品標題查詢藝術家
func (s *ArtistService) ByArtTitle(ctx context.Context, title string) ([]Artist, error) {
	generation := s.cache.Generation()
	artists, err := s.artists.ArtistsByArtTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("artists by art title: %w", err)
	}
	if len(artists) == 0 {
		s.logger.Warn("no artists found for artwork title", "title", title)
	}
	putAll(s.cache, generation, artists, artistID)
	return artists, nil
}

// Update 整筆更新藝術家
func (s *ArtistService) Update(ctx context.Context, id int, in Artist) (Artist, error) {
	if err := validateArtistNames(in.FirstName, in.MiddleName, in.LastName); err != nil {
		return Artist{}, err
	}

	in.ID = id
	return s.save(ctx, in)
}

// Patch 部分更新藝術家
func (s *ArtistService) Patch(ctx context.Context, id int, p ArtistPatch) (Artist, error) {
	if !p.HasUpdates() {
		return Artist{}, apperrors.InvalidInput("No fields to update")
	}

	current, err := s.artists.GetArtist(ctx, id)
	if err != nil {
		return Artist{}, err
	}
	if p.FirstName != nil {
		current.FirstName = *p.FirstName
	}
	if p.MiddleName != nil {
		current.MiddleName = *p.MiddleName
	}
	if p.LastName != nil {
		current.LastName = *p.LastName
	}
	if err := validateArtistNames(current.FirstName, current.MiddleName, current.LastName); err != nil {
		return Artist{}, err
	}

	return s.save(ctx, current)
}

// save 寫入資料庫後更新快取，並刷新該藝術家的作品
func (s *ArtistService) save(ctx context.Context, artist Artist) (Artist, error) {
	updated, err := s.artists.UpdateArtist(ctx, artist)
	if err != nil {
		return Artist{}, err
	}
	s.cache.Update(updated.ID, updated)

	arts, err := s.arts.ArtsByArtistID(ctx, updated.ID)
	if err != nil {
		// 資料庫已寫入成功，作品快取可能短暫保留舊姓名
		s.logger.Warn("refresh arts of updated artist failed", "id", updated.ID, "error", err)
	}
	for _, art := range arts {
		s.artCache.Update(art.ID, art)
	}

	s.events.notify(ctx, events.EntityArtist, events.ActionUpdated, updated.ID)
	return updated, nil
}

// Delete 刪除藝術家
//
// 先記下相關作品，刪除後重新載入並 Update 作品快取（創作者清單已變更）。
func (s *ArtistService) Delete(ctx context.Context, id int) error {
	arts, err := s.arts.ArtsByArtistID(ctx, id)
	if err != nil {
		return fmt.Errorf("arts of artist %d: %w", id, err)
	}

	if err := s.artists.DeleteArtist(ctx, id); err != nil {
		s.logger.Error("delete artist failed", "id", id, "error", err)
		return err
	}
	s.cache.Evict(id)

	for _, art := range arts {
		refreshed, err := s.arts.GetArt(ctx, art.ID)
		if err != nil {
			s.logger.Warn("refresh art after artist delete failed", "art_id", art.ID, "error", err)
			continue
		}
		s.artCache.Update(refreshed.ID, refreshed)
	}

	s.logger.Info("artist deleted", "id", id)
	s.events.notify(ctx, events.EntityArtist, events.ActionDeleted, id)
	return nil
}

// CacheInfo 快取診斷摘要
func (s *ArtistService) CacheInfo() string {
	return s.cache.InfoSummary()
}
