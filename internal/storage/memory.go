// Package storage 實現 artshop 的存儲後端
//
//   - Memory：內存存儲（開發、測試、storage.driver: memory）
//   - Postgres：PostgreSQL 持久化（pgx 連接池）
//
// 兩者語義一致：查無資料返回 NOT_FOUND，分類名稱重複返回 CONFLICT，
// 列表一律依 ID 升冪排序。
package storage

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/koopa0/artshop/internal/artshop"
	apperrors "github.com/koopa0/artshop/pkg/errors"
)

type artistRow struct {
	id                          int
	firstName, middleName, last string
}

type classificationRow struct {
	id          int
	name        string
	description string
}

type artRow struct {
	id               int
	title            string
	year             *int
	classificationID int // 0 表示未分類
	artistIDs        []int
}

// Memory 內存存儲實現
//
// 以一把 RWMutex 保護所有表，寫入操作（含關聯）在同一個臨界區完成，
// 相當於資料庫交易。
type Memory struct {
	mu sync.RWMutex

	nextArtistID         int
	nextClassificationID int
	nextArtID            int

	artists         map[int]artistRow
	classifications map[int]classificationRow
	arts            map[int]artRow
}

var _ artshop.Store = (*Memory)(nil)

// NewMemory 創建內存存儲實例
func NewMemory() *Memory {
	return &Memory{
		artists:         make(map[int]artistRow),
		classifications: make(map[int]classificationRow),
		arts:            make(map[int]artRow),
	}
}

// ========== Artist ==========

// CreateArtist 新增藝術家
func (m *Memory) CreateArtist(ctx context.Context, a artshop.Artist) (artshop.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextArtistID++
	row := artistRow{id: m.nextArtistID, firstName: a.FirstName, middleName: a.MiddleName, last: a.LastName}
	m.artists[row.id] = row
	return m.artistLocked(row), nil
}

// GetArtist 依 ID 取得藝術家
func (m *Memory) GetArtist(ctx context.Context, id int) (artshop.Artist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.artists[id]
	if !ok {
		return artshop.Artist{}, artistNotFound(id)
	}
	return m.artistLocked(row), nil
}

// FindArtistByName 依完整名、姓尋找
func (m *Memory) FindArtistByName(ctx context.Context, firstName, lastName string) (artshop.Artist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, row := range sortedRows(m.artists) {
		if row.firstName == firstName && row.last == lastName {
			return m.artistLocked(row), nil
		}
	}
	return artshop.Artist{}, apperrors.NotFound("Artist not found with name: %s %s", firstName, lastName)
}

// ListArtists 列出所有藝術家
func (m *Memory) ListArtists(ctx context.Context) ([]artshop.Artist, error) {
	return m.filterArtists(func(artistRow) bool { return true }), nil
}

// SearchArtists 名、姓不分大小寫部分比對
func (m *Memory) SearchArtists(ctx context.Context, firstName, lastName string) ([]artshop.Artist, error) {
	return m.filterArtists(func(row artistRow) bool {
		return containsFold(row.firstName, firstName) && containsFold(row.last, lastName)
	}), nil
}

// ArtistsByArtTitle 依作品標題部分比對
func (m *Memory) ArtistsByArtTitle(ctx context.Context, title string) ([]artshop.Artist, error) {
	m.mu.RLock()
	matched := make(map[int]bool)
	for _, art := range m.arts {
		if containsFold(art.title, title) {
			for _, id := range art.artistIDs {
				matched[id] = true
			}
		}
	}
	m.mu.RUnlock()

	return m.filterArtists(func(row artistRow) bool { return matched[row.id] }), nil
}

// UpdateArtist 更新藝術家姓名
func (m *Memory) UpdateArtist(ctx context.Context, a artshop.Artist) (artshop.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.artists[a.ID]; !ok {
		return artshop.Artist{}, artistNotFound(a.ID)
	}
	row := artistRow{id: a.ID, firstName: a.FirstName, middleName: a.MiddleName, last: a.LastName}
	m.artists[a.ID] = row
	return m.artistLocked(row), nil
}

// DeleteArtist 刪除藝術家並解除作品關聯
func (m *Memory) DeleteArtist(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.artists[id]; !ok {
		return artistNotFound(id)
	}
	for artID, art := range m.arts {
		if slices.Contains(art.artistIDs, id) {
			art.artistIDs = slices.DeleteFunc(slices.Clone(art.artistIDs), func(v int) bool { return v == id })
			m.arts[artID] = art
		}
	}
	delete(m.artists, id)
	return nil
}

// ========== Classification ==========

// CreateClassification 新增分類（名稱必須唯一）
func (m *Memory) CreateClassification(ctx context.Context, c artshop.Classification) (artshop.Classification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkClassificationNameLocked(c.Name, 0); err != nil {
		return artshop.Classification{}, err
	}
	m.nextClassificationID++
	row := classificationRow{id: m.nextClassificationID, name: c.Name, description: c.Description}
	m.classifications[row.id] = row
	return m.classificationLocked(row), nil
}

// GetClassification 依 ID 取得分類
func (m *Memory) GetClassification(ctx context.Context, id int) (artshop.Classification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.classifications[id]
	if !ok {
		return artshop.Classification{}, classificationNotFound(id)
	}
	return m.classificationLocked(row), nil
}

// FindClassificationByName 依完整名稱尋找
func (m *Memory) FindClassificationByName(ctx context.Context, name string) (artshop.Classification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, row := range sortedRows(m.classifications) {
		if row.name == name {
			return m.classificationLocked(row), nil
		}
	}
	return artshop.Classification{}, apperrors.NotFound("Classification not found with name: %s", name)
}

// ListClassifications 列出所有分類
func (m *Memory) ListClassifications(ctx context.Context) ([]artshop.Classification, error) {
	return m.filterClassifications(func(classificationRow) bool { return true }), nil
}

// SearchClassifications 名稱不分大小寫部分比對
func (m *Memory) SearchClassifications(ctx context.Context, name string) ([]artshop.Classification, error) {
	return m.filterClassifications(func(row classificationRow) bool {
		return containsFold(row.name, name)
	}), nil
}

// ClassificationsByArtTitle 依作品標題部分比對
func (m *Memory) ClassificationsByArtTitle(ctx context.Context, title string) ([]artshop.Classification, error) {
	m.mu.RLock()
	matched := make(map[int]bool)
	for _, art := range m.arts {
		if art.classificationID != 0 && containsFold(art.title, title) {
			matched[art.classificationID] = true
		}
	}
	m.mu.RUnlock()

	return m.filterClassifications(func(row classificationRow) bool { return matched[row.id] }), nil
}

// UpdateClassification 更新分類
func (m *Memory) UpdateClassification(ctx context.Context, c artshop.Classification) (artshop.Classification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.classifications[c.ID]; !ok {
		return artshop.Classification{}, classificationNotFound(c.ID)
	}
	if err := m.checkClassificationNameLocked(c.Name, c.ID); err != nil {
		return artshop.Classification{}, err
	}
	row := classificationRow{id: c.ID, name: c.Name, description: c.Description}
	m.classifications[c.ID] = row
	return m.classificationLocked(row), nil
}

// DeleteClassification 刪除分類，相關作品改為未分類
func (m *Memory) DeleteClassification(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.classifications[id]; !ok {
		return classificationNotFound(id)
	}
	for artID, art := range m.arts {
		if art.classificationID == id {
			art.classificationID = 0
			m.arts[artID] = art
		}
	}
	delete(m.classifications, id)
	return nil
}

// ========== Art ==========

// CreateArt 新增藝術品（分類與藝術家必須已存在）
func (m *Memory) CreateArt(ctx context.Context, a artshop.Art) (artshop.Art, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, err := m.artRowLocked(a)
	if err != nil {
		return artshop.Art{}, err
	}
	m.nextArtID++
	row.id = m.nextArtID
	m.arts[row.id] = row
	return m.artLocked(row), nil
}

// GetArt 依 ID 取得藝術品
func (m *Memory) GetArt(ctx context.Context, id int) (artshop.Art, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.arts[id]
	if !ok {
		return artshop.Art{}, artNotFound(id)
	}
	return m.artLocked(row), nil
}

// GetArtByTitle 依完整標題取得（多筆時取 ID 最小者）
func (m *Memory) GetArtByTitle(ctx context.Context, title string) (artshop.Art, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, row := range sortedRows(m.arts) {
		if row.title == title {
			return m.artLocked(row), nil
		}
	}
	return artshop.Art{}, apperrors.NotFound("Art with title %s not found", title)
}

// ListArts 列出所有藝術品
func (m *Memory) ListArts(ctx context.Context) ([]artshop.Art, error) {
	return m.filterArts(func(artRow) bool { return true }), nil
}

// ArtsByArtistName 依創作者姓氏部分比對
func (m *Memory) ArtsByArtistName(ctx context.Context, lastName string) ([]artshop.Art, error) {
	m.mu.RLock()
	matched := make(map[int]bool)
	for _, artist := range m.artists {
		if containsFold(artist.last, lastName) {
			matched[artist.id] = true
		}
	}
	m.mu.RUnlock()

	return m.filterArts(func(row artRow) bool {
		return slices.ContainsFunc(row.artistIDs, func(id int) bool { return matched[id] })
	}), nil
}

// ArtsByArtistID 依創作者 ID 查詢
func (m *Memory) ArtsByArtistID(ctx context.Context, artistID int) ([]artshop.Art, error) {
	return m.filterArts(func(row artRow) bool { return slices.Contains(row.artistIDs, artistID) }), nil
}

// ArtsByClassificationID 依分類 ID 查詢
func (m *Memory) ArtsByClassificationID(ctx context.Context, classificationID int) ([]artshop.Art, error) {
	return m.filterArts(func(row artRow) bool { return row.classificationID == classificationID }), nil
}

// ArtsByClassificationName 依分類名稱部分比對
func (m *Memory) ArtsByClassificationName(ctx context.Context, name string) ([]artshop.Art, error) {
	m.mu.RLock()
	matched := make(map[int]bool)
	for _, c := range m.classifications {
		if containsFold(c.name, name) {
			matched[c.id] = true
		}
	}
	m.mu.RUnlock()

	return m.filterArts(func(row artRow) bool { return matched[row.classificationID] }), nil
}

// UpdateArt 更新藝術品（含分類與創作者關聯）
func (m *Memory) UpdateArt(ctx context.Context, a artshop.Art) (artshop.Art, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.arts[a.ID]; !ok {
		return artshop.Art{}, artNotFound(a.ID)
	}
	row, err := m.artRowLocked(a)
	if err != nil {
		return artshop.Art{}, err
	}
	row.id = a.ID
	m.arts[a.ID] = row
	return m.artLocked(row), nil
}

// DeleteArt 刪除藝術品
func (m *Memory) DeleteArt(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.arts[id]; !ok {
		return artNotFound(id)
	}
	delete(m.arts, id)
	return nil
}

// ========== 內部輔助（呼叫方需持有鎖） ==========

func (m *Memory) artistLocked(row artistRow) artshop.Artist {
	var titles []string
	for _, art := range sortedRows(m.arts) {
		if slices.Contains(art.artistIDs, row.id) {
			titles = append(titles, art.title)
		}
	}
	return artshop.Artist{
		ID:            row.id,
		FirstName:     row.firstName,
		MiddleName:    row.middleName,
		LastName:      row.last,
		ArtworkTitles: titles,
	}
}

func (m *Memory) classificationLocked(row classificationRow) artshop.Classification {
	var titles []string
	for _, art := range sortedRows(m.arts) {
		if art.classificationID == row.id {
			titles = append(titles, art.title)
		}
	}
	return artshop.Classification{
		ID:            row.id,
		Name:          row.name,
		Description:   row.description,
		ArtworkTitles: titles,
	}
}

// artLocked 組裝藝術品視圖（嵌入的分類與藝術家不含作品清單）
func (m *Memory) artLocked(row artRow) artshop.Art {
	art := artshop.Art{
		ID:      row.id,
		Title:   row.title,
		Artists: []artshop.Artist{},
	}
	if row.year != nil {
		year := *row.year
		art.Year = &year
	}
	if c, ok := m.classifications[row.classificationID]; ok {
		art.Classification = &artshop.Classification{ID: c.id, Name: c.name, Description: c.description}
	}

	ids := slices.Clone(row.artistIDs)
	slices.Sort(ids)
	for _, id := range ids {
		if a, ok := m.artists[id]; ok {
			art.Artists = append(art.Artists, artshop.Artist{
				ID:         a.id,
				FirstName:  a.firstName,
				MiddleName: a.middleName,
				LastName:   a.last,
			})
		}
	}
	return art
}

// artRowLocked 將 Art 轉為資料列並檢查外鍵
func (m *Memory) artRowLocked(a artshop.Art) (artRow, error) {
	row := artRow{title: a.Title}
	if a.Year != nil {
		year := *a.Year
		row.year = &year
	}
	if a.Classification != nil {
		if _, ok := m.classifications[a.Classification.ID]; !ok {
			return artRow{}, classificationNotFound(a.Classification.ID)
		}
		row.classificationID = a.Classification.ID
	}
	for _, artist := range a.Artists {
		if _, ok := m.artists[artist.ID]; !ok {
			return artRow{}, artistNotFound(artist.ID)
		}
		if !slices.Contains(row.artistIDs, artist.ID) {
			row.artistIDs = append(row.artistIDs, artist.ID)
		}
	}
	return row, nil
}

func (m *Memory) checkClassificationNameLocked(name string, selfID int) error {
	for _, row := range m.classifications {
		if row.name == name && row.id != selfID {
			return classificationExists(name)
		}
	}
	return nil
}

func (m *Memory) filterArtists(keep func(artistRow) bool) []artshop.Artist {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []artshop.Artist{}
	for _, row := range sortedRows(m.artists) {
		if keep(row) {
			result = append(result, m.artistLocked(row))
		}
	}
	return result
}

func (m *Memory) filterClassifications(keep func(classificationRow) bool) []artshop.Classification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []artshop.Classification{}
	for _, row := range sortedRows(m.classifications) {
		if keep(row) {
			result = append(result, m.classificationLocked(row))
		}
	}
	return result
}

func (m *Memory) filterArts(keep func(artRow) bool) []artshop.Art {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []artshop.Art{}
	for _, row := range sortedRows(m.arts) {
		if keep(row) {
			result = append(result, m.artLocked(row))
		}
	}
	return result
}

type tableRow interface {
	artistRow | classificationRow | artRow
}

// sortedRows 依 ID 升冪返回資料列
func sortedRows[R tableRow](table map[int]R) []R {
	ids := make([]int, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	rows := make([]R, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, table[id])
	}
	return rows
}

// containsFold 不分大小寫的子字串比對；空的 substr 一律符合
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func artistNotFound(id int) error {
	return apperrors.NotFound("Artist not found with id: %d", id)
}

func classificationNotFound(id int) error {
	return apperrors.NotFound("Classification not found with id: %d", id)
}

func artNotFound(id int) error {
	return apperrors.NotFound("Art with id %d not found", id)
}
