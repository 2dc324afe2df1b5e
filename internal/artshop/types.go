// Package artshop 實作藝術品商店的領域模型與 Cache-Aside 服務。
//
// 三種實體：
//   - Artist：藝術家
//   - Classification：藝術品分類（繪畫、雕塑 ...）
//   - Art：藝術品，屬於零或一個分類，由多位藝術家創作
//
// 資料流：
//
//	HTTP handler → Service → EntityCache（命中即返回）
//	                       → Store（未命中時載入，再放入快取）
//
// 快取中的值一律視為不可變快照：放入快取後不再修改，
// 需要變更時以新的值呼叫 Update。
package artshop

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Artist 藝術家
type Artist struct {
	ID            int      `json:"id"`
	FirstName     string   `json:"firstName"`
	MiddleName    string   `json:"middleName,omitempty"`
	LastName      string   `json:"lastName"`
	ArtworkTitles []string `json:"artworkTitles,omitempty"` // 作品標題（依作品 ID 排序）
}

// ArtworkCount 作品數量
func (a Artist) ArtworkCount() int {
	return len(a.ArtworkTitles)
}

// FullName 返回以空白連接的姓名
func (a Artist) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.FirstName, a.MiddleName, a.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (a Artist) String() string {
	return fmt.Sprintf("Artist{id=%d, firstName='%s', middleName='%s', lastName='%s', artsCount=%d}",
		a.ID, a.FirstName, a.MiddleName, a.LastName, a.ArtworkCount())
}

// MarshalJSON 額外輸出 artworkCount
func (a Artist) MarshalJSON() ([]byte, error) {
	type alias Artist
	return json.Marshal(struct {
		alias
		ArtworkCount int `json:"artworkCount"`
	}{alias(a), a.ArtworkCount()})
}

// Classification 藝術品分類
type Classification struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	ArtworkTitles []string `json:"artworkTitles,omitempty"`
}

// ArtworkCount 此分類下的作品數量
func (c Classification) ArtworkCount() int {
	return len(c.ArtworkTitles)
}

func (c Classification) String() string {
	return fmt.Sprintf("Classification{id=%d, name='%s', description='%s', artsCount=%d}",
		c.ID, c.Name, c.Description, c.ArtworkCount())
}

// MarshalJSON 額外輸出 artworkCount
func (c Classification) MarshalJSON() ([]byte, error) {
	type alias Classification
	return json.Marshal(struct {
		alias
		ArtworkCount int `json:"artworkCount"`
	}{alias(c), c.ArtworkCount()})
}

// Art 藝術品
//
// Classification 與 Artists 是關聯實體的嵌入視圖（不含它們自己的作品清單）。
// 新增或更新時，嵌入的實體可只帶 ID（引用既有資料），
// 或只帶名稱（依名稱尋找，找不到則建立）。
type Art struct {
	ID             int             `json:"id"`
	Title          string          `json:"title"`
	Year           *int            `json:"year,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
	Artists        []Artist        `json:"artists"`
}

// ArtistIDs 返回所有創作者 ID
func (a Art) ArtistIDs() []int {
	ids := make([]int, 0, len(a.Artists))
	for _, artist := range a.Artists {
		ids = append(ids, artist.ID)
	}
	return ids
}

func (a Art) String() string {
	year := "null"
	if a.Year != nil {
		year = fmt.Sprint(*a.Year)
	}
	classification := "null"
	if a.Classification != nil {
		classification = "'" + a.Classification.Name + "'"
	}
	return fmt.Sprintf("Art{id=%d, title='%s', year=%s, classification=%s, artistsCount=%d}",
		a.ID, a.Title, year, classification, len(a.Artists))
}

// ArtistPatch 部分更新藝術家（nil 表示不變更）
type ArtistPatch struct {
	FirstName  *string `json:"firstName"`
	MiddleName *string `json:"middleName"`
	LastName   *string `json:"lastName"`
}

// HasUpdates 是否至少有一個欄位需要更新
func (p ArtistPatch) HasUpdates() bool {
	return p.FirstName != nil || p.MiddleName != nil || p.LastName != nil
}

// ArtPatch 部分更新藝術品
//
// ArtistIDs 為 nil 表示不變更；空切片表示移除所有創作者。
type ArtPatch struct {
	Title            *string `json:"title"`
	Year             *int    `json:"year"`
	ClassificationID *int    `json:"classificationId"`
	ArtistIDs        []int   `json:"artistIds"`
}

// HasUpdates 是否至少有一個欄位需要更新
func (p ArtPatch) HasUpdates() bool {
	return p.Title != nil || p.Year != nil || p.ClassificationID != nil || p.ArtistIDs != nil
}

// ClassificationPatch 部分更新分類
type ClassificationPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// HasUpdates 是否至少有一個欄位需要更新
func (p ClassificationPatch) HasUpdates() bool {
	return p.Name != nil || p.Description != nil
}
