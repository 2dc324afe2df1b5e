package artshop

import "context"

//go:generate mockgen -destination=mocks/mock_store.go -package=mock_artshop . ArtistStore

// ArtistStore 藝術家的持久化介面
//
// 查無資料時返回 NOT_FOUND 錯誤碼的 AppError。
// 返回的 Artist 已填入 ArtworkTitles。
type ArtistStore interface {
	CreateArtist(ctx context.Context, artist Artist) (Artist, error)
	GetArtist(ctx context.Context, id int) (Artist, error)
	// FindArtistByName 以完全相同的名與姓尋找（多筆時取 ID 最小者）
	FindArtistByName(ctx context.Context, firstName, lastName string) (Artist, error)
	ListArtists(ctx context.Context) ([]Artist, error)
	// SearchArtists 名、姓不分大小寫部分比對；空字串表示不限制該欄位
	SearchArtists(ctx context.Context, firstName, lastName string) ([]Artist, error)
	ArtistsByArtTitle(ctx context.Context, title string) ([]Artist, error)
	UpdateArtist(ctx context.Context, artist Artist) (Artist, error)
	// DeleteArtist 刪除藝術家並解除與作品的關聯
	DeleteArtist(ctx context.Context, id int) error
}

// ArtStore 藝術品的持久化介面
//
// 寫入時 Classification 與 Artists 只使用 ID，
// 呼叫方必須先確保它們已存在。
type ArtStore interface {
	CreateArt(ctx context.Context, art Art) (Art, error)
	GetArt(ctx context.Context, id int) (Art, error)
	GetArtByTitle(ctx context.Context, title string) (Art, error)
	ListArts(ctx context.Context) ([]Art, error)
	// ArtsByArtistName 依創作者姓氏不分大小寫部分比對
	ArtsByArtistName(ctx context.Context, lastName string) ([]Art, error)
	ArtsByArtistID(ctx context.Context, artistID int) ([]Art, error)
	ArtsByClassificationID(ctx context.Context, classificationID int) ([]Art, error)
	ArtsByClassificationName(ctx context.Context, name string) ([]Art, error)
	UpdateArt(ctx context.Context, art Art) (Art, error)
	DeleteArt(ctx context.Context, id int) error
}

// ClassificationStore 分類的持久化介面
type ClassificationStore interface {
	CreateClassification(ctx context.Context, c Classification) (Classification, error)
	GetClassification(ctx context.Context, id int) (Classification, error)
	FindClassificationByName(ctx context.Context, name string) (Classification, error)
	ListClassifications(ctx context.Context) ([]Classification, error)
	SearchClassifications(ctx context.Context, name string) ([]Classification, error)
	ClassificationsByArtTitle(ctx context.Context, title string) ([]Classification, error)
	UpdateClassification(ctx context.Context, c Classification) (Classification, error)
	// DeleteClassification 刪除分類，原本屬於它的作品改為未分類
	DeleteClassification(ctx context.Context, id int) error
}

// Store 組合三種實體的持久化介面
type Store interface {
	ArtistStore
	ArtStore
	ClassificationStore
}
