package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/artshop/internal/artshop"
	apperrors "github.com/koopa0/artshop/pkg/errors"
)

// PostgreSQL 錯誤碼
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// querier 由 *pgxpool.Pool 與 pgx.Tx 共同滿足，讓查詢函數可在交易內外共用
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres PostgreSQL 存儲實現
//
// 表結構見 internal/migrations。藝術家與分類的作品標題以 array_agg 彙總，
// 藝術品的創作者以第二次查詢（art_id = ANY($1)）批次取回，避免 N+1。
//
// 多表寫入（藝術品與 art_artists）在同一個交易內完成。
// 刪除藝術家、刪除分類的關聯處理交給外鍵的 ON DELETE CASCADE / SET NULL。
type Postgres struct {
	pool *pgxpool.Pool
}

var _ artshop.Store = (*Postgres)(nil)

// NewPostgres 創建 PostgreSQL 存儲實例（連接池由調用方管理生命週期）
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// OpenPool 解析 DSN 並建立連接池，成功返回前會 Ping 一次
func OpenPool(ctx context.Context, dsn string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Ping 檢查資料庫連線（readiness 探針使用）
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// ========== Artist ==========

const artistSelect = `
	SELECT ar.id, ar.first_name, ar.middle_name, ar.last_name,
	       COALESCE(array_agg(a.title ORDER BY a.id) FILTER (WHERE a.id IS NOT NULL), '{}')
	FROM artists ar
	LEFT JOIN art_artists aa ON aa.artist_id = ar.id
	LEFT JOIN arts a ON a.id = aa.art_id`

const artistGroup = ` GROUP BY ar.id ORDER BY ar.id`

// CreateArtist 新增藝術家
func (p *Postgres) CreateArtist(ctx context.Context, a artshop.Artist) (artshop.Artist, error) {
	var id int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO artists (first_name, middle_name, last_name)
		VALUES ($1, $2, $3)
		RETURNING id`,
		a.FirstName, a.MiddleName, a.LastName,
	).Scan(&id)
	if err != nil {
		return artshop.Artist{}, fmt.Errorf("insert artist: %w", err)
	}
	return p.GetArtist(ctx, id)
}

// GetArtist 依 ID 取得藝術家
func (p *Postgres) GetArtist(ctx context.Context, id int) (artshop.Artist, error) {
	artists, err := p.queryArtists(ctx, artistSelect+` WHERE ar.id = $1`+artistGroup, id)
	if err != nil {
		return artshop.Artist{}, err
	}
	if len(artists) == 0 {
		return artshop.Artist{}, artistNotFound(id)
	}
	return artists[0], nil
}

// FindArtistByName 以完全相同的名與姓尋找
func (p *Postgres) FindArtistByName(ctx context.Context, firstName, lastName string) (artshop.Artist, error) {
	artists, err := p.queryArtists(ctx,
		artistSelect+` WHERE ar.first_name = $1 AND ar.last_name = $2`+artistGroup+` LIMIT 1`,
		firstName, lastName)
	if err != nil {
		return artshop.Artist{}, err
	}
	if len(artists) == 0 {
		return artshop.Artist{}, apperrors.NotFound("Artist not found with name: %s %s", firstName, lastName)
	}
	return artists[0], nil
}

// ListArtists 列出所有藝術家
func (p *Postgres) ListArtists(ctx context.Context) ([]artshop.Artist, error) {
	return p.queryArtists(ctx, artistSelect+artistGroup)
}

// SearchArtists 名、姓部分比對（ILIKE）
func (p *Postgres) SearchArtists(ctx context.Context, firstName, lastName string) ([]artshop.Artist, error) {
	return p.queryArtists(ctx,
		artistSelect+` WHERE ar.first_name ILIKE $1 AND ar.last_name ILIKE $2`+artistGroup,
		likePattern(firstName), likePattern(lastName))
}

// ArtistsByArtTitle 查詢參與標題符合之作品的藝術家
func (p *Postgres) ArtistsByArtTitle(ctx context.Context, title string) ([]artshop.Artist, error) {
	return p.queryArtists(ctx, artistSelect+`
		WHERE ar.id IN (
			SELECT x.artist_id FROM art_artists x
			JOIN arts t ON t.id = x.art_id
			WHERE t.title ILIKE $1
		)`+artistGroup, likePattern(title))
}

// UpdateArtist 更新藝術家的名字欄位
func (p *Postgres) UpdateArtist(ctx context.Context, a artshop.Artist) (artshop.Artist, error) {
	tag, err := p.pool.Exec(ctx, `
		UPDATE artists
		SET first_name = $2, middle_name = $3, last_name = $4, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.FirstName, a.MiddleName, a.LastName,
	)
	if err != nil {
		return artshop.Artist{}, fmt.Errorf("update artist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return artshop.Artist{}, artistNotFound(a.ID)
	}
	return p.GetArtist(ctx, a.ID)
}

// DeleteArtist 刪除藝術家（art_artists 以 CASCADE 一併刪除）
func (p *Postgres) DeleteArtist(ctx context.Context, id int) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM artists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete artist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return artistNotFound(id)
	}
	return nil
}

func (p *Postgres) queryArtists(ctx context.Context, query string, args ...any) ([]artshop.Artist, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artists: %w", err)
	}
	defer rows.Close()

	artists := []artshop.Artist{}
	for rows.Next() {
		var a artshop.Artist
		if err := rows.Scan(&a.ID, &a.FirstName, &a.MiddleName, &a.LastName, &a.ArtworkTitles); err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		a.ArtworkTitles = nilIfEmpty(a.ArtworkTitles)
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artists: %w", err)
	}
	return artists, nil
}

// ========== Classification ==========

const classificationSelect = `
	SELECT c.id, c.name, c.description,
	       COALESCE(array_agg(a.title ORDER BY a.id) FILTER (WHERE a.id IS NOT NULL), '{}')
	FROM classifications c
	LEFT JOIN arts a ON a.classification_id = c.id`

const classificationGroup = ` GROUP BY c.id ORDER BY c.id`

// CreateClassification 新增分類（名稱重複返回 CONFLICT）
func (p *Postgres) CreateClassification(ctx context.Context, c artshop.Classification) (artshop.Classification, error) {
	var id int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO classifications (name, description)
		VALUES ($1, $2)
		RETURNING id`,
		c.Name, c.Description,
	).Scan(&id)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return artshop.Classification{}, classificationExists(c.Name)
		}
		return artshop.Classification{}, fmt.Errorf("insert classification: %w", err)
	}
	return p.GetClassification(ctx, id)
}

// GetClassification 依 ID 取得分類
func (p *Postgres) GetClassification(ctx context.Context, id int) (artshop.Classification, error) {
	list, err := p.queryClassifications(ctx, classificationSelect+` WHERE c.id = $1`+classificationGroup, id)
	if err != nil {
		return artshop.Classification{}, err
	}
	if len(list) == 0 {
		return artshop.Classification{}, classificationNotFound(id)
	}
	return list[0], nil
}

// FindClassificationByName 依完整名稱取得分類
func (p *Postgres) FindClassificationByName(ctx context.Context, name string) (artshop.Classification, error) {
	list, err := p.queryClassifications(ctx, classificationSelect+` WHERE c.name = $1`+classificationGroup, name)
	if err != nil {
		return artshop.Classification{}, err
	}
	if len(list) == 0 {
		return artshop.Classification{}, apperrors.NotFound("Classification not found with name: %s", name)
	}
	return list[0], nil
}

// ListClassifications 列出所有分類
func (p *Postgres) ListClassifications(ctx context.Context) ([]artshop.Classification, error) {
	return p.queryClassifications(ctx, classificationSelect+classificationGroup)
}

// SearchClassifications 名稱部分比對
func (p *Postgres) SearchClassifications(ctx context.Context, name string) ([]artshop.Classification, error) {
	return p.queryClassifications(ctx,
		classificationSelect+` WHERE c.name ILIKE $1`+classificationGroup, likePattern(name))
}

// ClassificationsByArtTitle 查詢包含標題符合之作品的分類
func (p *Postgres) ClassificationsByArtTitle(ctx context.Context, title string) ([]artshop.Classification, error) {
	return p.queryClassifications(ctx, classificationSelect+`
		WHERE c.id IN (SELECT t.classification_id FROM arts t WHERE t.title ILIKE $1)`+classificationGroup,
		likePattern(title))
}

// UpdateClassification 更新分類
func (p *Postgres) UpdateClassification(ctx context.Context, c artshop.Classification) (artshop.Classification, error) {
	tag, err := p.pool.Exec(ctx, `
		UPDATE classifications
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Name, c.Description,
	)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return artshop.Classification{}, classificationExists(c.Name)
		}
		return artshop.Classification{}, fmt.Errorf("update classification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return artshop.Classification{}, classificationNotFound(c.ID)
	}
	return p.GetClassification(ctx, c.ID)
}

// DeleteClassification 刪除分類（arts.classification_id 由外鍵 SET NULL）
func (p *Postgres) DeleteClassification(ctx context.Context, id int) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM classifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete classification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return classificationNotFound(id)
	}
	return nil
}

func (p *Postgres) queryClassifications(ctx context.Context, query string, args ...any) ([]artshop.Classification, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}
	defer rows.Close()

	list := []artshop.Classification{}
	for rows.Next() {
		var c artshop.Classification
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ArtworkTitles); err != nil {
			return nil, fmt.Errorf("scan classification: %w", err)
		}
		c.ArtworkTitles = nilIfEmpty(c.ArtworkTitles)
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classifications: %w", err)
	}
	return list, nil
}

// ========== Art ==========

const artSelect = `
	SELECT a.id, a.title, a.year, c.id, c.name, c.description
	FROM arts a
	LEFT JOIN classifications c ON c.id = a.classification_id`

// CreateArt 新增藝術品與創作者關聯（同一交易）
func (p *Postgres) CreateArt(ctx context.Context, a artshop.Art) (artshop.Art, error) {
	var id int
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO arts (title, year, classification_id)
			VALUES ($1, $2, $3)
			RETURNING id`,
			a.Title, a.Year, classificationRef(a),
		).Scan(&id)
		if err != nil {
			if isPgError(err, pgForeignKeyViolation) {
				return classificationNotFound(a.Classification.ID)
			}
			return fmt.Errorf("insert art: %w", err)
		}
		return linkArtists(ctx, tx, id, a.Artists)
	})
	if err != nil {
		return artshop.Art{}, err
	}
	return p.GetArt(ctx, id)
}

// GetArt 依 ID 取得藝術品
func (p *Postgres) GetArt(ctx context.Context, id int) (artshop.Art, error) {
	arts, err := p.queryArts(ctx, `WHERE a.id = $1`, id)
	if err != nil {
		return artshop.Art{}, err
	}
	if len(arts) == 0 {
		return artshop.Art{}, artNotFound(id)
	}
	return arts[0], nil
}

// GetArtByTitle 依完整標題取得（多筆時取 ID 最小者）
func (p *Postgres) GetArtByTitle(ctx context.Context, title string) (artshop.Art, error) {
	arts, err := p.queryArts(ctx, `WHERE a.title = $1`, title)
	if err != nil {
		return artshop.Art{}, err
	}
	if len(arts) == 0 {
		return artshop.Art{}, apperrors.NotFound("Art with title %s not found", title)
	}
	return arts[0], nil
}

// ListArts 列出所有藝術品
func (p *Postgres) ListArts(ctx context.Context) ([]artshop.Art, error) {
	return p.queryArts(ctx, ``)
}

// ArtsByArtistName 依創作者姓氏部分比對
func (p *Postgres) ArtsByArtistName(ctx context.Context, lastName string) ([]artshop.Art, error) {
	return p.queryArts(ctx, `
		WHERE a.id IN (
			SELECT x.art_id FROM art_artists x
			JOIN artists ar ON ar.id = x.artist_id
			WHERE ar.last_name ILIKE $1
		)`, likePattern(lastName))
}

// ArtsByArtistID 依創作者 ID 查詢
func (p *Postgres) ArtsByArtistID(ctx context.Context, artistID int) ([]artshop.Art, error) {
	return p.queryArts(ctx, `WHERE a.id IN (SELECT x.art_id FROM art_artists x WHERE x.artist_id = $1)`, artistID)
}

// ArtsByClassificationID 依分類 ID 查詢
func (p *Postgres) ArtsByClassificationID(ctx context.Context, classificationID int) ([]artshop.Art, error) {
	return p.queryArts(ctx, `WHERE a.classification_id = $1`, classificationID)
}

// ArtsByClassificationName 依分類名稱部分比對
func (p *Postgres) ArtsByClassificationName(ctx context.Context, name string) ([]artshop.Art, error) {
	return p.queryArts(ctx, `WHERE c.name ILIKE $1`, likePattern(name))
}

// UpdateArt 更新藝術品並重建創作者關聯（同一交易）
func (p *Postgres) UpdateArt(ctx context.Context, a artshop.Art) (artshop.Art, error) {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE arts
			SET title = $2, year = $3, classification_id = $4, updated_at = NOW()
			WHERE id = $1`,
			a.ID, a.Title, a.Year, classificationRef(a),
		)
		if err != nil {
			if isPgError(err, pgForeignKeyViolation) {
				return classificationNotFound(a.Classification.ID)
			}
			return fmt.Errorf("update art: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return artNotFound(a.ID)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM art_artists WHERE art_id = $1`, a.ID); err != nil {
			return fmt.Errorf("clear art artists: %w", err)
		}
		return linkArtists(ctx, tx, a.ID, a.Artists)
	})
	if err != nil {
		return artshop.Art{}, err
	}
	return p.GetArt(ctx, a.ID)
}

// DeleteArt 刪除藝術品
func (p *Postgres) DeleteArt(ctx context.Context, id int) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM arts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete art: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return artNotFound(id)
	}
	return nil
}

// queryArts 查詢藝術品並批次補上創作者
func (p *Postgres) queryArts(ctx context.Context, where string, args ...any) ([]artshop.Art, error) {
	rows, err := p.pool.Query(ctx, artSelect+" "+where+` ORDER BY a.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query arts: %w", err)
	}
	defer rows.Close()

	arts := []artshop.Art{}
	index := make(map[int]int)
	for rows.Next() {
		var (
			art      artshop.Art
			cID      *int
			cName    *string
			cDesc    *string
		)
		if err := rows.Scan(&art.ID, &art.Title, &art.Year, &cID, &cName, &cDesc); err != nil {
			return nil, fmt.Errorf("scan art: %w", err)
		}
		if cID != nil {
			art.Classification = &artshop.Classification{ID: *cID, Name: deref(cName), Description: deref(cDesc)}
		}
		art.Artists = []artshop.Artist{}
		index[art.ID] = len(arts)
		arts = append(arts, art)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate arts: %w", err)
	}
	if len(arts) == 0 {
		return arts, nil
	}

	ids := make([]int, 0, len(arts))
	for _, art := range arts {
		ids = append(ids, art.ID)
	}

	linkRows, err := p.pool.Query(ctx, `
		SELECT x.art_id, ar.id, ar.first_name, ar.middle_name, ar.last_name
		FROM art_artists x
		JOIN artists ar ON ar.id = x.artist_id
		WHERE x.art_id = ANY($1)
		ORDER BY x.art_id, ar.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query art artists: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var (
			artID  int
			artist artshop.Artist
		)
		if err := linkRows.Scan(&artID, &artist.ID, &artist.FirstName, &artist.MiddleName, &artist.LastName); err != nil {
			return nil, fmt.Errorf("scan art artist: %w", err)
		}
		if i, ok := index[artID]; ok {
			arts[i].Artists = append(arts[i].Artists, artist)
		}
	}
	if err := linkRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate art artists: %w", err)
	}
	return arts, nil
}

// linkArtists 寫入 art_artists；重複的 ID 以 ON CONFLICT 忽略
func linkArtists(ctx context.Context, q querier, artID int, artists []artshop.Artist) error {
	for _, artist := range artists {
		_, err := q.Exec(ctx, `
			INSERT INTO art_artists (art_id, artist_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			artID, artist.ID,
		)
		if err != nil {
			if isPgError(err, pgForeignKeyViolation) {
				return artistNotFound(artist.ID)
			}
			return fmt.Errorf("link artist %d: %w", artist.ID, err)
		}
	}
	return nil
}

// ========== 輔助函數 ==========

func classificationRef(a artshop.Art) *int {
	if a.Classification == nil {
		return nil
	}
	id := a.Classification.ID
	return &id
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern 轉為 ILIKE 的部分比對樣式（跳脫萬用字元）
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func classificationExists(name string) error {
	return apperrors.Conflict("Classification with name %s already exists", name)
}
