// Package events 發布實體變更事件。
//
// 寫入成功後，服務層會發布一筆 Event（例如 artshop.artist.created），
// 讓其他系統（搜尋索引、通知、稽核）以訂閱方式得知資料變化。
//
// 發布語義：
//   - Fire-and-forget：核心 NATS 發布，不等待 ACK
//   - 發布失敗只記錄日誌，不會讓已完成的寫入失敗
//   - 資料庫才是唯一真實來源，事件僅為通知
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// 實體名稱
const (
	EntityArtist         = "artist"
	EntityArt            = "art"
	EntityClassification = "classification"
)

// 動作名稱
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event 實體變更事件
type Event struct {
	ID         string    `json:"id"`          // UUID
	Entity     string    `json:"entity"`      // artist / art / classification
	Action     string    `json:"action"`      // created / updated / deleted
	EntityID   int       `json:"entity_id"`   // 實體主鍵
	OccurredAt time.Time `json:"occurred_at"` // 發生時間（UTC）
}

// New 建立事件並配發 ID
func New(entity, action string, entityID int) Event {
	return Event{
		ID:         uuid.NewString(),
		Entity:     entity,
		Action:     action,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

// Subject 返回事件的 NATS 主題：<prefix>.<entity>.<action>
func (e Event) Subject(prefix string) string {
	return fmt.Sprintf("%s.%s.%s", prefix, e.Entity, e.Action)
}

// Publisher 事件發布介面
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher 不做任何事的發布者（未設定 NATS 時使用）
type NopPublisher struct{}

// Publish 直接返回 nil
func (NopPublisher) Publish(context.Context, Event) error { return nil }
