package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix 預設主題前綴
const DefaultSubjectPrefix = "artshop"

// Conn 發布所需的 NATS 連線行為（*nats.Conn 滿足此介面）
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher 使用核心 NATS 發布事件
//
// 為什麼不用 JetStream？
//   事件只是通知，不需要持久化與重放；
//   訂閱者錯過事件時，以資料庫為準重新讀取即可。
type NATSPublisher struct {
	conn   Conn
	prefix string
	logger *slog.Logger
	closer func()
}

// Connect 連線 NATS 並建立發布者
//
// 連線選項：
//   - MaxReconnects(-1)：無限重連
//   - ReconnectWait(1s)：重連間隔
//   - PingInterval(20s)：心跳檢測
func Connect(url, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(
		url,
		nats.Name("artshop"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	p := NewNATSPublisher(conn, prefix, logger)
	p.closer = func() {
		// Drain 會先送出緩衝中的訊息再關閉
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}
	return p, nil
}

// NewNATSPublisher 以既有連線建立發布者
func NewNATSPublisher(conn Conn, prefix string, logger *slog.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &NATSPublisher{
		conn:   conn,
		prefix: prefix,
		logger: logger,
	}
}

// Publish 序列化並發布事件
//
// 發布失敗會記錄 Warn 日誌並返回錯誤，呼叫方通常忽略此錯誤。
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := event.Subject(p.prefix)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("publish event failed",
			"subject", subject,
			"event_id", event.ID,
			"error", err)
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug("event published", "subject", subject, "event_id", event.ID)
	return nil
}

// Close 關閉連線（僅限由 Connect 建立的發布者）
func (p *NATSPublisher) Close() {
	if p.closer != nil {
		p.closer()
	}
}
