package artshop

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/koopa0/artshop/internal/events"
	"golang.org/x/sync/singleflight"
)

// loadTimeout 單次未命中載入的上限（載入不跟隨個別請求取消）
const loadTimeout = 10 * time.Second

// EntityCache 服務層使用的快取行為（以主鍵為 key）
//
// *cache.EntityCache[int, V] 滿足此介面。
type EntityCache[V any] interface {
	Get(id int) (V, bool)
	Put(id int, value V)
	Update(id int, value V)
	Evict(id int)
	Generation() uint64
	PutIfUnchanged(generation uint64, id int, value V) bool
	InfoSummary() string
}

// Caches 三種實體的快取
type Caches struct {
	Artists         EntityCache[Artist]
	Arts            EntityCache[Art]
	Classifications EntityCache[Classification]
}

// loadThrough 實作 Cache-Aside 讀取
//
// 流程：
//  1. 查詢快取，命中直接返回（快取會把 key 提升為最近使用）
//  2. 未命中時透過 singleflight 載入，同一 id 的並發請求只查一次資料庫
//  3. 載入成功後以 PutIfUnchanged 放入；載入期間有寫入則不放入
//
// 共享的載入使用脫離請求的 context，任一呼叫端斷線不會讓其他等待者失敗；
// 每個呼叫端仍以自己的 ctx 決定何時放棄等待。
func loadThrough[V any](
	ctx context.Context,
	group *singleflight.Group,
	c EntityCache[V],
	id int,
	load func(context.Context, int) (V, error),
) (V, error) {
	var zero V
	if v, ok := c.Get(id); ok {
		return v, nil
	}

	ch := group.DoChan(strconv.Itoa(id), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		generation := c.Generation()
		loaded, err := load(loadCtx, id)
		if err != nil {
			return nil, err
		}
		c.PutIfUnchanged(generation, id, loaded)
		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// putAll 將查詢結果放入快取（已存在的 key 不會被覆寫）
//
// generation 為查詢前記下的寫入世代；期間有寫入時整批略過。
func putAll[V any](c EntityCache[V], generation uint64, items []V, idOf func(V) int) {
	for _, item := range items {
		if !c.PutIfUnchanged(generation, idOf(item), item) {
			return
		}
	}
}

func artistID(a Artist) int                 { return a.ID }
func artID(a Art) int                       { return a.ID }
func classificationID(c Classification) int { return c.ID }

// notifier 在寫入成功後發布事件；失敗只記錄日誌
type notifier struct {
	publisher events.Publisher
	logger    *slog.Logger
}

func (n notifier) notify(ctx context.Context, entity, action string, id int) {
	if n.publisher == nil {
		return
	}
	event := events.New(entity, action, id)
	if err := n.publisher.Publish(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		n.logger.Warn("entity event not published",
			"entity", entity,
			"action", action,
			"id", id,
			"error", err)
	}
}

// uniqueIDs 合併並去除重複的 ID（保留首次出現順序，忽略 0）
func uniqueIDs(groups ...[]int) []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, group := range groups {
		for _, id := range group {
			if id == 0 {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
