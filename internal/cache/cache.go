// Package cache 實作有容量上限、依最近使用順序淘汰的實體快取。
//
// 在 artshop 中作為 cache-aside 的加速層：
//
//	讀取：先查快取，未命中時由呼叫端查資料庫再 Put
//	更新：呼叫端先寫資料庫，再 Update 快取
//	刪除：呼叫端先刪資料庫，再 Evict 快取
//
// 快取本身不知道 HTTP 與資料庫，只處理不透明的 key 與 value。
package cache

import (
	"container/list"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// DefaultCapacity 預設容量（每種實體最多快取 5 筆）
const DefaultCapacity = 5

// EntityCache 是有上限的 LRU 實體快取。
//
// 資料結構：
//   - HashMap：key -> 鏈表節點，O(1) 查找
//   - 雙向鏈結串列：維護最近使用順序（頭部為最近使用，尾部為最久未使用）
//
// 與一般 LRU 的差異：
//   - Put 不覆寫已存在的 key（也不更新其順序）
//   - Update 只更新已存在的 key，不會新增
//
// 併發：
//   所有操作共用一把 Mutex。Get 命中會移動節點，所以不使用讀寫鎖。
//
// 寫入世代：
//   Update、Evict、Clear 每次呼叫都會遞增世代（key 不存在也一樣）。
//   讀取端在查資料庫前記下世代，載入後以 PutIfUnchanged 放入；
//   期間若有寫入，放棄放入，避免把已刪除或已過期的資料寫回快取。
type EntityCache[K comparable, V any] struct {
	name     string
	capacity int
	logger   *slog.Logger

	mu         sync.Mutex
	items      map[K]*list.Element
	order      *list.List
	generation uint64
}

// Entry 是快取中的一筆資料。
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// New 建立實體快取。
//
// 參數：
//
//	name: 實體名稱（只用於診斷訊息，如 "Artist"）
//	capacity: 容量，必須大於 0
//	logger: 為 nil 時不輸出日誌
func New[K comparable, V any](name string, capacity int, logger *slog.Logger) (*EntityCache[K, V], error) {
	if capacity <= 0 {
		return nil, &ConfigError{Name: name, Capacity: capacity}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &EntityCache[K, V]{
		name:     name,
		capacity: capacity,
		logger:   logger.With("cache", name),
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}, nil
}

// Name 返回實體名稱。
func (c *EntityCache[K, V]) Name() string {
	return c.name
}

// Capacity 返回容量上限。
func (c *EntityCache[K, V]) Capacity() int {
	return c.capacity
}

// Len 返回目前快取筆數。
func (c *EntityCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Get 取得快取值。
//
// 命中時將該項目移到鏈表頭部；未命中時不改變任何狀態。
func (c *EntityCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	elem, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	value := elem.Value.(*Entry[K, V]).Value
	c.mu.Unlock()

	c.logger.Debug("[CACHE] retrieved from cache", "id", key)
	return value, true
}

// Put 新增快取項目。
//
// 行為：
//  1. key 已存在：不做任何事（不覆寫、不移動）
//  2. 容量已滿：先淘汰尾部項目（最久未使用）
//  3. 新項目放在鏈表頭部
func (c *EntityCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	added, evicted, hasEvicted := c.putLocked(key, value)
	c.mu.Unlock()

	c.logPut(key, added, evicted, hasEvicted)
}

// Generation 返回目前的寫入世代。
func (c *EntityCache[K, V]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// PutIfUnchanged 只在世代仍為 generation 時執行 Put。
//
// 返回 false 表示期間有 Update、Evict 或 Clear，value 可能已過期而未放入。
func (c *EntityCache[K, V]) PutIfUnchanged(generation uint64, key K, value V) bool {
	c.mu.Lock()
	if c.generation != generation {
		c.mu.Unlock()
		c.logger.Debug("[CACHE] stale load discarded", "id", key)
		return false
	}
	added, evicted, hasEvicted := c.putLocked(key, value)
	c.mu.Unlock()

	c.logPut(key, added, evicted, hasEvicted)
	return true
}

// putLocked 呼叫端必須持有鎖。
func (c *EntityCache[K, V]) putLocked(key K, value V) (added bool, evicted K, hasEvicted bool) {
	if _, ok := c.items[key]; ok {
		return false, evicted, false
	}
	if c.order.Len() >= c.capacity {
		evicted, hasEvicted = c.removeOldest()
	}
	c.items[key] = c.order.PushFront(&Entry[K, V]{Key: key, Value: value})
	return true, evicted, hasEvicted
}

func (c *EntityCache[K, V]) logPut(key K, added bool, evicted K, hasEvicted bool) {
	if hasEvicted {
		c.logger.Debug("[CACHE] evicted least recently used", "id", evicted)
	}
	if added {
		c.logger.Debug("[CACHE] added to cache", "id", key)
	}
}

// Update 更新已存在的快取項目，並移到鏈表頭部。
//
// key 不存在時不會新增。
func (c *EntityCache[K, V]) Update(key K, value V) {
	c.mu.Lock()
	c.generation++
	elem, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	elem.Value.(*Entry[K, V]).Value = value
	c.order.MoveToFront(elem)
	c.mu.Unlock()

	c.logger.Debug("[CACHE] updated in cache", "id", key)
}

// Evict 刪除快取項目（冪等）。
func (c *EntityCache[K, V]) Evict(key K) {
	c.mu.Lock()
	c.generation++
	elem, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	c.order.Remove(elem)
	delete(c.items, key)
	c.mu.Unlock()

	c.logger.Debug("[CACHE] removed from cache", "id", key)
}

// Clear 清空快取，容量不變。
func (c *EntityCache[K, V]) Clear() {
	c.mu.Lock()
	c.generation++
	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
	c.mu.Unlock()

	c.logger.Debug("[CACHE] cache cleared")
}

// AllCachedItems 返回目前內容的複本。
//
// 修改返回的 map 不會影響快取。需要順序時使用 Snapshot。
func (c *EntityCache[K, V]) AllCachedItems() map[K]V {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make(map[K]V, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*Entry[K, V])
		items[e.Key] = e.Value
	}
	return items
}

// Snapshot 返回目前內容的複本，從最久未使用到最近使用排列。
func (c *EntityCache[K, V]) Snapshot() []Entry[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// InfoSummary 返回人類可讀的快取內容摘要（只用於診斷）。
//
// 格式：
//
//	Artist cache is empty
//	Artist cache contains 2 items:
//	- ID: 1, Entity: ...
//	- ID: 2, Entity: ...
func (c *EntityCache[K, V]) InfoSummary() string {
	c.mu.Lock()
	entries := c.snapshotLocked()
	c.mu.Unlock()

	if len(entries) == 0 {
		return c.name + " cache is empty"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s cache contains %d items:\n", c.name, len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "- ID: %v, Entity: %v\n", e.Key, e.Value)
	}
	return b.String()
}

// snapshotLocked 從尾部（最久未使用）往頭部走訪。呼叫端必須持有鎖。
func (c *EntityCache[K, V]) snapshotLocked() []Entry[K, V] {
	entries := make([]Entry[K, V], 0, c.order.Len())
	for elem := c.order.Back(); elem != nil; elem = elem.Prev() {
		entries = append(entries, *elem.Value.(*Entry[K, V]))
	}
	return entries
}

// removeOldest 淘汰鏈表尾部的項目。呼叫端必須持有鎖。
func (c *EntityCache[K, V]) removeOldest() (K, bool) {
	elem := c.order.Back()
	if elem == nil {
		var zero K
		return zero, false
	}
	c.order.Remove(elem)
	e := elem.Value.(*Entry[K, V])
	delete(c.items, e.Key)
	return e.Key, true
}
