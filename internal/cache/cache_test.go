package cache_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/koopa0/artshop/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, capacity int) *cache.EntityCache[int, string] {
	t.Helper()

	c, err := cache.New[int, string]("TestEntity", capacity, nil)
	require.NoError(t, err)
	return c
}

func keysOf(entries []cache.Entry[int, string]) []int {
	keys := make([]int, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// TestNew_InvalidCapacity 測試容量不合法時返回 ConfigError
func TestNew_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, -100} {
		t.Run(fmt.Sprintf("capacity %d", capacity), func(t *testing.T) {
			c, err := cache.New[int, string]("Artist", capacity, nil)
			require.Error(t, err)
			assert.Nil(t, c)

			var cfgErr *cache.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, capacity, cfgErr.Capacity)
			assert.Equal(t, "Artist", cfgErr.Name)
			assert.ErrorIs(t, err, cache.ErrInvalidCapacity)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c := newTestCache(t, cache.DefaultCapacity)

	assert.Equal(t, "TestEntity", c.Name())
	assert.Equal(t, 5, c.Capacity())
	assert.Equal(t, 0, c.Len())
}

// TestEntityCache_PutAndGet 測試基本的新增與讀取
func TestEntityCache_PutAndGet(t *testing.T) {
	c := newTestCache(t, cache.DefaultCapacity)

	c.Put(1, "Value1")

	value, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Value1", value)

	value, ok = c.Get(99)
	assert.False(t, ok)
	assert.Empty(t, value)
}

// TestEntityCache_PutDoesNotOverwrite 重複 Put 保留第一次的值
func TestEntityCache_PutDoesNotOverwrite(t *testing.T) {
	c := newTestCache(t, cache.DefaultCapacity)

	c.Put(1, "Value1")
	c.Put(1, "NewValue")

	value, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Value1", value)
	assert.Equal(t, 1, c.Len())
}

// TestEntityCache_PutExistingDoesNotPromote 重複 Put 不改變淘汰順序
func TestEntityCache_PutExistingDoesNotPromote(t *testing.T) {
	c := newTestCache(t, 2)

	c.Put(1, "A")
	c.Put(2, "B")
	c.Put(1, "A2") // no-op
	c.Put(3, "C")

	_, ok := c.Get(1)
	assert.False(t, ok, "key 1 is still the least recently used and must be evicted")
	assert.Equal(t, []int{2, 3}, keysOf(c.Snapshot()))
}

// TestEntityCache_Update 測試 Update 只作用於已存在的 key
func TestEntityCache_Update(t *testing.T) {
	t.Run("present key is overwritten", func(t *testing.T) {
		c := newTestCache(t, cache.DefaultCapacity)
		c.Put(3, "OldValue")

		c.Update(3, "UpdatedValue")

		value, ok := c.Get(3)
		require.True(t, ok)
		assert.Equal(t, "UpdatedValue", value)
	})

	t.Run("absent key is not inserted", func(t *testing.T) {
		c := newTestCache(t, cache.DefaultCapacity)
		c.Put(1, "A")

		c.Update(99, "WillNotInsert")

		_, ok := c.Get(99)
		assert.False(t, ok)
		assert.Equal(t, map[int]string{1: "A"}, c.AllCachedItems())
	})

	t.Run("update promotes key", func(t *testing.T) {
		c := newTestCache(t, 2)
		c.Put(1, "A")
		c.Put(2, "B")

		c.Update(1, "A2")
		c.Put(3, "C")

		assert.Equal(t, map[int]string{1: "A2", 3: "C"}, c.AllCachedItems())
	})
}

// TestEntityCache_Evict 測試刪除的冪等性
func TestEntityCache_Evict(t *testing.T) {
	c := newTestCache(t, cache.DefaultCapacity)
	c.Put(2, "ToRemove")
	c.Put(3, "Keep")

	c.Evict(2)
	_, ok := c.Get(2)
	assert.False(t, ok)

	before := c.Snapshot()
	c.Evict(2)
	c.Evict(42)
	assert.Equal(t, before, c.Snapshot())
	assert.Equal(t, 1, c.Len())
}

// TestEntityCache_Clear 清空後容量不變
func TestEntityCache_Clear(t *testing.T) {
	c := newTestCache(t, 3)
	c.Put(1, "A")
	c.Put(2, "B")

	c.Clear()

	assert.Empty(t, c.AllCachedItems())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 3, c.Capacity())

	// 清空後仍可正常使用
	c.Put(5, "E")
	value, ok := c.Get(5)
	require.True(t, ok)
	assert.Equal(t, "E", value)

	c.Clear()
	c.Clear()
	assert.Empty(t, c.AllCachedItems())
}

// TestEntityCache_EvictionPolicy 容量 5，依序放入 1..6，key 1 被淘汰
func TestEntityCache_EvictionPolicy(t *testing.T) {
	c := newTestCache(t, cache.DefaultCapacity)

	for i := 1; i <= 6; i++ {
		c.Put(i, fmt.Sprintf("Value%d", i))
	}

	assert.Equal(t, 5, c.Len())

	_, ok := c.Get(1)
	assert.False(t, ok, "key 1 should have been evicted first")

	for i := 2; i <= 6; i++ {
		value, ok := c.Get(i)
		require.True(t, ok, "key %d should be present", i)
		assert.Equal(t, fmt.Sprintf("Value%d", i), value)
	}
}

// TestEntityCache_PutIfUnchanged 測試寫入世代：載入期間有寫入時放棄放入
func TestEntityCache_PutIfUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		between func(c *cache.EntityCache[int, string])
		wantOK  bool
		wantLen int
	}{
		{
			name:    "no writes",
			between: func(*cache.EntityCache[int, string]) {},
			wantOK:  true,
			wantLen: 1,
		},
		{
			name:    "evict of absent key",
			between: func(c *cache.EntityCache[int, string]) { c.Evict(1) },
			wantOK:  false,
			wantLen: 0,
		},
		{
			name:    "update of absent key",
			between: func(c *cache.EntityCache[int, string]) { c.Update(1, "new") },
			wantOK:  false,
			wantLen: 0,
		},
		{
			name:    "clear",
			between: func(c *cache.EntityCache[int, string]) { c.Clear() },
			wantOK:  false,
			wantLen: 0,
		},
		{
			name:    "put does not change generation",
			between: func(c *cache.EntityCache[int, string]) { c.Put(2, "other") },
			wantOK:  true,
			wantLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCache(t, cache.DefaultCapacity)

			generation := c.Generation()
			tt.between(c)

			assert.Equal(t, tt.wantOK, c.PutIfUnchanged(generation, 1, "loaded"))
			assert.Equal(t, tt.wantLen, c.Len())

			_, ok := c.Get(1)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

// TestEntityCache_PutIfUnchangedKeepsPutSemantics 世代相同時行為與 Put 一致（不覆寫）
func TestEntityCache_PutIfUnchangedKeepsPutSemantics(t *testing.T) {
	c := newTestCache(t, 2)
	c.Put(1, "original")

	generation := c.Generation()
	assert.True(t, c.PutIfUnchanged(generation, 1, "loaded"))

	got, _ := c.Get(1)
	assert.Equal(t, "original", got)

	assert.True(t, c.PutIfUnchanged(generation, 2, "two"))
	assert.True(t, c.PutIfUnchanged(generation, 3, "three"))
	assert.Equal(t, []int{2, 3}, keysOf(c.Snapshot()))
}

// TestEntityCache_PromotionOnHit 命中後的 key 不會被淘汰
func TestEntityCache_PromotionOnHit(t *testing.T) {
	t.Run("capacity 2", func(t *testing.T) {
		c := newTestCache(t, 2)
		c.Put(1, "A")
		c.Put(2, "B")

		value, ok := c.Get(1)
		require.True(t, ok)
		assert.Equal(t, "A", value)

		c.Put(3, "C")

		assert.Equal(t, map[int]string{1: "A", 3: "C"}, c.AllCachedItems())
	})

	t.Run("capacity C evicts k2 after k1 is read", func(t *testing.T) {
		for _, capacity := range []int{1, 3, 5, 10} {
			c := newTestCache(t, capacity)
			for k := 1; k <= capacity; k++ {
				c.Put(k, fmt.Sprint(k))
			}

			_, ok := c.Get(1)
			require.True(t, ok)
			c.Put(capacity+1, "new")

			if capacity == 1 {
				// 只有一格時，被淘汰的就是 k1 本身
				assert.Equal(t, []int{2}, keysOf(c.Snapshot()))
				continue
			}
			_, ok = c.Get(2)
			assert.False(t, ok, "capacity %d: key 2 should be evicted", capacity)
			_, ok = c.Get(1)
			assert.True(t, ok, "capacity %d: key 1 should survive", capacity)
		}
	})

	t.Run("miss does not change order", func(t *testing.T) {
		c := newTestCache(t, 2)
		c.Put(1, "A")
		c.Put(2, "B")

		_, ok := c.Get(7)
		require.False(t, ok)

		assert.Equal(t, []int{1, 2}, keysOf(c.Snapshot()))
	})
}

// TestEntityCache_CapacityInvariant 任意 Put 序列後 Len <= Capacity
func TestEntityCache_CapacityInvariant(t *testing.T) {
	c := newTestCache(t, 4)

	for i := 0; i < 100; i++ {
		before := c.Len()
		key := (i * 7) % 13
		_, existed := c.AllCachedItems()[key]

		c.Put(key, fmt.Sprint(i))

		assert.LessOrEqual(t, c.Len(), c.Capacity())
		if !existed && before == c.Capacity() {
			assert.Equal(t, before, c.Len(), "insert into a full cache evicts exactly one entry")
		}
	}
}

// TestEntityCache_SnapshotIsolation 修改快照不影響快取
func TestEntityCache_SnapshotIsolation(t *testing.T) {
	c := newTestCache(t, cache.DefaultCapacity)
	c.Put(1, "A")
	c.Put(2, "B")

	items := c.AllCachedItems()
	items[1] = "mutated"
	items[3] = "injected"
	delete(items, 2)

	entries := c.Snapshot()
	entries[0].Value = "mutated"

	assert.Equal(t, map[int]string{1: "A", 2: "B"}, c.AllCachedItems())
	value, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "A", value)
	_, ok = c.Get(3)
	assert.False(t, ok)
}

// TestEntityCache_SnapshotOrder 快照從最久未使用到最近使用
func TestEntityCache_SnapshotOrder(t *testing.T) {
	c := newTestCache(t, cache.DefaultCapacity)
	c.Put(1, "A")
	c.Put(2, "B")
	c.Put(3, "C")
	c.Get(1)

	assert.Equal(t, []int{2, 3, 1}, keysOf(c.Snapshot()))
}

// TestEntityCache_InfoSummary 測試診斷摘要格式
func TestEntityCache_InfoSummary(t *testing.T) {
	c := newTestCache(t, cache.DefaultCapacity)

	assert.Equal(t, "TestEntity cache is empty", c.InfoSummary())

	c.Put(1, "A")
	c.Put(2, "B")

	expected := "TestEntity cache contains 2 items:\n" +
		"- ID: 1, Entity: A\n" +
		"- ID: 2, Entity: B\n"
	assert.Equal(t, expected, c.InfoSummary())

	// InfoSummary 不影響順序
	c.Put(3, "C")
	c.Put(4, "D")
	c.Put(5, "E")
	c.Put(6, "F")
	_, ok := c.Get(1)
	assert.False(t, ok)
}

// TestEntityCache_Concurrent 並發存取時不變量成立（搭配 -race 執行）
func TestEntityCache_Concurrent(t *testing.T) {
	c := newTestCache(t, 8)

	const (
		workers    = 16
		iterations = 500
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				key := (worker*iterations + i) % 32
				switch i % 6 {
				case 0, 1:
					c.Put(key, fmt.Sprintf("w%d-%d", worker, i))
				case 2:
					c.Get(key)
				case 3:
					c.Update(key, "updated")
				case 4:
					c.Evict(key)
				case 5:
					_ = c.Snapshot()
				}
				if c.Len() > c.Capacity() {
					t.Errorf("size %d exceeds capacity %d", c.Len(), c.Capacity())
					return
				}
			}
		}(w)
	}
	wg.Wait()

	entries := c.Snapshot()
	assert.LessOrEqual(t, len(entries), c.Capacity())

	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		assert.False(t, seen[e.Key], "key %d appears twice", e.Key)
		seen[e.Key] = true
	}
	assert.Len(t, c.AllCachedItems(), len(entries))
}
