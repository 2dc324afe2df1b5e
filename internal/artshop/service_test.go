package artshop_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koopa0/artshop/internal/artshop"
	mock_artshop "github.com/koopa0/artshop/internal/artshop/mocks"
	"github.com/koopa0/artshop/internal/cache"
	"github.com/koopa0/artshop/internal/events"
	"github.com/koopa0/artshop/internal/storage"
	apperrors "github.com/koopa0/artshop/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recordingPublisher 記錄所有發布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Entity+"."+e.Action)
	}
	return out
}

type fixture struct {
	store           *storage.Memory
	registry        *cache.Registry
	publisher       *recordingPublisher
	artists         *artshop.ArtistService
	arts            *artshop.ArtService
	classifications *artshop.ClassificationService
}

func caches(r *cache.Registry) artshop.Caches {
	return artshop.Caches{
		Artists:         r.Artists,
		Arts:            r.Arts,
		Classifications: r.Classifications,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	registry, err := cache.NewRegistry(cache.DefaultCapacity, nil)
	require.NoError(t, err)

	store := storage.NewMemory()
	pub := &recordingPublisher{}
	return &fixture{
		store:           store,
		registry:        registry,
		publisher:       pub,
		artists:         artshop.NewArtistService(store, caches(registry), pub, nil),
		arts:            artshop.NewArtService(store, caches(registry), pub, nil),
		classifications: artshop.NewClassificationService(store, caches(registry), pub, nil),
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

func cachedKeys[V any](c *cache.EntityCache[int, V]) []int {
	var keys []int
	for _, e := range c.Snapshot() {
		keys = append(keys, e.Key)
	}
	return keys
}

// mockedStore 以 mock 取代 ArtistStore，其餘使用內存存儲
type mockedStore struct {
	*mock_artshop.MockArtistStore
	artshop.ArtStore
	artshop.ClassificationStore
}

func newMockedArtistService(t *testing.T) (*artshop.ArtistService, *mock_artshop.MockArtistStore, *cache.Registry) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockStore := mock_artshop.NewMockArtistStore(ctrl)
	mem := storage.NewMemory()

	registry, err := cache.NewRegistry(cache.DefaultCapacity, nil)
	require.NoError(t, err)

	store := mockedStore{MockArtistStore: mockStore, ArtStore: mem, ClassificationStore: mem}
	return artshop.NewArtistService(store, caches(registry), events.NopPublisher{}, nil), mockStore, registry
}

// ========== Cache-Aside 讀取 ==========

func TestArtistService_GetMissThenHit(t *testing.T) {
	svc, store, registry := newMockedArtistService(t)
	ctx := context.Background()

	monet := artshop.Artist{ID: 7, FirstName: "Claude", LastName: "Monet"}
	store.EXPECT().GetArtist(gomock.Any(), 7).Return(monet, nil).Times(1)

	got, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, monet, got)

	// 第二次命中快取，不再查詢資料庫
	got, err = svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, monet, got)
	assert.Equal(t, []int{7}, cachedKeys(registry.Artists))
}

func TestArtistService_GetNotFoundDoesNotCache(t *testing.T) {
	svc, store, registry := newMockedArtistService(t)

	store.EXPECT().GetArtist(gomock.Any(), 99).
		Return(artshop.Artist{}, apperrors.NotFound("Artist not found with id: %d", 99)).
		Times(2)

	for i := 0; i < 2; i++ {
		_, err := svc.Get(context.Background(), 99)
		assert.True(t, apperrors.IsNotFound(err))
	}
	assert.Equal(t, 0, registry.Artists.Len())
}

// TestArtistService_ConcurrentMissLoadsOnce 同一 id 的並發未命中只查一次資料庫
func TestArtistService_ConcurrentMissLoadsOnce(t *testing.T) {
	svc, store, _ := newMockedArtistService(t)

	release := make(chan struct{})
	store.EXPECT().GetArtist(gomock.Any(), 1).
		DoAndReturn(func(ctx context.Context, id int) (artshop.Artist, error) {
			<-release
			return artshop.Artist{ID: id, LastName: "Monet"}, nil
		}).
		Times(1)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]artshop.Artist, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Get(context.Background(), 1)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "Monet", results[i].LastName)
	}
}

// TestArtistService_CanceledCallerDoesNotFailOthers 先發起載入的請求取消後，其他等待者仍取得結果
func TestArtistService_CanceledCallerDoesNotFailOthers(t *testing.T) {
	svc, store, registry := newMockedArtistService(t)

	started := make(chan struct{})
	release := make(chan struct{})
	store.EXPECT().GetArtist(gomock.Any(), 1).
		DoAndReturn(func(ctx context.Context, id int) (artshop.Artist, error) {
			close(started)
			select {
			case <-release:
				return artshop.Artist{ID: id, LastName: "Monet"}, nil
			case <-ctx.Done():
				return artshop.Artist{}, ctx.Err()
			}
		}).
		Times(1)

	ctx1, cancel1 := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Get(ctx1, 1)
		firstErr <- err
	}()
	<-started

	type result struct {
		artist artshop.Artist
		err    error
	}
	second := make(chan result, 1)
	go func() {
		a, err := svc.Get(context.Background(), 1)
		second <- result{a, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel1()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "Monet", got.artist.LastName)
	assert.Equal(t, []int{1}, cachedKeys(registry.Artists))
}

// gatedStore 第一次 GetArtist 讀到資料後暫停，直到 gate 關閉
type gatedStore struct {
	*storage.Memory
	armed  atomic.Bool
	loaded chan struct{}
	gate   chan struct{}
}

func newGatedStore() *gatedStore {
	s := &gatedStore{
		Memory: storage.NewMemory(),
		loaded: make(chan struct{}),
		gate:   make(chan struct{}),
	}
	s.armed.Store(true)
	return s
}

func (s *gatedStore) GetArtist(ctx context.Context, id int) (artshop.Artist, error) {
	a, err := s.Memory.GetArtist(ctx, id)
	if s.armed.CompareAndSwap(true, false) {
		close(s.loaded)
		<-s.gate
	}
	return a, err
}

// TestArtistService_WriteDuringMissLoad 未命中載入期間發生寫入，舊資料不得寫回快取
func TestArtistService_WriteDuringMissLoad(t *testing.T) {
	tests := []struct {
		name  string
		write func(ctx context.Context, svc *artshop.ArtistService, id int) error
		check func(t *testing.T, svc *artshop.ArtistService, id int)
	}{
		{
			name: "delete",
			write: func(ctx context.Context, svc *artshop.ArtistService, id int) error {
				return svc.Delete(ctx, id)
			},
			check: func(t *testing.T, svc *artshop.ArtistService, id int) {
				_, err := svc.Get(context.Background(), id)
				assert.True(t, apperrors.IsNotFound(err), "deleted artist must not be served: %v", err)
			},
		},
		{
			name: "update",
			write: func(ctx context.Context, svc *artshop.ArtistService, id int) error {
				_, err := svc.Update(ctx, id, artshop.Artist{FirstName: "Oscar-Claude", LastName: "Monet"})
				return err
			},
			check: func(t *testing.T, svc *artshop.ArtistService, id int) {
				got, err := svc.Get(context.Background(), id)
				require.NoError(t, err)
				assert.Equal(t, "Oscar-Claude", got.FirstName)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newGatedStore()
			registry, err := cache.NewRegistry(cache.DefaultCapacity, nil)
			require.NoError(t, err)
			svc := artshop.NewArtistService(store, caches(registry), events.NopPublisher{}, nil)

			monet, err := store.CreateArtist(ctx, artshop.Artist{FirstName: "Claude", LastName: "Monet"})
			require.NoError(t, err)

			done := make(chan error, 1)
			go func() {
				_, err := svc.Get(ctx, monet.ID)
				done <- err
			}()
			<-store.loaded

			require.NoError(t, tt.write(ctx, svc, monet.ID))
			close(store.gate)
			require.NoError(t, <-done)

			assert.Equal(t, 0, registry.Artists.Len(), "stale load must not be cached")
			tt.check(t, svc, monet.ID)
		})
	}
}

func TestArtistService_CreateReturnsExisting(t *testing.T) {
	svc, store, registry := newMockedArtistService(t)

	existing := artshop.Artist{ID: 3, FirstName: "Claude", LastName: "Monet"}
	store.EXPECT().FindArtistByName(gomock.Any(), "Claude", "Monet").Return(existing, nil)
	store.EXPECT().CreateArtist(gomock.Any(), gomock.Any()).Times(0)

	got, err := svc.Create(context.Background(), artshop.Artist{FirstName: "Claude", LastName: "Monet"})
	require.NoError(t, err)
	assert.Equal(t, existing, got)
	assert.Equal(t, 0, registry.Artists.Len())
}

func TestArtistService_CreateStoreError(t *testing.T) {
	svc, store, registry := newMockedArtistService(t)

	store.EXPECT().CreateArtist(gomock.Any(), gomock.Any()).
		Return(artshop.Artist{}, errors.New("connection reset"))

	_, err := svc.Create(context.Background(), artshop.Artist{LastName: "Banksy"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.CodeOf(err))
	assert.Equal(t, 0, registry.Artists.Len(), "failed writes never reach the cache")
}

// ========== ArtistService ==========

func TestArtistService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("a", artshop.MaxNameLength+1)

	tests := []struct {
		name string
		in   artshop.Artist
	}{
		{"no names", artshop.Artist{MiddleName: "Willem"}},
		{"blank names", artshop.Artist{FirstName: "  ", LastName: "\t"}},
		{"first name too long", artshop.Artist{FirstName: long}},
		{"middle name too long", artshop.Artist{LastName: "Gogh", MiddleName: long}},
		{"last name too long", artshop.Artist{LastName: long}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.artists.Create(context.Background(), tt.in)
			assert.True(t, apperrors.IsInvalidInput(err), "got %v", err)
		})
	}

	// 60 個多位元組字元仍合法
	_, err := f.artists.Create(context.Background(), artshop.Artist{LastName: strings.Repeat("藝", artshop.MaxNameLength)})
	assert.NoError(t, err)
}

func TestArtistService_CreateCachesAndPublishes(t *testing.T) {
	f := newFixture(t)

	created, err := f.artists.Create(context.Background(), artshop.Artist{FirstName: "Frida", LastName: "Kahlo"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	cached, ok := f.registry.Artists.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, created, cached)
	assert.Equal(t, []string{"artist.created"}, f.publisher.subjects())
}

func TestArtistService_CreateBulk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.artists.CreateBulk(ctx, nil)
	assert.True(t, apperrors.IsInvalidInput(err))

	tooMany := make([]artshop.Artist, artshop.MaxBulkOperationSize+1)
	_, err = f.artists.CreateBulk(ctx, tooMany)
	assert.True(t, apperrors.IsInvalidInput(err))

	// 任何一筆不合法，整批都不寫入
	_, err = f.artists.CreateBulk(ctx, []artshop.Artist{{LastName: "Ok"}, {}})
	assert.True(t, apperrors.IsInvalidInput(err))
	all, err := f.store.ListArtists(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	created, err := f.artists.CreateBulk(ctx, []artshop.Artist{
		{FirstName: "Claude", LastName: "Monet"},
		{FirstName: "Edgar", LastName: "Degas"},
	})
	require.NoError(t, err)
	assert.Len(t, created, 2)
}

func TestArtistService_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.artists.CreateBulk(ctx, []artshop.Artist{
		{FirstName: "Claude", LastName: "Monet"},
		{FirstName: "Claude", LastName: "Lorrain"},
		{FirstName: "Edouard", LastName: "Manet"},
	})
	require.NoError(t, err)

	got, err := f.artists.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.artists.Search(ctx, "claude", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.artists.Search(ctx, "claude", "net")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Monet", got[0].LastName)
}

// TestArtistService_UpdateRefreshesCachedArts 藝術家改名後，快取中的作品嵌入視圖同步更新
func TestArtistService_UpdateRefreshesCachedArts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	art, err := f.arts.Add(ctx, artshop.Art{
		Title:   "Starry Night",
		Artists: []artshop.Artist{{FirstName: "Vincent", LastName: "van Gogh"}},
	})
	require.NoError(t, err)
	artistID := art.Artists[0].ID

	updated, err := f.artists.Update(ctx, artistID, artshop.Artist{FirstName: "Vincent", LastName: "Van Gogh"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Starry Night"}, updated.ArtworkTitles)

	cachedArt, ok := f.registry.Arts.Get(art.ID)
	require.True(t, ok)
	assert.Equal(t, "Van Gogh", cachedArt.Artists[0].LastName)

	cachedArtist, ok := f.registry.Artists.Get(artistID)
	require.True(t, ok)
	assert.Equal(t, "Van Gogh", cachedArtist.LastName)

	_, err = f.artists.Update(ctx, 404, artshop.Artist{LastName: "Nobody"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestArtistService_Patch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.artists.Create(ctx, artshop.Artist{FirstName: "Claude", LastName: "Monet"})
	require.NoError(t, err)

	_, err = f.artists.Patch(ctx, created.ID, artshop.ArtistPatch{})
	assert.True(t, apperrors.IsInvalidInput(err))

	_, err = f.artists.Patch(ctx, created.ID, artshop.ArtistPatch{FirstName: strPtr(""), LastName: strPtr("")})
	assert.True(t, apperrors.IsInvalidInput(err))

	patched, err := f.artists.Patch(ctx, created.ID, artshop.ArtistPatch{MiddleName: strPtr("Oscar")})
	require.NoError(t, err)
	assert.Equal(t, "Claude", patched.FirstName)
	assert.Equal(t, "Oscar", patched.MiddleName)

	cached, ok := f.registry.Artists.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Oscar", cached.MiddleName)

	_, err = f.artists.Patch(ctx, 404, artshop.ArtistPatch{MiddleName: strPtr("x")})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestArtistService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	art, err := f.arts.Add(ctx, artshop.Art{
		Title: "Impression, Sunrise",
		Artists: []artshop.Artist{
			{FirstName: "Claude", LastName: "Monet"},
			{FirstName: "Edgar", LastName: "Degas"},
		},
	})
	require.NoError(t, err)
	monetID := art.Artists[0].ID

	require.NoError(t, f.artists.Delete(ctx, monetID))

	_, ok := f.registry.Artists.Get(monetID)
	assert.False(t, ok)

	cachedArt, ok := f.registry.Arts.Get(art.ID)
	require.True(t, ok)
	require.Len(t, cachedArt.Artists, 1)
	assert.Equal(t, "Degas", cachedArt.Artists[0].LastName)

	assert.True(t, apperrors.IsNotFound(f.artists.Delete(ctx, monetID)))
	assert.Contains(t, f.publisher.subjects(), "artist.deleted")
}

// ========== ArtService ==========

func TestArtService_AddValidation(t *testing.T) {
	f := newFixture(t)
	nextYear := time.Now().Year() + 1

	tests := []struct {
		name string
		in   artshop.Art
	}{
		{"missing title", artshop.Art{Title: " "}},
		{"future year", artshop.Art{Title: "Tomorrow", Year: intPtr(nextYear)}},
		{"classification without description", artshop.Art{
			Title:          "x",
			Classification: &artshop.Classification{Name: "Painting"},
		}},
		{"artist without names", artshop.Art{
			Title:   "x",
			Artists: []artshop.Artist{{MiddleName: "only"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.arts.Add(context.Background(), tt.in)
			assert.True(t, apperrors.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestArtService_AddResolvesRelations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	painting, err := f.classifications.Create(ctx, artshop.Classification{Name: "Painting", Description: "Oil"})
	require.NoError(t, err)
	monet, err := f.artists.Create(ctx, artshop.Artist{FirstName: "Claude", LastName: "Monet"})
	require.NoError(t, err)

	art, err := f.arts.Add(ctx, artshop.Art{
		Title:          "Water Lilies",
		Year:           intPtr(1906),
		Classification: &artshop.Classification{Name: "Painting", Description: "ignored"},
		Artists: []artshop.Artist{
			{FirstName: "Claude", LastName: "Monet"},
			{FirstName: "Berthe", LastName: "Morisot"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, art.Classification)
	assert.Equal(t, painting.ID, art.Classification.ID, "classification found by name")
	require.Len(t, art.Artists, 2)
	assert.Equal(t, monet.ID, art.Artists[0].ID, "existing artist reused")

	// 已快取的藝術家與分類反映新作品
	cachedMonet, ok := f.registry.Artists.Get(monet.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"Water Lilies"}, cachedMonet.ArtworkTitles)

	cachedPainting, ok := f.registry.Classifications.Get(painting.ID)
	require.True(t, ok)
	assert.Equal(t, 1, cachedPainting.ArtworkCount())

	_, err = f.arts.Add(ctx, artshop.Art{Title: "Ghost", Artists: []artshop.Artist{{ID: 999}}})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestArtService_AddBulk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.arts.AddBulk(ctx, []artshop.Art{})
	assert.True(t, apperrors.IsInvalidInput(err))

	_, err = f.arts.AddBulk(ctx, []artshop.Art{{Title: "A"}, {Title: ""}})
	assert.True(t, apperrors.IsInvalidInput(err))

	created, err := f.arts.AddBulk(ctx, []artshop.Art{{Title: "A"}, {Title: "B"}})
	require.NoError(t, err)
	assert.Len(t, created, 2)
}

func TestArtService_GetAndQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	art, err := f.arts.Add(ctx, artshop.Art{
		Title:          "The Thinker",
		Classification: &artshop.Classification{Name: "Sculpture", Description: "3D works"},
		Artists:        []artshop.Artist{{FirstName: "Auguste", LastName: "Rodin"}},
	})
	require.NoError(t, err)
	f.registry.Artists.Clear()
	f.registry.Arts.Clear()
	f.registry.Classifications.Clear()

	got, err := f.arts.Get(ctx, art.ID)
	require.NoError(t, err)
	assert.Equal(t, art, got)
	assert.Equal(t, 1, f.registry.Arts.Len())

	_, err = f.arts.Get(ctx, 404)
	assert.True(t, apperrors.IsNotFound(err))

	byTitle, err := f.arts.GetByTitle(ctx, "The Thinker")
	require.NoError(t, err)
	assert.Equal(t, art.ID, byTitle.ID)

	_, err = f.arts.GetByTitle(ctx, "Unknown")
	assert.True(t, apperrors.IsNotFound(err))

	byArtist, err := f.arts.ByArtistName(ctx, "rod")
	require.NoError(t, err)
	assert.Len(t, byArtist, 1)

	byClassificationID, err := f.arts.ByClassificationID(ctx, art.Classification.ID)
	require.NoError(t, err)
	assert.Len(t, byClassificationID, 1)

	byClassificationName, err := f.arts.ByClassificationName(ctx, "SCULP")
	require.NoError(t, err)
	assert.Len(t, byClassificationName, 1)

	list, err := f.arts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestArtService_UpdateKeepsArtistsWhenNil(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	art, err := f.arts.Add(ctx, artshop.Art{
		Title:          "Guernica",
		Classification: &artshop.Classification{Name: "Painting", Description: "Oil"},
		Artists:        []artshop.Artist{{FirstName: "Pablo", LastName: "Picasso"}},
	})
	require.NoError(t, err)

	updated, err := f.arts.Update(ctx, art.ID, artshop.Art{Title: "Guernica (1937)", Year: intPtr(1937)})
	require.NoError(t, err)
	assert.Equal(t, "Guernica (1937)", updated.Title)
	assert.Nil(t, updated.Classification, "nil classification clears it")
	require.Len(t, updated.Artists, 1)
	assert.Equal(t, "Picasso", updated.Artists[0].LastName)

	cached, ok := f.registry.Arts.Get(art.ID)
	require.True(t, ok)
	assert.Equal(t, updated, cached)

	// 分類已快取，移除關聯後作品數歸零
	cachedClassification, ok := f.registry.Classifications.Get(art.Classification.ID)
	require.True(t, ok)
	assert.Equal(t, 0, cachedClassification.ArtworkCount())

	_, err = f.arts.Update(ctx, 404, artshop.Art{Title: "x"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestArtService_Patch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	art, err := f.arts.Add(ctx, artshop.Art{Title: "Olympia", Year: intPtr(1863)})
	require.NoError(t, err)
	manet, err := f.artists.Create(ctx, artshop.Artist{FirstName: "Edouard", LastName: "Manet"})
	require.NoError(t, err)
	painting, err := f.classifications.Create(ctx, artshop.Classification{Name: "Painting", Description: "Oil"})
	require.NoError(t, err)

	t.Run("validation", func(t *testing.T) {
		cases := []artshop.ArtPatch{
			{},
			{Title: strPtr("  ")},
			{Year: intPtr(999)},
			{Year: intPtr(time.Now().Year() + 1)},
		}
		for i, p := range cases {
			_, err := f.arts.Patch(ctx, art.ID, p)
			assert.True(t, apperrors.IsInvalidInput(err), "case %d: %v", i, err)
		}
	})

	t.Run("unknown classification", func(t *testing.T) {
		_, err := f.arts.Patch(ctx, art.ID, artshop.ArtPatch{ClassificationID: intPtr(404)})
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("unknown artist", func(t *testing.T) {
		_, err := f.arts.Patch(ctx, art.ID, artshop.ArtPatch{ArtistIDs: []int{manet.ID, 404}})
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("applies fields", func(t *testing.T) {
		patched, err := f.arts.Patch(ctx, art.ID, artshop.ArtPatch{
			Year:             intPtr(1865),
			ClassificationID: intPtr(painting.ID),
			ArtistIDs:        []int{manet.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, "Olympia", patched.Title)
		assert.Equal(t, 1865, *patched.Year)
		assert.Equal(t, painting.ID, patched.Classification.ID)
		require.Len(t, patched.Artists, 1)

		cachedManet, ok := f.registry.Artists.Get(manet.ID)
		require.True(t, ok)
		assert.Equal(t, []string{"Olympia"}, cachedManet.ArtworkTitles)
	})

	t.Run("empty artist ids clears artists", func(t *testing.T) {
		patched, err := f.arts.Patch(ctx, art.ID, artshop.ArtPatch{ArtistIDs: []int{}})
		require.NoError(t, err)
		assert.Empty(t, patched.Artists)

		cachedManet, ok := f.registry.Artists.Get(manet.ID)
		require.True(t, ok)
		assert.Empty(t, cachedManet.ArtworkTitles)
	})
}

func TestArtService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	art, err := f.arts.Add(ctx, artshop.Art{
		Title:          "Mona Lisa",
		Classification: &artshop.Classification{Name: "Painting", Description: "Oil"},
		Artists:        []artshop.Artist{{FirstName: "Leonardo", LastName: "da Vinci"}},
	})
	require.NoError(t, err)
	// 讓分類與藝術家進入快取
	_, err = f.classifications.Get(ctx, art.Classification.ID)
	require.NoError(t, err)

	require.NoError(t, f.arts.Delete(ctx, art.ID))

	_, ok := f.registry.Arts.Get(art.ID)
	assert.False(t, ok)

	cachedArtist, ok := f.registry.Artists.Get(art.Artists[0].ID)
	require.True(t, ok)
	assert.Empty(t, cachedArtist.ArtworkTitles)

	cachedClassification, ok := f.registry.Classifications.Get(art.Classification.ID)
	require.True(t, ok)
	assert.Equal(t, 0, cachedClassification.ArtworkCount())

	assert.True(t, apperrors.IsNotFound(f.arts.Delete(ctx, art.ID)))
}

// ========== ClassificationService ==========

func TestClassificationService_CRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.classifications.Create(ctx, artshop.Classification{Name: "Painting"})
	assert.True(t, apperrors.IsInvalidInput(err))

	c, err := f.classifications.Create(ctx, artshop.Classification{Name: "Painting", Description: "Oil"})
	require.NoError(t, err)

	_, err = f.classifications.Create(ctx, artshop.Classification{Name: "Painting", Description: "dup"})
	assert.True(t, apperrors.IsConflict(err))

	got, err := f.classifications.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = f.classifications.Get(ctx, 404)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.classifications.Patch(ctx, c.ID, artshop.ClassificationPatch{})
	assert.True(t, apperrors.IsInvalidInput(err))

	patched, err := f.classifications.Patch(ctx, c.ID, artshop.ClassificationPatch{Description: strPtr("Oil on canvas")})
	require.NoError(t, err)
	assert.Equal(t, "Painting", patched.Name)

	updated, err := f.classifications.Update(ctx, c.ID, artshop.Classification{Name: "Paintings", Description: "All"})
	require.NoError(t, err)
	cached, ok := f.registry.Classifications.Get(c.ID)
	require.True(t, ok)
	assert.Equal(t, updated, cached)

	_, err = f.classifications.Update(ctx, 404, artshop.Classification{Name: "x", Description: "y"})
	assert.True(t, apperrors.IsNotFound(err))

	byName, err := f.classifications.ByName(ctx, "paint")
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	assert.Equal(t, []string{
		"classification.created",
		"classification.updated",
		"classification.updated",
	}, f.publisher.subjects())
}

func TestClassificationService_CreateBulk(t *testing.T) {
	f := newFixture(t)

	_, err := f.classifications.CreateBulk(context.Background(), []artshop.Classification{
		{Name: "A", Description: "a"},
		{Name: "B"},
	})
	assert.True(t, apperrors.IsInvalidInput(err))

	created, err := f.classifications.CreateBulk(context.Background(), []artshop.Classification{
		{Name: "A", Description: "a"},
		{Name: "B", Description: "b"},
	})
	require.NoError(t, err)
	assert.Len(t, created, 2)
}

func TestClassificationService_DeleteRefreshesArts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	art, err := f.arts.Add(ctx, artshop.Art{
		Title:          "David",
		Classification: &artshop.Classification{Name: "Sculpture", Description: "3D"},
	})
	require.NoError(t, err)
	classificationID := art.Classification.ID

	byTitle, err := f.classifications.ByArtTitle(ctx, "dav")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)

	require.NoError(t, f.classifications.Delete(ctx, classificationID))

	cachedArt, ok := f.registry.Arts.Get(art.ID)
	require.True(t, ok)
	assert.Nil(t, cachedArt.Classification)

	_, ok = f.registry.Classifications.Get(classificationID)
	assert.False(t, ok)
}

func TestClassificationService_UpdateRefreshesArts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	art, err := f.arts.Add(ctx, artshop.Art{
		Title:          "David",
		Classification: &artshop.Classification{Name: "Sculpture", Description: "3D"},
	})
	require.NoError(t, err)

	_, err = f.classifications.Patch(ctx, art.Classification.ID, artshop.ClassificationPatch{Name: strPtr("Marble sculpture")})
	require.NoError(t, err)

	cachedArt, ok := f.registry.Arts.Get(art.ID)
	require.True(t, ok)
	assert.Equal(t, "Marble sculpture", cachedArt.Classification.Name)
}

// ========== CacheInfo ==========

func TestCacheInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, "Artist cache is empty", f.artists.CacheInfo())
	assert.Equal(t, "Art cache is empty", f.arts.CacheInfo())
	assert.Equal(t, "Classification cache is empty", f.classifications.CacheInfo())

	for i := 1; i <= cache.DefaultCapacity+1; i++ {
		_, err := f.artists.Create(ctx, artshop.Artist{LastName: fmt.Sprintf("Artist%d", i)})
		require.NoError(t, err)
	}

	info := f.artists.CacheInfo()
	assert.Contains(t, info, fmt.Sprintf("Artist cache contains %d items:", cache.DefaultCapacity))
	assert.NotContains(t, info, "lastName='Artist1'", "least recently used entry was evicted")
	assert.Contains(t, info, "lastName='Artist6'")
}
