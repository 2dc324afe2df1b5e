package storage

import (
	"context"
	"testing"

	"github.com/koopa0/artshop/internal/artshop"
	apperrors "github.com/koopa0/artshop/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

// seed 建立兩位藝術家、一個分類與一件作品
func seed(t *testing.T, m *Memory) (vanGogh, monet artshop.Artist, painting artshop.Classification, starry artshop.Art) {
	t.Helper()
	ctx := context.Background()

	vanGogh, err := m.CreateArtist(ctx, artshop.Artist{FirstName: "Vincent", MiddleName: "Willem", LastName: "van Gogh"})
	require.NoError(t, err)
	monet, err = m.CreateArtist(ctx, artshop.Artist{FirstName: "Claude", LastName: "Monet"})
	require.NoError(t, err)

	painting, err = m.CreateClassification(ctx, artshop.Classification{Name: "Painting", Description: "Oil on canvas"})
	require.NoError(t, err)

	starry, err = m.CreateArt(ctx, artshop.Art{
		Title:          "Starry Night",
		Year:           intPtr(1889),
		Classification: &artshop.Classification{ID: painting.ID},
		Artists:        []artshop.Artist{{ID: vanGogh.ID}},
	})
	require.NoError(t, err)
	return vanGogh, monet, painting, starry
}

func TestMemory_ArtistLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	vanGogh, monet, _, starry := seed(t, m)

	got, err := m.GetArtist(ctx, vanGogh.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Starry Night"}, got.ArtworkTitles)

	found, err := m.FindArtistByName(ctx, "Claude", "Monet")
	require.NoError(t, err)
	assert.Equal(t, monet.ID, found.ID)

	_, err = m.FindArtistByName(ctx, "claude", "monet")
	assert.True(t, apperrors.IsNotFound(err), "exact match only")

	updated, err := m.UpdateArtist(ctx, artshop.Artist{ID: vanGogh.ID, FirstName: "Vincent", LastName: "Van Gogh"})
	require.NoError(t, err)
	assert.Equal(t, "Van Gogh", updated.LastName)
	assert.Empty(t, updated.MiddleName)

	art, err := m.GetArt(ctx, starry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Van Gogh", art.Artists[0].LastName, "embedded view follows the artist row")

	require.NoError(t, m.DeleteArtist(ctx, vanGogh.ID))
	_, err = m.GetArtist(ctx, vanGogh.ID)
	assert.True(t, apperrors.IsNotFound(err))

	art, err = m.GetArt(ctx, starry.ID)
	require.NoError(t, err)
	assert.Empty(t, art.Artists, "link removed with the artist")

	assert.True(t, apperrors.IsNotFound(m.DeleteArtist(ctx, vanGogh.ID)))
}

func TestMemory_SearchArtists(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seed(t, m)

	tests := []struct {
		name      string
		first     string
		last      string
		wantNames []string
	}{
		{"by first name", "vin", "", []string{"van Gogh"}},
		{"by last name", "", "MON", []string{"Monet"}},
		{"both", "claude", "net", []string{"Monet"}},
		{"no match", "pablo", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artists, err := m.SearchArtists(ctx, tt.first, tt.last)
			require.NoError(t, err)

			var names []string
			for _, a := range artists {
				names = append(names, a.LastName)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestMemory_ArtQueries(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	vanGogh, monet, painting, starry := seed(t, m)

	lilies, err := m.CreateArt(ctx, artshop.Art{
		Title:          "Water Lilies",
		Classification: &artshop.Classification{ID: painting.ID},
		Artists:        []artshop.Artist{{ID: monet.ID}, {ID: monet.ID}},
	})
	require.NoError(t, err)
	assert.Len(t, lilies.Artists, 1, "duplicate artist ids collapse")
	assert.Nil(t, lilies.Year)

	byTitle, err := m.GetArtByTitle(ctx, "Starry Night")
	require.NoError(t, err)
	assert.Equal(t, starry.ID, byTitle.ID)

	_, err = m.GetArtByTitle(ctx, "starry night")
	assert.True(t, apperrors.IsNotFound(err))

	byArtist, err := m.ArtsByArtistName(ctx, "gogh")
	require.NoError(t, err)
	require.Len(t, byArtist, 1)
	assert.Equal(t, starry.ID, byArtist[0].ID)

	byArtistID, err := m.ArtsByArtistID(ctx, monet.ID)
	require.NoError(t, err)
	require.Len(t, byArtistID, 1)
	assert.Equal(t, lilies.ID, byArtistID[0].ID)

	byClassification, err := m.ArtsByClassificationID(ctx, painting.ID)
	require.NoError(t, err)
	assert.Len(t, byClassification, 2)

	byClassificationName, err := m.ArtsByClassificationName(ctx, "paint")
	require.NoError(t, err)
	assert.Len(t, byClassificationName, 2)

	artists, err := m.ArtistsByArtTitle(ctx, "lilies")
	require.NoError(t, err)
	require.Len(t, artists, 1)
	assert.Equal(t, monet.ID, artists[0].ID)

	classifications, err := m.ClassificationsByArtTitle(ctx, "night")
	require.NoError(t, err)
	require.Len(t, classifications, 1)
	assert.Equal(t, []string{"Starry Night", "Water Lilies"}, classifications[0].ArtworkTitles)

	_, err = m.CreateArt(ctx, artshop.Art{Title: "Ghost", Artists: []artshop.Artist{{ID: 999}}})
	assert.True(t, apperrors.IsNotFound(err))

	_ = vanGogh
}

func TestMemory_UpdateArtReplacesLinks(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	vanGogh, monet, _, starry := seed(t, m)

	updated, err := m.UpdateArt(ctx, artshop.Art{
		ID:      starry.ID,
		Title:   "The Starry Night",
		Artists: []artshop.Artist{{ID: monet.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, "The Starry Night", updated.Title)
	assert.Nil(t, updated.Classification)
	require.Len(t, updated.Artists, 1)
	assert.Equal(t, monet.ID, updated.Artists[0].ID)

	old, err := m.GetArtist(ctx, vanGogh.ID)
	require.NoError(t, err)
	assert.Empty(t, old.ArtworkTitles)

	_, err = m.UpdateArt(ctx, artshop.Art{ID: 404, Title: "x"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMemory_ClassificationNameUnique(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _, painting, _ := seed(t, m)

	_, err := m.CreateClassification(ctx, artshop.Classification{Name: "Painting", Description: "dup"})
	assert.True(t, apperrors.IsConflict(err))

	sculpture, err := m.CreateClassification(ctx, artshop.Classification{Name: "Sculpture", Description: "3D"})
	require.NoError(t, err)

	_, err = m.UpdateClassification(ctx, artshop.Classification{ID: sculpture.ID, Name: "Painting", Description: "x"})
	assert.True(t, apperrors.IsConflict(err))

	same, err := m.UpdateClassification(ctx, artshop.Classification{ID: painting.ID, Name: "Painting", Description: "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", same.Description)
}

func TestMemory_DeleteClassificationUnclassifiesArts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _, painting, starry := seed(t, m)

	require.NoError(t, m.DeleteClassification(ctx, painting.ID))

	art, err := m.GetArt(ctx, starry.ID)
	require.NoError(t, err)
	assert.Nil(t, art.Classification)

	list, err := m.ListClassifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.True(t, apperrors.IsNotFound(m.DeleteClassification(ctx, painting.ID)))
}

func TestMemory_ListsOrderedByID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, name := range []string{"C", "A", "B"} {
		_, err := m.CreateArtist(ctx, artshop.Artist{LastName: name})
		require.NoError(t, err)
	}

	artists, err := m.ListArtists(ctx)
	require.NoError(t, err)
	require.Len(t, artists, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{artists[0].ID, artists[1].ID, artists[2].ID})
}
