package artshop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityString(t *testing.T) {
	year := 1889
	tests := []struct {
		name string
		in   interface{ String() string }
		want string
	}{
		{
			"artist",
			Artist{ID: 1, FirstName: "Vincent", LastName: "van Gogh", ArtworkTitles: []string{"Starry Night"}},
			"Artist{id=1, firstName='Vincent', middleName='', lastName='van Gogh', artsCount=1}",
		},
		{
			"classification",
			Classification{ID: 4, Name: "Sculpture", Description: "3D works"},
			"Classification{id=4, name='Sculpture', description='3D works', artsCount=0}",
		},
		{
			"art with relations",
			Art{ID: 2, Title: "Starry Night", Year: &year, Classification: &Classification{Name: "Painting"}, Artists: []Artist{{ID: 1}}},
			"Art{id=2, title='Starry Night', year=1889, classification='Painting', artistsCount=1}",
		},
		{
			"bare art",
			Art{ID: 3, Title: "Untitled"},
			"Art{id=3, title='Untitled', year=null, classification=null, artistsCount=0}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.String())
		})
	}
}

func TestArtist_JSON(t *testing.T) {
	data, err := json.Marshal(Artist{ID: 1, FirstName: "Claude", LastName: "Monet", ArtworkTitles: []string{"A", "B"}})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Claude", got["firstName"])
	assert.Equal(t, float64(2), got["artworkCount"])
	assert.NotContains(t, got, "middleName")

	var back Artist
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []string{"A", "B"}, back.ArtworkTitles)
}

func TestArtist_FullName(t *testing.T) {
	assert.Equal(t, "Vincent Willem van Gogh", Artist{FirstName: "Vincent", MiddleName: "Willem", LastName: "van Gogh"}.FullName())
	assert.Equal(t, "Banksy", Artist{LastName: "Banksy"}.FullName())
}

func TestPatchHasUpdates(t *testing.T) {
	name := "x"
	year := 1900

	assert.False(t, ArtistPatch{}.HasUpdates())
	assert.True(t, ArtistPatch{MiddleName: &name}.HasUpdates())

	assert.False(t, ArtPatch{}.HasUpdates())
	assert.True(t, ArtPatch{Year: &year}.HasUpdates())
	assert.True(t, ArtPatch{ArtistIDs: []int{}}.HasUpdates(), "empty slice means clear all artists")

	var p ArtPatch
	require.NoError(t, json.Unmarshal([]byte(`{"artistIds":[]}`), &p))
	assert.True(t, p.HasUpdates())

	assert.False(t, ClassificationPatch{}.HasUpdates())
	assert.True(t, ClassificationPatch{Name: &name}.HasUpdates())
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, uniqueIDs([]int{3, 1}, []int{1, 0, 2, 3}))
	assert.Nil(t, uniqueIDs(nil, []int{0}))
}
