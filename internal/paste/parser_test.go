package paste

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunkn/watchsync/internal/watchlist"
)

func TestParseHeaderContextInheritance(t *testing.T) {
	input := "Anime Continue Old\none piece s1 e1 p1 series dub old\ndemon slayer movie"

	result := Parse(input, nil)
	require.Len(t, result.ToAdd, 2)
	assert.Empty(t, result.Duplicates)
	assert.Empty(t, result.Unparsable)

	first := result.ToAdd[0]
	assert.Equal(t, "One Piece", first.Title)
	assert.Equal(t, watchlist.TypeSeries, first.Type)
	assert.Equal(t, watchlist.SubTypeAnime, first.SubType)
	assert.Equal(t, watchlist.StatusWaiting, first.Status)
	assert.Equal(t, watchlist.ReleaseOld, first.ReleaseType)
	assert.Equal(t, watchlist.LanguageDub, first.Language)
	assert.Equal(t, 1, first.Season)
	assert.Equal(t, 1, first.Episode)
	assert.Equal(t, 1, first.Part)

	// The header's context carries down to every item line under it.
	second := result.ToAdd[1]
	assert.Equal(t, "Demon Slayer", second.Title)
	assert.Equal(t, watchlist.TypeMovies, second.Type)
	assert.Equal(t, watchlist.SubTypeAnime, second.SubType)
	assert.Equal(t, watchlist.StatusWaiting, second.Status)
	assert.Equal(t, watchlist.ReleaseOld, second.ReleaseType)
	assert.Equal(t, watchlist.LanguageDub, second.Language)
}

func TestParseLaterHeaderMergesNotResets(t *testing.T) {
	input := "Anime Old\nfirst show\nBollywood\nsecond show"

	result := Parse(input, nil)
	require.Len(t, result.ToAdd, 2)

	assert.Equal(t, watchlist.SubTypeAnime, result.ToAdd[0].SubType)
	assert.Equal(t, watchlist.ReleaseOld, result.ToAdd[0].ReleaseType)

	// The second header only mentions a sub-type; the release context from
	// the first header survives.
	assert.Equal(t, watchlist.SubTypeBollywood, result.ToAdd[1].SubType)
	assert.Equal(t, watchlist.ReleaseOld, result.ToAdd[1].ReleaseType)
}

func TestParseLabeledMarkers(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		title   string
		season  int
		episode int
		part    int
	}{
		{name: "compact", line: "attack on titan s4 e28", title: "Attack On Titan", season: 4, episode: 28},
		{name: "spelled out", line: "vinland saga season 2 episode 10", title: "Vinland Saga", season: 2, episode: 10},
		{name: "spaced short", line: "mob psycho s 3 ep 5", title: "Mob Psycho", season: 3, episode: 5},
		{name: "dotted episode", line: "bleach ep.12", title: "Bleach", episode: 12},
		{name: "part", line: "jojo part 6", title: "Jojo", part: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.line, nil)
			require.Len(t, result.ToAdd, 1)
			item := result.ToAdd[0]
			assert.Equal(t, tt.title, item.Title)
			assert.Equal(t, tt.season, item.Season)
			assert.Equal(t, tt.episode, item.Episode)
			assert.Equal(t, tt.part, item.Part)
		})
	}
}

func TestParseTrailingNumberShorthand(t *testing.T) {
	// Series: bare trailing number is a season.
	result := Parse("stranger things 4", nil)
	require.Len(t, result.ToAdd, 1)
	assert.Equal(t, "Stranger Things", result.ToAdd[0].Title)
	assert.Equal(t, 4, result.ToAdd[0].Season)

	// Movies: bare trailing number is a part.
	result = Parse("john wick movie 3", nil)
	require.Len(t, result.ToAdd, 1)
	assert.Equal(t, "John Wick", result.ToAdd[0].Title)
	assert.Equal(t, watchlist.TypeMovies, result.ToAdd[0].Type)
	assert.Equal(t, 3, result.ToAdd[0].Part)

	// An explicit season claims the slot; the trailing number stays in the
	// title.
	result = Parse("area s2 88", nil)
	require.Len(t, result.ToAdd, 1)
	assert.Equal(t, 2, result.ToAdd[0].Season)
	assert.Equal(t, "Area 88", result.ToAdd[0].Title)

	// Years are not progress shorthand.
	result = Parse("blade runner 2049 movie", nil)
	require.Len(t, result.ToAdd, 1)
	assert.Equal(t, "Blade Runner 2049", result.ToAdd[0].Title)
	assert.Zero(t, result.ToAdd[0].Part)
}

func TestParseKeywordExtraction(t *testing.T) {
	result := Parse("dark tv series english stopped hollywood new", nil)
	require.Len(t, result.ToAdd, 1)

	item := result.ToAdd[0]
	assert.Equal(t, "Dark", item.Title)
	assert.Equal(t, watchlist.TypeSeries, item.Type)
	assert.Equal(t, watchlist.SubTypeHollywood, item.SubType)
	assert.Equal(t, watchlist.StatusStopped, item.Status)
	assert.Equal(t, watchlist.LanguageDub, item.Language)
	assert.Equal(t, watchlist.ReleaseNew, item.ReleaseType)
}

func TestParseStatusVocabulary(t *testing.T) {
	tests := []struct {
		word string
		want watchlist.Status
	}{
		{"continue", watchlist.StatusWaiting},
		{"continuing", watchlist.StatusWaiting},
		{"contiune", watchlist.StatusWaiting}, // common typo
		{"watch", watchlist.StatusWatch},
		{"stop", watchlist.StatusStopped},
		{"stopped", watchlist.StatusStopped},
		{"complete", watchlist.StatusCompleted},
		{"completed", watchlist.StatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			result := Parse("some show "+tt.word, nil)
			require.Len(t, result.ToAdd, 1)
			assert.Equal(t, tt.want, result.ToAdd[0].Status)
		})
	}
}

func TestParseLanguageVocabulary(t *testing.T) {
	for _, word := range []string{"eng", "english", "dub"} {
		result := Parse("show "+word, nil)
		require.Len(t, result.ToAdd, 1)
		assert.Equal(t, watchlist.LanguageDub, result.ToAdd[0].Language, word)
	}
	for _, word := range []string{"sub", "japanese", "jpn"} {
		result := Parse("show "+word, nil)
		require.Len(t, result.ToAdd, 1)
		assert.Equal(t, watchlist.LanguageSub, result.ToAdd[0].Language, word)
	}
}

func TestParseDefaults(t *testing.T) {
	result := Parse("solo leveling", nil)
	require.Len(t, result.ToAdd, 1)

	item := result.ToAdd[0]
	assert.Equal(t, watchlist.TypeSeries, item.Type)
	assert.Equal(t, watchlist.StatusWatch, item.Status)
	assert.Equal(t, watchlist.SubTypeAnime, item.SubType)
	assert.Equal(t, watchlist.LanguageDub, item.Language)
	assert.Equal(t, watchlist.ReleaseNew, item.ReleaseType)
}

func TestParseSeparatorsAndAnnotations(t *testing.T) {
	result := Parse("one punch man | s3 [1080p] (finale)", nil)
	require.Len(t, result.ToAdd, 1)
	assert.Equal(t, "One Punch Man", result.ToAdd[0].Title)
	assert.Equal(t, 3, result.ToAdd[0].Season)
}

func TestParseUnparsableLines(t *testing.T) {
	result := Parse("s1 e2\nmovie dub\nreal title", nil)
	require.Len(t, result.ToAdd, 1)
	assert.Equal(t, "Real Title", result.ToAdd[0].Title)
	assert.Equal(t, []string{"s1 e2", "movie dub"}, result.Unparsable)
}

func TestParseDuplicateClassification(t *testing.T) {
	existing := []watchlist.Item{
		{Title: "Naruto", Type: watchlist.TypeSeries},
	}

	result := Parse(" naruto \nnaruto movie\nbleach\nBLEACH", existing)

	// Same title and type as an existing entry, case and padding ignored.
	require.Len(t, result.Duplicates, 2)
	assert.Equal(t, "Naruto", result.Duplicates[0].Title)
	// Second bleach collides with the first within the batch.
	assert.Equal(t, "Bleach", result.Duplicates[1].Title)

	require.Len(t, result.ToAdd, 2)
	assert.Equal(t, "Naruto", result.ToAdd[0].Title)
	assert.Equal(t, watchlist.TypeMovies, result.ToAdd[0].Type, "same title with a different type is not a duplicate")
	assert.Equal(t, "Bleach", result.ToAdd[1].Title)
}

func TestParseEmptyInput(t *testing.T) {
	result := Parse("", nil)
	assert.Empty(t, result.ToAdd)
	assert.Empty(t, result.Duplicates)
	assert.Empty(t, result.Unparsable)

	result = Parse("\n   \n\t\n", nil)
	assert.Empty(t, result.ToAdd)
	assert.Empty(t, result.Unparsable)
}
