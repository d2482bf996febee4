// Package watchlist defines the media entries tracked by the application and
// the partial-update type used for optimistic mutations.
package watchlist

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ItemType is the broad category of a tracked entry.
type ItemType string

const (
	TypeSeries ItemType = "TV Series"
	TypeMovies ItemType = "Movies"
)

// SubType narrows an entry to a regional or stylistic catalogue.
type SubType string

const (
	SubTypeAnime      SubType = "Anime"
	SubTypeBollywood  SubType = "Bollywood"
	SubTypeHollywood  SubType = "Hollywood"
	SubTypeAsian      SubType = "Asian"
	SubTypeTurkish    SubType = "Turkish"
	SubTypeTollywood  SubType = "Tollywood"
	SubTypeKollywood  SubType = "Kollywood"
	SubTypeSandalwood SubType = "Sandalwood"
)

// SubTypes lists every known sub-type, in display order.
var SubTypes = []SubType{
	SubTypeAnime,
	SubTypeBollywood,
	SubTypeHollywood,
	SubTypeAsian,
	SubTypeTurkish,
	SubTypeTollywood,
	SubTypeKollywood,
	SubTypeSandalwood,
}

// Status is the user's progress state for an entry.
type Status string

const (
	StatusWatch     Status = "Watch"
	StatusWaiting   Status = "Waiting"
	StatusCompleted Status = "Completed"
	StatusStopped   Status = "Stopped"
)

// Language distinguishes subbed from dubbed audio.
type Language string

const (
	LanguageSub Language = "SUB"
	LanguageDub Language = "DUB"
)

// ReleaseType marks whether an entry is a current or an older release.
type ReleaseType string

const (
	ReleaseNew ReleaseType = "New"
	ReleaseOld ReleaseType = "Old"
)

// Item is one tracked media entry. IDs are client-generated so entries can be
// created while offline and reconciled later.
type Item struct {
	ID          string      `json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	OwnerID     string      `json:"user_id"`
	Title       string      `json:"title"`
	Type        ItemType    `json:"type"`
	SubType     SubType     `json:"sub_type,omitempty"`
	Status      Status      `json:"status"`
	Season      int         `json:"season,omitempty"`
	Episode     int         `json:"episode,omitempty"`
	Part        int         `json:"part,omitempty"`
	Language    Language    `json:"language,omitempty"`
	ReleaseType ReleaseType `json:"release_type,omitempty"`
	Favorite    bool        `json:"favorite"`
}

// NewItem is a draft entry before it has an identity: what the parser and the
// add forms produce.
type NewItem struct {
	Title       string      `json:"title"`
	Type        ItemType    `json:"type"`
	SubType     SubType     `json:"sub_type,omitempty"`
	Status      Status      `json:"status"`
	Season      int         `json:"season,omitempty"`
	Episode     int         `json:"episode,omitempty"`
	Part        int         `json:"part,omitempty"`
	Language    Language    `json:"language,omitempty"`
	ReleaseType ReleaseType `json:"release_type,omitempty"`
	Favorite    bool        `json:"favorite"`
}

// New mints a full Item from a draft: fresh uuid, formatted title, owner and
// timestamps filled in.
func New(ownerID string, draft NewItem) Item {
	now := time.Now().UTC()
	return Item{
		ID:          uuid.NewString(),
		CreatedAt:   now,
		UpdatedAt:   now,
		OwnerID:     ownerID,
		Title:       FormatTitle(draft.Title),
		Type:        draft.Type,
		SubType:     draft.SubType,
		Status:      draft.Status,
		Season:      draft.Season,
		Episode:     draft.Episode,
		Part:        draft.Part,
		Language:    draft.Language,
		ReleaseType: draft.ReleaseType,
		Favorite:    draft.Favorite,
	}
}

// Key returns the duplicate-detection key for an item. Two entries collide
// when their trimmed, lowercased title and type match.
func (i Item) Key() string {
	return Key(i.Title, i.Type)
}

// Key builds the normalized (title, type) duplicate key.
func Key(title string, typ ItemType) string {
	return strings.ToLower(strings.TrimSpace(title)) + "||" +
		strings.ToLower(strings.TrimSpace(string(typ)))
}

// FormatTitle title-cases a string: first letter of every space-separated
// word uppercased, the rest lowercased. Words containing a digit (s5, 1917)
// are preserved verbatim.
func FormatTitle(title string) string {
	words := strings.Fields(strings.TrimSpace(title))
	for i, word := range words {
		if strings.ContainsAny(word, "0123456789") {
			continue
		}
		_, size := utf8.DecodeRuneInString(word)
		words[i] = strings.ToUpper(word[:size]) + strings.ToLower(word[size:])
	}
	return strings.Join(words, " ")
}

// Update is a partial mutation of an Item. Nil fields are untouched; set
// fields replace the item's values. It doubles as the wire payload for
// remote PATCH calls.
type Update struct {
	Title       *string      `json:"title,omitempty"`
	Type        *ItemType    `json:"type,omitempty"`
	SubType     *SubType     `json:"sub_type,omitempty"`
	Status      *Status      `json:"status,omitempty"`
	Season      *int         `json:"season,omitempty"`
	Episode     *int         `json:"episode,omitempty"`
	Part        *int         `json:"part,omitempty"`
	Language    *Language    `json:"language,omitempty"`
	ReleaseType *ReleaseType `json:"release_type,omitempty"`
	Favorite    *bool        `json:"favorite,omitempty"`
}

// Apply writes the set fields of u onto item. Titles are run through
// FormatTitle so a raw edit can never bypass the display format.
func (u Update) Apply(item *Item) {
	if u.Title != nil {
		item.Title = FormatTitle(*u.Title)
	}
	if u.Type != nil {
		item.Type = *u.Type
	}
	if u.SubType != nil {
		item.SubType = *u.SubType
	}
	if u.Status != nil {
		item.Status = *u.Status
	}
	if u.Season != nil {
		item.Season = *u.Season
	}
	if u.Episode != nil {
		item.Episode = *u.Episode
	}
	if u.Part != nil {
		item.Part = *u.Part
	}
	if u.Language != nil {
		item.Language = *u.Language
	}
	if u.ReleaseType != nil {
		item.ReleaseType = *u.ReleaseType
	}
	if u.Favorite != nil {
		item.Favorite = *u.Favorite
	}
}

// Merge layers a later update over u, last write wins per field. Used when
// coalescing successive offline edits of the same entry.
func (u Update) Merge(later Update) Update {
	if later.Title != nil {
		u.Title = later.Title
	}
	if later.Type != nil {
		u.Type = later.Type
	}
	if later.SubType != nil {
		u.SubType = later.SubType
	}
	if later.Status != nil {
		u.Status = later.Status
	}
	if later.Season != nil {
		u.Season = later.Season
	}
	if later.Episode != nil {
		u.Episode = later.Episode
	}
	if later.Part != nil {
		u.Part = later.Part
	}
	if later.Language != nil {
		u.Language = later.Language
	}
	if later.ReleaseType != nil {
		u.ReleaseType = later.ReleaseType
	}
	if later.Favorite != nil {
		u.Favorite = later.Favorite
	}
	return u
}
