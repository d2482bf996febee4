// Package paste turns free text pasted by the user into structured watchlist
// drafts. Parsing is a pure function pipeline: split lines, classify each as
// a context header or an item, extract labeled and keyword fields, and bucket
// the results against the existing collection.
package paste

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/arjunkn/watchsync/internal/watchlist"
)

// Result buckets the outcome of one parse: drafts to add, drafts that
// collide with an existing or earlier-in-batch entry, and raw lines that
// yielded no title.
type Result struct {
	ToAdd      []watchlist.NewItem
	Duplicates []watchlist.NewItem
	Unparsable []string
}

// Labeled numeric markers. The optional dot covers "ep.12".
var (
	seasonPattern  = regexp.MustCompile(`(?i)\b(?:s|season)\s?(\d+)\b`)
	episodePattern = regexp.MustCompile(`(?i)\b(?:e|ep|episode)\s?\.?(\d+)\b`)
	partPattern    = regexp.MustCompile(`(?i)\b(?:p|part)\s?(\d+)\b`)

	trailingNumberPattern = regexp.MustCompile(`\b(\d{1,2})\s*$`)
	annotationPattern     = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	separatorPattern      = regexp.MustCompile(`[|,\-./]`)
)

// Keyword vocabularies. Alternation order is deliberate: multi-word phrases
// sit before their single-word prefixes so "tv series" is consumed whole,
// while "continue old" is listed after "continue" so the status match leaves
// "old" for the release vocabulary.
var (
	typeKeywords     = keywordPattern("series", "tv series", "tv", "movie", "movies", "film")
	statusKeywords   = keywordPattern("continue", "continuing", "continue old", "contiune", "watch", "stopped", "stop", "complete", "completed")
	languageKeywords = keywordPattern("eng", "english", "dub", "sub", "japanese", "jpn")
	releaseKeywords  = keywordPattern("new", "old")
	subTypeKeywords  = subTypePattern()
)

func keywordPattern(words ...string) *regexp.Regexp {
	escaped := make([]string, len(words))
	for i, w := range words {
		escaped[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b`)
}

func subTypePattern() *regexp.Regexp {
	words := make([]string, len(watchlist.SubTypes))
	for i, st := range watchlist.SubTypes {
		words[i] = string(st)
	}
	return keywordPattern(words...)
}

func normalizeType(value string) watchlist.ItemType {
	switch strings.ToLower(value) {
	case "movie", "movies", "film":
		return watchlist.TypeMovies
	default:
		return watchlist.TypeSeries
	}
}

func normalizeSubType(value string) watchlist.SubType {
	lower := strings.ToLower(value)
	for _, st := range watchlist.SubTypes {
		if strings.ToLower(string(st)) == lower {
			return st
		}
	}
	return ""
}

func normalizeStatus(value string) watchlist.Status {
	switch strings.ToLower(value) {
	case "continue", "continuing", "continue old", "contiune":
		return watchlist.StatusWaiting
	case "stopped", "stop":
		return watchlist.StatusStopped
	case "complete", "completed":
		return watchlist.StatusCompleted
	default:
		return watchlist.StatusWatch
	}
}

func normalizeLanguage(value string) watchlist.Language {
	switch strings.ToLower(value) {
	case "eng", "english", "dub":
		return watchlist.LanguageDub
	case "sub", "japanese", "jpn":
		return watchlist.LanguageSub
	default:
		return ""
	}
}

func normalizeRelease(value string) watchlist.ReleaseType {
	if strings.ToLower(value) == "old" {
		return watchlist.ReleaseOld
	}
	return watchlist.ReleaseNew
}

// lineDefaults is the running context set by header lines. Zero values mean
// unset; later headers override only the fields they mention.
type lineDefaults struct {
	typ     watchlist.ItemType
	subType watchlist.SubType
	status  watchlist.Status
	release watchlist.ReleaseType
}

// Parse transforms raw multi-line text into drafts classified against the
// existing collection. It touches no network or storage and is deterministic
// for a given input.
func Parse(rawText string, existing []watchlist.Item) Result {
	result := Result{}

	var defaults lineDefaults
	var parsed []watchlist.NewItem

	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if header, ok := parseHeader(line); ok {
			defaults = mergeDefaults(defaults, header)
			continue
		}
		item, ok := parseItemLine(line, defaults)
		if !ok {
			result.Unparsable = append(result.Unparsable, line)
			continue
		}
		parsed = append(parsed, item)
	}

	existingKeys := make(map[string]struct{}, len(existing))
	for _, item := range existing {
		existingKeys[item.Key()] = struct{}{}
	}
	seen := make(map[string]struct{})

	for _, item := range parsed {
		key := watchlist.Key(item.Title, item.Type)
		if _, dup := existingKeys[key]; dup {
			result.Duplicates = append(result.Duplicates, item)
			continue
		}
		if _, dup := seen[key]; dup {
			result.Duplicates = append(result.Duplicates, item)
			continue
		}
		result.ToAdd = append(result.ToAdd, item)
		seen[key] = struct{}{}
	}
	return result
}

// parseHeader reports whether the line is a pure context line: no numeric
// markers, and nothing left after every recognized keyword is removed. The
// extracted fields become the running defaults for the item lines below it.
func parseHeader(line string) (lineDefaults, bool) {
	if seasonPattern.MatchString(line) ||
		episodePattern.MatchString(line) ||
		partPattern.MatchString(line) ||
		trailingNumberPattern.MatchString(line) {
		return lineDefaults{}, false
	}

	stripped := line
	matched := false
	for _, re := range []*regexp.Regexp{typeKeywords, subTypeKeywords, statusKeywords, releaseKeywords} {
		if re.MatchString(stripped) {
			matched = true
			stripped = re.ReplaceAllString(stripped, " ")
		}
	}
	if !matched {
		return lineDefaults{}, false
	}
	stripped = separatorPattern.ReplaceAllString(stripped, " ")
	if strings.TrimSpace(stripped) != "" {
		return lineDefaults{}, false
	}

	var header lineDefaults
	if m := typeKeywords.FindString(line); m != "" {
		header.typ = normalizeType(m)
	}
	if m := subTypeKeywords.FindString(line); m != "" {
		header.subType = normalizeSubType(m)
	}
	if m := statusKeywords.FindString(line); m != "" {
		header.status = normalizeStatus(m)
	}
	if m := releaseKeywords.FindString(statusKeywords.ReplaceAllString(line, " ")); m != "" {
		header.release = normalizeRelease(m)
	}
	return header, true
}

func mergeDefaults(base, header lineDefaults) lineDefaults {
	if header.typ != "" {
		base.typ = header.typ
	}
	if header.subType != "" {
		base.subType = header.subType
	}
	if header.status != "" {
		base.status = header.status
	}
	if header.release != "" {
		base.release = header.release
	}
	return base
}

// parseItemLine extracts every recognized marker from the line, consuming
// matched tokens so the leftover text becomes the title.
func parseItemLine(line string, defaults lineDefaults) (watchlist.NewItem, bool) {
	rest := " " + line + " "

	extractNumber := func(re *regexp.Regexp) int {
		loc := re.FindStringSubmatchIndex(rest)
		if loc == nil {
			return 0
		}
		n, err := strconv.Atoi(rest[loc[2]:loc[3]])
		if err != nil {
			return 0
		}
		rest = rest[:loc[0]] + " " + rest[loc[1]:]
		return n
	}
	extractKeyword := func(re *regexp.Regexp) string {
		loc := re.FindStringIndex(rest)
		if loc == nil {
			return ""
		}
		m := rest[loc[0]:loc[1]]
		rest = rest[:loc[0]] + " " + rest[loc[1]:]
		return m
	}

	item := watchlist.NewItem{
		Season:  extractNumber(seasonPattern),
		Episode: extractNumber(episodePattern),
		Part:    extractNumber(partPattern),
	}

	if m := extractKeyword(typeKeywords); m != "" {
		item.Type = normalizeType(m)
	} else if defaults.typ != "" {
		item.Type = defaults.typ
	} else {
		item.Type = watchlist.TypeSeries
	}

	if m := extractKeyword(subTypeKeywords); m != "" {
		item.SubType = normalizeSubType(m)
	} else {
		item.SubType = defaults.subType
	}

	if m := extractKeyword(statusKeywords); m != "" {
		item.Status = normalizeStatus(m)
	} else if defaults.status != "" {
		item.Status = defaults.status
	} else {
		item.Status = watchlist.StatusWatch
	}

	if m := extractKeyword(languageKeywords); m != "" {
		item.Language = normalizeLanguage(m)
	}

	if m := extractKeyword(releaseKeywords); m != "" {
		item.ReleaseType = normalizeRelease(m)
	} else if defaults.release != "" {
		item.ReleaseType = defaults.release
	} else {
		item.ReleaseType = watchlist.ReleaseNew
	}

	rest = annotationPattern.ReplaceAllString(rest, " ")
	rest = separatorPattern.ReplaceAllString(rest, " ")
	rest = strings.Join(strings.Fields(rest), " ")

	// A short trailing number with no label is shorthand progress: a season
	// for series, a part for movies. Already-claimed fields keep the number
	// in the title.
	if m := trailingNumberPattern.FindStringSubmatch(rest); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 99 {
			claimed := false
			switch item.Type {
			case watchlist.TypeMovies:
				if item.Part == 0 {
					item.Part = n
					claimed = true
				}
			default:
				if item.Season == 0 {
					item.Season = n
					claimed = true
				}
			}
			if claimed {
				rest = strings.TrimSpace(rest[:len(rest)-len(m[0])])
			}
		}
	}

	title := watchlist.FormatTitle(rest)
	if title == "" {
		return watchlist.NewItem{}, false
	}
	item.Title = title

	if item.SubType == "" {
		item.SubType = watchlist.SubTypeAnime
	}
	if item.Language == "" {
		item.Language = watchlist.LanguageDub
	}
	return item, true
}
