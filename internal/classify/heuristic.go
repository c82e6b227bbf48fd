package classify

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pedidobot/internal/textutil"
)

var (
	chapterMarkerRe = regexp.MustCompile(`(?i)(?:^|\s)(?:cap[ií]tulo|cap|chapter|ch|episodio|ep|#)\s*\.?\s*#?\s*(\d+(?:\.\d+)?)`)
	trailingNumRe   = regexp.MustCompile(`(?:^|\s)(\d{1,4}(?:\.\d+)?)\s*$`)
	volumeRe        = regexp.MustCompile(`(?i)\b(?:vol|volumen|volume|tomo|t)\s*\.?\s*\d+\b`)
	bracketRe       = regexp.MustCompile(`[\[\(\{][^\]\)\}]*[\]\)\}]`)
	hashtagRe       = regexp.MustCompile(`#([\p{L}][\p{L}\p{N}_]*)`)
)

var categoryKeywords = map[string]string{
	"manga":   "manga",
	"manhwa":  "manhwa",
	"manhua":  "manhwa",
	"webtoon": "manhwa",
	"comic":   "comic",
	"comics":  "comic",
	"novela":  "novela",
	"novel":   "novela",
	"ln":      "novela",
	"libro":   "libro",
	"book":    "libro",
	"revista": "revista",
}

// chatterWords are dropped from titles; they show up in chat requests but are
// never part of a work's name.
var chatterWords = map[string]struct{}{
	"hola": {}, "busco": {}, "quiero": {}, "necesito": {}, "pedido": {},
	"porfa": {}, "favor": {}, "gracias": {}, "pdf": {}, "epub": {},
	"cbz": {}, "cbr": {}, "zip": {}, "rar": {},
}

var extensionCategories = map[string]string{
	".cbz":  "manga",
	".cbr":  "manga",
	".epub": "libro",
	".mobi": "libro",
	".azw3": "libro",
}

// Heuristic classifies from filename and caption text alone.
type Heuristic struct{}

// Classify implements Classifier.
func (Heuristic) Classify(_ context.Context, input Input) (Result, error) {
	if input.Empty() {
		return Result{}, ErrNoClassification
	}

	result := Result{Source: "heuristic"}
	text := strings.TrimSpace(input.Caption)
	if name := strings.TrimSpace(input.Filename); name != "" {
		ext := strings.ToLower(filepath.Ext(name))
		if category, ok := extensionCategories[ext]; ok {
			result.Category = category
		}
		if text == "" {
			text = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		}
		result.Chapter = findChapter(cleanSeparators(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))))
	}

	for _, match := range hashtagRe.FindAllStringSubmatch(text, -1) {
		result.Tags = append(result.Tags, strings.ToLower(match[1]))
	}
	text = hashtagRe.ReplaceAllString(text, " ")
	text = bracketRe.ReplaceAllString(text, " ")
	text = cleanSeparators(text)

	if chapter := findChapter(text); chapter != "" {
		result.Chapter = chapter
	}
	text = chapterMarkerRe.ReplaceAllString(text, " ")
	text = volumeRe.ReplaceAllString(text, " ")
	if result.Chapter == "" {
		result.Chapter = textutil.NormalizeChapter(firstSubmatch(trailingNumRe, text))
	}
	text = trailingNumRe.ReplaceAllString(text, " ")

	var words []string
	for _, word := range strings.Fields(text) {
		key := textutil.Normalize(word)
		if category, ok := categoryKeywords[key]; ok {
			if result.Category == "" {
				result.Category = category
			}
			continue
		}
		if _, ok := chatterWords[key]; ok {
			continue
		}
		words = append(words, word)
	}
	title := strings.Join(words, " ")
	if strings.TrimSpace(title) == "" {
		return Result{}, ErrNoClassification
	}
	result.Title = cases.Title(language.Spanish).String(strings.ToLower(title))
	return result, nil
}

func findChapter(text string) string {
	return textutil.NormalizeChapter(firstSubmatch(chapterMarkerRe, text))
}

func firstSubmatch(re *regexp.Regexp, text string) string {
	match := re.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// cleanSeparators turns filename punctuation into spaces, keeping letters,
// digits, '#', and decimal points between digits.
func cleanSeparators(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '#':
			b.WriteRune(r)
			prevSpace = false
		case r == '.' && i > 0 && i < len(runes)-1 && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]):
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
