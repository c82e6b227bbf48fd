package library

import (
	"strings"

	"pedidobot/internal/textutil"
)

const (
	overlapWeight      = 70
	titleExactBonus    = 28
	titlePartialBonus  = 18
	chapterMatchBonus  = 30
	categoryMatchBonus = 10
)

// Score rates item against query. Higher is better and there is no upper bound.
func Score(item Item, query Query) float64 {
	score, _ := scoreWithReasons(item, query)
	return score
}

func scoreWithReasons(item Item, query Query) (float64, []string) {
	var reasons []string

	queryTokens := textutil.TokenSet(joinFields(query.Title, query.Description, strings.Join(query.Tags, " ")))
	itemTokens := textutil.TokenSet(joinFields(item.Title, item.OriginalName, strings.Join(item.Tags, " ")))

	var score float64
	if len(queryTokens) > 0 {
		shared := 0
		for token := range queryTokens {
			if _, ok := itemTokens[token]; ok {
				shared++
			}
		}
		score = float64(shared) / float64(len(queryTokens)) * overlapWeight
		if shared > 0 {
			reasons = append(reasons, "overlap")
		}
	}

	itemTitle := textutil.Normalize(item.Title)
	queryTitle := textutil.Normalize(query.Title)
	if itemTitle != "" && queryTitle != "" {
		switch {
		case itemTitle == queryTitle:
			score += titleExactBonus
			reasons = append(reasons, "title_exact")
		case strings.Contains(itemTitle, queryTitle) || strings.Contains(queryTitle, itemTitle):
			score += titlePartialBonus
			reasons = append(reasons, "title_partial")
		}
	}

	itemChapter := textutil.NormalizeChapter(item.Chapter)
	queryChapter := textutil.NormalizeChapter(query.Chapter)
	if itemChapter != "" && queryChapter != "" && itemChapter == queryChapter {
		score += chapterMatchBonus
		reasons = append(reasons, "chapter")
	}

	itemCategory := strings.TrimSpace(item.Category)
	queryCategory := strings.TrimSpace(query.Category)
	if itemCategory != "" && queryCategory != "" && strings.EqualFold(itemCategory, queryCategory) {
		score += categoryMatchBonus
		reasons = append(reasons, "category")
	}

	return score, reasons
}

func joinFields(parts ...string) string {
	return strings.Join(parts, " ")
}
