package library

import "sort"

const (
	// DefaultMinScore is the lowest score a candidate may have to be returned.
	DefaultMinScore = 18
	// DefaultLimit caps the number of returned candidates.
	DefaultLimit = 5
)

// RankOptions controls the selection policy. Zero values use the defaults.
type RankOptions struct {
	MinScore float64
	Limit    int
}

func (o RankOptions) normalized() RankOptions {
	if o.MinScore <= 0 {
		o.MinScore = DefaultMinScore
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// Scored pairs an item with its score and the bonuses that contributed.
type Scored struct {
	Item    Item
	Score   float64
	Reasons []string
}

// Rank scores every item, orders them by descending score keeping the input
// order for ties, drops anything under MinScore and returns at most Limit.
// An empty result means no candidate qualified.
func Rank(items []Item, query Query, opts RankOptions) []Scored {
	opts = opts.normalized()
	if len(items) == 0 {
		return nil
	}
	scored := make([]Scored, 0, len(items))
	for _, item := range items {
		score, reasons := scoreWithReasons(item, query)
		scored = append(scored, Scored{Item: item, Score: score, Reasons: reasons})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	out := scored[:0]
	for _, candidate := range scored {
		if candidate.Score < opts.MinScore {
			// Sorted descending, nothing after this can qualify.
			break
		}
		out = append(out, candidate)
		if len(out) == opts.Limit {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
