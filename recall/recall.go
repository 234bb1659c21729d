// Package recall ranks stored memories against a query, blending semantic
// distance with temporal decay and a category boost, and classifies how
// confidently the result set answers the question.
package recall

import (
	"context"
	"fmt"
	"sort"

	"github.com/hearthside/keeper/core"
	"github.com/hearthside/keeper/memory"
)

// Scoring constants, tuned to squared Euclidean distances between MiniLM
// unit vectors. The shapes are the contract: linear decay with a cap, a
// flat boost for a category match, and a looser raw-distance gate in
// recency mode.
const (
	// DefaultThreshold is the best-match acceptance threshold.
	DefaultThreshold = 1.2

	// RecencySlack loosens the raw-distance gate in recency mode:
	// "when did I last take my meds" still needs semantic relevance,
	// just less of it, because decay is ignored for filtering.
	RecencySlack = 0.5

	decayPerDay    = 0.005
	maxDecay       = 0.5
	categoryBoost  = 0.3
	supersetFactor = 10
)

// Source is the slice of the memory store the engine needs: candidate
// search plus metadata lookup.
type Source interface {
	Search(ctx context.Context, query string, k int) ([]memory.Hit, error)
	Get(id int) (core.Record, bool)
}

// Engine ranks memories for recall queries.
type Engine struct {
	source Source
	clock  core.Clock
}

// NewEngine creates a recall engine over the given memory source.
func NewEngine(source Source, clock core.Clock) *Engine {
	if clock == nil {
		clock = core.UTCNow
	}
	return &Engine{source: source, clock: clock}
}

// Params describes one recall query.
type Params struct {
	Query   string
	OwnerID string

	// TimeRange hard-filters candidates when non-nil. Mutually exclusive
	// with RecencyMode by construction at the call site.
	TimeRange *core.TimeRange

	// CategoryFilter boosts (never excludes) matching candidates.
	CategoryFilter core.Category

	// RecencyMode answers "when did I last X": filter by raw distance
	// only, then order by (category match, timestamp) descending.
	RecencyMode bool

	// TopK defaults to 3.
	TopK int

	// Threshold defaults to DefaultThreshold.
	Threshold float64
}

// Recall retrieves, filters, scores and orders memories for the query.
func (e *Engine) Recall(ctx context.Context, p Params) ([]core.RecallMatch, error) {
	topK := p.TopK
	if topK <= 0 {
		topK = 3
	}
	threshold := p.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	// Fetch a superset so hard filters still leave enough candidates.
	hits, err := e.source.Search(ctx, p.Query, topK*supersetFactor)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}

	now := e.clock()
	var matches []core.RecallMatch
	for _, hit := range hits {
		rec, ok := e.source.Get(hit.ID)
		if !ok {
			continue
		}
		if p.OwnerID != "" && rec.OwnerID != p.OwnerID {
			continue
		}
		if rec.Timestamp.IsZero() {
			continue
		}
		if p.TimeRange != nil && !p.TimeRange.Contains(rec.Timestamp) {
			continue
		}

		score := hit.Distance
		if days := int(now.Sub(rec.Timestamp).Hours() / 24); days > 0 {
			penalty := float64(days) * decayPerDay
			if penalty > maxDecay {
				penalty = maxDecay
			}
			score += penalty
		}

		catMatch := p.CategoryFilter != "" && rec.Category == p.CategoryFilter
		if catMatch {
			score -= categoryBoost
		}

		if p.RecencyMode {
			// Recency mode gates on raw distance only; an old memory
			// must not be filtered out for being old.
			if hit.Distance > threshold+RecencySlack {
				continue
			}
		} else if score > threshold {
			continue
		}

		matches = append(matches, core.RecallMatch{
			Record:        rec,
			Score:         score,
			RawDistance:   hit.Distance,
			CategoryMatch: catMatch,
		})
	}

	if p.RecencyMode {
		// Category-matching memories outrank everything else regardless
		// of age; within each group the newest wins.
		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].CategoryMatch != matches[j].CategoryMatch {
				return matches[i].CategoryMatch
			}
			return matches[i].Record.Timestamp.After(matches[j].Record.Timestamp)
		})
	} else {
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Score < matches[j].Score
		})
	}

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}
