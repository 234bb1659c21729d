package recall

import (
	"github.com/hearthside/keeper/core"
)

// Confidence constants. A match scores well when its distance is small, so
// a top score *above* the confidence threshold means the best candidate is
// still a poor answer.
const (
	// HighConfidence separates a strong top match from a merely
	// acceptable one.
	HighConfidence = 0.9

	// ConfidenceThreshold is the score past which the top result is not
	// worth reporting at all.
	ConfidenceThreshold = 1.2

	// RecencyConfidenceThreshold replaces ConfidenceThreshold in recency
	// mode, where decay was deliberately excluded from filtering and
	// looser matches are expected.
	RecencyConfidenceThreshold = 1.6

	// AmbiguityMargin is how close two top scores must be before the
	// assistant should ask which memory was meant.
	AmbiguityMargin = 0.1
)

// ClassifyConfidence buckets a ranked result set into an uncertainty level
// and returns the subset of matches worth presenting.
//
// "Low" uncertainty covers both ends: an empty result set (nothing to be
// uncertain about; the caller should offer to record a new memory) and a
// top score beyond the threshold (report nothing rather than a bad match).
// The classifier does not decide whether to request explicit confirmation;
// that is caller policy layered on the category.
func ClassifyConfidence(matches []core.RecallMatch, recencyMode bool) (core.Uncertainty, []core.RecallMatch) {
	if len(matches) == 0 {
		return core.UncertaintyLow, nil
	}

	threshold := float64(ConfidenceThreshold)
	if recencyMode {
		threshold = RecencyConfidenceThreshold
	}

	top := matches[0]
	if top.Score > threshold {
		return core.UncertaintyLow, nil
	}

	if len(matches) > 1 && !recencyMode {
		second := matches[1]
		if diff := second.Score - top.Score; diff < AmbiguityMargin && diff > -AmbiguityMargin {
			return core.UncertaintyAmbiguous, []core.RecallMatch{top, second}
		}
	}

	primary := []core.RecallMatch{top}
	if top.Score < HighConfidence {
		return core.UncertaintyHigh, primary
	}
	return core.UncertaintyMedium, primary
}
