// SPDX-License-Identifier: Apache-2.0

package evidence

// Score weights for the 50-10-20-20 rule.
const (
	baseScore          = 50
	digitalBonus       = 10
	highResScanBonus   = 5
	conversionBonus    = 20
	conversionPenalty  = 50
	schemaValidBonus   = 20
	schemaInvalidDelta = 30

	MinScore = 0
	MaxScore = 100
)

// Tier is the presentation label attached to an evidence score.
type Tier string

const (
	TierVerified       Tier = "Tier 1 Verified"
	TierReviewRequired Tier = "Review Required"
)

// TierThreshold is the lowest score reported as Tier 1.
const TierThreshold = 70

// TierFor returns the tier label for a score.
func TierFor(score int) Tier {
	if score >= TierThreshold {
		return TierVerified
	}
	return TierReviewRequired
}

// Score computes the evidence score for a conversion. schemaValid is nil
// when schema validation does not apply.
func Score(quality SourceQuality, conversionSuccess bool, schemaValid *bool) int {
	score := baseScore

	switch quality {
	case QualityDigital:
		score += digitalBonus
	case QualityHighResScan:
		score += highResScanBonus
	}

	if conversionSuccess {
		score += conversionBonus
	} else {
		score -= conversionPenalty
	}

	if schemaValid != nil {
		if *schemaValid {
			score += schemaValidBonus
		} else {
			score -= schemaInvalidDelta
		}
	}

	return Clamp(score)
}

// Clamp bounds a raw score to [MinScore, MaxScore].
func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Bool returns a pointer to b, for use as a schemaValid argument.
func Bool(b bool) *bool {
	return &b
}
