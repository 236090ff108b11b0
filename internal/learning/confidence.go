// Package learning maintains the per-(bot, subordinate, pattern) statistics
// that drive recommendation reprioritization: outcome recording, incremental
// averages, and the confidence model.
package learning

// impactBonusThreshold is the average impact above which confidence gets a
// 10% boost; impactBonus is that multiplier.
const (
	impactBonusThreshold = 0.1
	impactBonus          = 1.1
)

// Confidence maps a sample (total, successes) and its running average impact
// to a score in [0,1]. Sparse evidence is discounted by an asymptotic sample
// factor total/(total+5): 0 at 0 samples, 0.5 at 5, 0.75 at 15, 0.9 at 45.
// The exact arithmetic matters downstream, where scores rank candidates.
func Confidence(total, successes int, avgImpact float64) float64 {
	if total <= 0 {
		return 0
	}
	successRate := float64(successes) / float64(total)
	confidence := successRate * SampleFactor(total)
	if avgImpact > impactBonusThreshold {
		confidence *= impactBonus
		if confidence > 1 {
			confidence = 1
		}
	}
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// SampleFactor is the credibility weighting for a sample of the given size.
func SampleFactor(total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(total) / float64(total+5)
}
