package srs

import (
	"math"

	"github.com/mnemolabs/mnemo-api/internal/domain"
)

// initialStability returns the stability assigned by the first review
// of a card, taken directly from the weight vector.
func initialStability(rating domain.Rating, params *Params) float64 {
	return params.W[int(rating)-1]
}

// nextDifficulty computes the post-review difficulty.
//
// The raw step is linear in the rating's distance from Good
// (delta = rating - 3, so Again pushes difficulty up by two steps and
// Easy pulls it down by one), then mean reversion toward the baseline
// keeps repeated extreme ratings from pinning the value. The result is
// clamped to [1, 10].
func nextDifficulty(difficulty float64, rating domain.Rating, params *Params) float64 {
	delta := float64(int(rating) - 3)
	next := difficulty + params.W[8]*delta

	// Mean reversion toward the initial difficulty.
	next = params.W[10]*domain.InitialDifficulty + (1-params.W[10])*next

	return clamp(next, 1, 10)
}

// forgettingCurve computes retrievability, the probability of recall
// after elapsedDays given the card's stability. Stability is defined
// as the number of days until recall probability decays to the target
// retention, which gives the exponential form below. A card with zero
// stability has never been reviewed and is treated as fully
// retrievable.
func forgettingCurve(stability, elapsedDays float64) float64 {
	if stability == 0 {
		return 1.0
	}
	return math.Exp(math.Log(0.9) * elapsedDays / stability)
}

// nextStability computes the post-review stability.
//
// A first review uses the rating's initial stability. Otherwise the
// growth law is multiplicative in the current stability, modulated by
// difficulty and by how far the memory had decayed at review time:
// the Again branch penalizes proportionally to (difficulty - 5) while
// the success branches reward proportionally to (11 - difficulty), so
// hard cards grow slower and shrink faster. The result is clamped to
// [0.1, MaximumInterval].
func nextStability(
	currentStability, difficulty float64,
	rating domain.Rating,
	elapsedDays float64,
	params *Params,
) float64 {
	if currentStability == 0 {
		return initialStability(rating, params)
	}

	retrievability := forgettingCurve(currentStability, elapsedDays)

	var next float64
	switch rating {
	case domain.RatingAgain:
		next = currentStability * math.Exp(params.W[4]*(difficulty-5)*params.W[12])
	case domain.RatingHard:
		next = currentStability * (1 + math.Exp(params.W[5])*
			(difficulty-5)*
			params.W[13]*
			(1-retrievability))
	case domain.RatingGood:
		next = currentStability * (1 + math.Exp(params.W[6])*
			(11-difficulty)*
			params.W[14]*
			(1-retrievability))
	default: // Easy
		next = currentStability * (1 + math.Exp(params.W[7])*
			(11-difficulty)*
			params.W[15]*
			(1-retrievability))
	}

	return clamp(next, 0.1, params.MaximumInterval)
}

// intervalFromStability converts a stability into the next review
// interval in days, floored at one day.
func intervalFromStability(stability float64, params *Params) float64 {
	return math.Max(1.0, stability*params.factor)
}

// nextState implements the card lifecycle transition table. Again
// keeps a card in (or demotes it to) a learning state; any successful
// rating promotes to Review. New is never re-entered.
func nextState(current domain.CardState, rating domain.Rating) domain.CardState {
	if rating == domain.RatingAgain {
		switch current {
		case domain.CardStateNew, domain.CardStateLearning:
			return domain.CardStateLearning
		default: // Review, Relearning
			return domain.CardStateRelearning
		}
	}
	return domain.CardStateReview
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
