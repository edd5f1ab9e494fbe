package domain

import "fmt"

// CardState is the lifecycle state of a card's memory. It forms a
// closed enumeration so the scheduler's transition table can be
// exhaustiveness-checked by the compiler rather than relying on
// loosely typed string values.
type CardState int

// Card lifecycle states.
const (
	CardStateNew        CardState = iota // never reviewed
	CardStateLearning                    // initial learning phase
	CardStateReview                      // stable memory, in review rotation
	CardStateRelearning                  // forgotten, relearning
)

// Valid reports whether the state is one of the four defined values.
func (s CardState) Valid() bool {
	switch s {
	case CardStateNew, CardStateLearning, CardStateReview, CardStateRelearning:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer. The string forms are the storage
// representation of the state.
func (s CardState) String() string {
	switch s {
	case CardStateNew:
		return "new"
	case CardStateLearning:
		return "learning"
	case CardStateReview:
		return "review"
	case CardStateRelearning:
		return "relearning"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseCardState converts a stored string form back into a CardState.
func ParseCardState(v string) (CardState, error) {
	switch v {
	case "new":
		return CardStateNew, nil
	case "learning":
		return CardStateLearning, nil
	case "review":
		return CardStateReview, nil
	case "relearning":
		return CardStateRelearning, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCardState, v)
	}
}
