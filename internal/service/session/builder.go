package session

import (
	"math/rand"

	"github.com/mnemolabs/mnemo-api/internal/domain"
)

// BuildQueue orders due cards into a practice queue of at most
// targetCount cards.
//
// Interleaved mode alternates topics: cards are grouped by topic with
// their due order preserved, then drawn round-robin over the topics in
// first-seen order, skipping topics that run out. A light shuffle of
// adjacent swaps breaks the strict rotation so the pattern is not
// mechanically predictable, while each card stays near its round-robin
// position. With a single topic there is nothing to alternate, so the
// targetCount most overdue cards are kept and shuffled instead.
//
// Non-interleaved mode takes the targetCount most overdue cards and
// shuffles them.
//
// The function never mutates its input slice and is deterministic for
// a given rng state, which is how session construction stays
// reproducible under a fixed seed.
func BuildQueue(
	cards []*domain.Card,
	targetCount int,
	interleaved bool,
	rng *rand.Rand,
) []*domain.Card {
	if len(cards) == 0 {
		return nil
	}
	if targetCount <= 0 || targetCount > len(cards) {
		targetCount = len(cards)
	}

	if !interleaved {
		queue := make([]*domain.Card, targetCount)
		copy(queue, cards[:targetCount])
		rng.Shuffle(len(queue), func(i, j int) {
			queue[i], queue[j] = queue[j], queue[i]
		})
		return queue
	}

	byTopic := make(map[string][]*domain.Card)
	var topics []string
	for _, card := range cards {
		if _, seen := byTopic[card.Topic]; !seen {
			topics = append(topics, card.Topic)
		}
		byTopic[card.Topic] = append(byTopic[card.Topic], card)
	}

	// A lone topic has nothing to alternate with. Keep the most
	// overdue cards, then shuffle just those so selection stays
	// consistent with the multi-topic path.
	if len(topics) == 1 {
		queue := make([]*domain.Card, targetCount)
		copy(queue, cards[:targetCount])
		rng.Shuffle(len(queue), func(i, j int) {
			queue[i], queue[j] = queue[j], queue[i]
		})
		return queue
	}

	queue := make([]*domain.Card, 0, targetCount)
	next := make(map[string]int, len(topics))
	for len(queue) < targetCount {
		drawn := false
		for _, topic := range topics {
			if len(queue) == targetCount {
				break
			}
			i := next[topic]
			if i >= len(byTopic[topic]) {
				continue
			}
			queue = append(queue, byTopic[topic][i])
			next[topic] = i + 1
			drawn = true
		}
		if !drawn {
			break
		}
	}

	lightShuffle(queue, rng)
	return queue
}

// lightShuffle performs a small number of adjacent swaps, proportional
// to queue length with a floor of one.
func lightShuffle(queue []*domain.Card, rng *rand.Rand) {
	if len(queue) < 2 {
		return
	}
	swaps := len(queue) / 10
	if swaps < 1 {
		swaps = 1
	}
	for s := 0; s < swaps; s++ {
		i := rng.Intn(len(queue) - 1)
		queue[i], queue[i+1] = queue[i+1], queue[i]
	}
}
