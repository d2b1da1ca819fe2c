// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge interleaves the CrossRef and arXiv result lists into one
// ranked candidate list.
//
// The CrossRef list arrives pre-sorted by relevance descending, possibly
// with unscored DOI-direct hits at its head; the arXiv list carries no
// comparable scores. The merger builds a short curated prefix: it walks
// CrossRef scores looking for the sharpest relevance drop within the
// first few items and splices a handful of arXiv results in at that
// point. Everything after the prefix is interleaved by weighted random
// draw until both lists are exhausted.
package merge

import (
	"math"
	"math/rand"

	"github.com/pdiddy/paperdock/pkg/types"
)

// Tuning constants, kept from the original heuristic. Provisional values:
// nobody has measured them against alternatives.
var (
	// PrefixCap is how many CrossRef items the curated prefix collects
	// before drop analysis.
	PrefixCap = 8

	// SpliceCount is how many arXiv results get spliced into the prefix.
	SpliceCount = 5

	// Weights bias the remainder interleave: CrossRef first, arXiv
	// second. The arXiv bias reflects CrossRef's precision asymmetry on
	// non-quoted queries.
	Weights = []float64{0.4, 0.6}

	// Seed fixes the remainder shuffle for reproducibility.
	Seed int64 = 42
)

// Merge combines the two lists. Every input element appears exactly once
// in the output. arxivSeeded marks a query that itself contained arXiv
// IDs: those results are exact matches and go first wholesale.
func Merge(arxivSeeded bool, crossref, arxiv []types.SearchResult) []types.SearchResult {
	var prefix []types.SearchResult
	var ratios []float64
	runningMax := -1.0
	previous := 0.0

	crossrefPtr := 0
	arxivPtr := 0

	if arxivSeeded {
		prefix = append(prefix, arxiv...)
		arxivPtr = len(arxiv)
	}

	for _, result := range crossref {
		prefix = append(prefix, result)
		crossrefPtr++

		runningMax = math.Max(runningMax, result.RelevanceScore)
		ratios = append(ratios, (result.RelevanceScore-previous)/runningMax)
		previous = result.RelevanceScore

		if crossrefPtr >= PrefixCap {
			break
		}
	}

	// Splice arXiv suggestions where CrossRef relevance falls off its
	// cliff. With a single ratio there is no drop to analyze, so the
	// insertion point defaults to the end of the prefix.
	insertAt := len(prefix)
	if len(ratios) > 1 {
		steepest := 1
		for i := 2; i < len(ratios); i++ {
			if ratios[i] < ratios[steepest] {
				steepest = i
			}
		}
		insertAt = min(steepest+2, len(prefix))
	}

	spliceEnd := min(arxivPtr+SpliceCount, len(arxiv))
	splice := arxiv[arxivPtr:spliceEnd]
	arxivPtr = spliceEnd

	merged := make([]types.SearchResult, 0, len(crossref)+len(arxiv))
	merged = append(merged, prefix[:insertAt]...)
	merged = append(merged, splice...)
	merged = append(merged, prefix[insertAt:]...)

	rng := rand.New(rand.NewSource(Seed))
	return append(merged, randomChain(rng, Weights, crossref[crossrefPtr:], arxiv[arxivPtr:])...)
}

// randomChain drains the sources in weighted random order. An exhausted
// source leaves the draw; the survivor serves its remainder in order.
func randomChain(rng *rand.Rand, weights []float64, sources ...[]types.SearchResult) []types.SearchResult {
	live := make([][]types.SearchResult, 0, len(sources))
	liveWeights := make([]float64, 0, len(sources))
	total := 0
	for i, src := range sources {
		total += len(src)
		if len(src) > 0 {
			live = append(live, src)
			liveWeights = append(liveWeights, weights[i])
		}
	}

	out := make([]types.SearchResult, 0, total)
	for len(live) > 0 {
		idx := weightedDraw(rng, liveWeights)
		out = append(out, live[idx][0])
		live[idx] = live[idx][1:]

		if len(live[idx]) == 0 {
			live = append(live[:idx], live[idx+1:]...)
			liveWeights = append(liveWeights[:idx], liveWeights[idx+1:]...)
		}
	}
	return out
}

func weightedDraw(rng *rand.Rand, weights []float64) int {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	r := rng.Float64() * sum
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}
