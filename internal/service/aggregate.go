package service

import (
	"math"
	"sort"

	"crowddeck/internal/model"
)

const defaultTopWords = 25

// Pure reducers turning raw submission sets into result summaries. All of
// them are commutative over their input, so submission order never changes
// the outcome.

// reduceChoice histograms option indices for poll and quiz_choice questions.
func reduceChoice(responses []*model.Response, optionCount int) *model.ChoiceResult {
	result := &model.ChoiceResult{Counts: make([]int, optionCount)}
	for _, r := range responses {
		if r.Payload.OptionIndex == nil {
			continue
		}
		idx := *r.Payload.OptionIndex
		if idx < 0 || idx >= optionCount {
			continue
		}
		result.Counts[idx]++
		result.Total++
	}
	return result
}

// reduceScale summarizes numeric responses.
func reduceScale(responses []*model.Response) *model.ScaleResult {
	result := &model.ScaleResult{}
	sum := 0
	for _, r := range responses {
		if r.Payload.Value == nil {
			continue
		}
		v := *r.Payload.Value
		if result.Count == 0 {
			result.Min, result.Max = v, v
		} else {
			result.Min = min(result.Min, v)
			result.Max = max(result.Max, v)
		}
		sum += v
		result.Count++
	}
	if result.Count > 0 {
		result.Average = float64(sum) / float64(result.Count)
	}
	return result
}

// reduceNPS partitions 0-10 ratings into promoters (>=9), passives (7-8)
// and detractors (<=6).
func reduceNPS(responses []*model.Response) *model.NPSResult {
	result := &model.NPSResult{ScaleResult: *reduceScale(responses)}
	for _, r := range responses {
		if r.Payload.Value == nil {
			continue
		}
		switch v := *r.Payload.Value; {
		case v >= 9:
			result.Promoters++
		case v >= 7:
			result.Passives++
		default:
			result.Detractors++
		}
	}
	if result.Count > 0 {
		result.Score = int(math.Round(float64(result.Promoters-result.Detractors) / float64(result.Count) * 100))
	}
	return result
}

// reduceRanking averages the rank position per option index across all
// submitted orderings. Lower is better.
func reduceRanking(responses []*model.Response, optionCount int) *model.RankingResult {
	sums := make([]int, optionCount)
	counted := 0
	for _, r := range responses {
		if len(r.Payload.Ranking) != optionCount {
			continue
		}
		for position, optionIdx := range r.Payload.Ranking {
			if optionIdx < 0 || optionIdx >= optionCount {
				continue
			}
			sums[optionIdx] += position + 1
		}
		counted++
	}

	result := &model.RankingResult{
		AverageRanks: make([]float64, optionCount),
		Total:        counted,
	}
	if counted > 0 {
		for i, sum := range sums {
			result.AverageRanks[i] = float64(sum) / float64(counted)
		}
	}
	return result
}

// reduceWords histograms normalized words and returns the top N by
// frequency, ties broken alphabetically for a stable result.
func reduceWords(words []*model.WordSubmission, topN int) []model.WordCount {
	histogram := make(map[string]int)
	for _, w := range words {
		if w.Normalized == "" {
			continue
		}
		histogram[w.Normalized]++
	}

	counts := make([]model.WordCount, 0, len(histogram))
	for word, count := range histogram {
		counts = append(counts, model.WordCount{Word: word, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Word < counts[j].Word
	})

	if topN > 0 && len(counts) > topN {
		counts = counts[:topN]
	}
	return counts
}

// reduceIdeas maps stored ideas (already ordered by votes desc, time asc)
// to result rows.
func reduceIdeas(ideas []*model.BrainstormIdea) []model.IdeaResult {
	results := make([]model.IdeaResult, len(ideas))
	for i, idea := range ideas {
		results[i] = model.IdeaResult{
			ID:          idea.ID,
			Text:        idea.Text,
			Votes:       idea.VoteCount,
			SubmittedAt: idea.SubmittedAt,
		}
	}
	return results
}
