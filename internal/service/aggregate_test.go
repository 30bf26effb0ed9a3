package service

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"crowddeck/internal/model"
)

func intp(v int) *int { return &v }

func choiceResponse(idx int) *model.Response {
	return &model.Response{Payload: model.ResponsePayload{Kind: model.PayloadChoice, OptionIndex: intp(idx)}}
}

func valueResponse(v int) *model.Response {
	return &model.Response{Payload: model.ResponsePayload{Kind: model.PayloadValue, Value: intp(v)}}
}

func TestReduceChoice(t *testing.T) {
	responses := []*model.Response{
		choiceResponse(0), choiceResponse(2), choiceResponse(0), choiceResponse(1), choiceResponse(0),
	}
	result := reduceChoice(responses, 3)
	if !reflect.DeepEqual(result.Counts, []int{3, 1, 1}) {
		t.Fatalf("unexpected counts: %v", result.Counts)
	}
	if result.Total != 5 {
		t.Fatalf("expected total 5, got %d", result.Total)
	}
}

func TestReduceChoiceIgnoresOutOfRange(t *testing.T) {
	responses := []*model.Response{choiceResponse(0), choiceResponse(7), choiceResponse(-1)}
	result := reduceChoice(responses, 2)
	if result.Total != 1 || result.Counts[0] != 1 {
		t.Fatalf("out-of-range indices should be skipped: %+v", result)
	}
}

func TestReduceChoiceOrderIndependent(t *testing.T) {
	responses := []*model.Response{
		choiceResponse(0), choiceResponse(1), choiceResponse(1), choiceResponse(2), choiceResponse(0),
	}
	want := reduceChoice(responses, 3)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < 10; i++ {
		shuffled := append([]*model.Response(nil), responses...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := reduceChoice(shuffled, 3); !reflect.DeepEqual(got, want) {
			t.Fatalf("result depends on submission order: %+v vs %+v", got, want)
		}
	}
}

func TestReduceScale(t *testing.T) {
	result := reduceScale([]*model.Response{valueResponse(2), valueResponse(8), valueResponse(5)})
	if result.Count != 3 {
		t.Fatalf("expected count 3, got %d", result.Count)
	}
	if result.Min != 2 || result.Max != 8 {
		t.Fatalf("expected min 2 max 8, got %d %d", result.Min, result.Max)
	}
	if result.Average != 5 {
		t.Fatalf("expected average 5, got %v", result.Average)
	}
}

func TestReduceScaleEmpty(t *testing.T) {
	result := reduceScale(nil)
	if result.Count != 0 || result.Average != 0 {
		t.Fatalf("empty input should produce zero result: %+v", result)
	}
}

func TestReduceNPS(t *testing.T) {
	responses := []*model.Response{
		valueResponse(10), valueResponse(9), // promoters
		valueResponse(8), valueResponse(7), // passives
		valueResponse(6), valueResponse(0), // detractors
	}
	result := reduceNPS(responses)
	if result.Promoters != 2 || result.Passives != 2 || result.Detractors != 2 {
		t.Fatalf("unexpected partition: %d/%d/%d", result.Promoters, result.Passives, result.Detractors)
	}
	// (2-2)/6 * 100 = 0
	if result.Score != 0 {
		t.Fatalf("expected NPS 0, got %d", result.Score)
	}
}

func TestReduceNPSAllPromoters(t *testing.T) {
	result := reduceNPS([]*model.Response{valueResponse(9), valueResponse(10)})
	if result.Score != 100 {
		t.Fatalf("expected NPS 100, got %d", result.Score)
	}
}

func TestReduceRanking(t *testing.T) {
	responses := []*model.Response{
		{Payload: model.ResponsePayload{Kind: model.PayloadRanking, Ranking: []int{0, 1, 2}}},
		{Payload: model.ResponsePayload{Kind: model.PayloadRanking, Ranking: []int{2, 1, 0}}},
	}
	result := reduceRanking(responses, 3)
	if result.Total != 2 {
		t.Fatalf("expected 2 counted, got %d", result.Total)
	}
	// Option 0: positions 1 and 3, average 2. Option 1: 2 and 2. Option 2: 3 and 1.
	if !reflect.DeepEqual(result.AverageRanks, []float64{2, 2, 2}) {
		t.Fatalf("unexpected average ranks: %v", result.AverageRanks)
	}
}

func TestReduceRankingSkipsPartialOrderings(t *testing.T) {
	responses := []*model.Response{
		{Payload: model.ResponsePayload{Kind: model.PayloadRanking, Ranking: []int{1, 0}}},
		{Payload: model.ResponsePayload{Kind: model.PayloadRanking, Ranking: []int{0}}},
	}
	result := reduceRanking(responses, 2)
	if result.Total != 1 {
		t.Fatalf("partial ordering should not count: got %d", result.Total)
	}
}

func TestReduceWordsTopNWithTieBreak(t *testing.T) {
	words := []*model.WordSubmission{
		{Normalized: "go"}, {Normalized: "go"}, {Normalized: "go"},
		{Normalized: "rust"}, {Normalized: "rust"},
		{Normalized: "zig"}, {Normalized: "ada"},
		{Normalized: ""},
	}
	counts := reduceWords(words, 3)
	if len(counts) != 3 {
		t.Fatalf("expected top 3, got %d", len(counts))
	}
	if counts[0].Word != "go" || counts[0].Count != 3 {
		t.Fatalf("unexpected leader: %+v", counts[0])
	}
	if counts[1].Word != "rust" {
		t.Fatalf("expected rust second, got %q", counts[1].Word)
	}
	// ada and zig tie at 1; alphabetical order wins.
	if counts[2].Word != "ada" {
		t.Fatalf("expected ada on the tie break, got %q", counts[2].Word)
	}
}

func TestReduceIdeasPreservesOrder(t *testing.T) {
	now := time.Now()
	ideas := []*model.BrainstormIdea{
		{ID: "a", Text: "first", VoteCount: 5, SubmittedAt: now},
		{ID: "b", Text: "second", VoteCount: 2, SubmittedAt: now},
	}
	results := reduceIdeas(ideas)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[0].Votes != 5 {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
}
