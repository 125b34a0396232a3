package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func matchesOf(texts ...string) []SimilarityMatch {
	out := make([]SimilarityMatch, len(texts))
	for i, text := range texts {
		out[i] = SimilarityMatch{Transcription: text, Similarity: 0.9 - float64(i)*0.05}
	}
	return out
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name    string
		matches []SimilarityMatch
		want    ContextBlock
	}{
		{name: "nil matches", matches: nil, want: ""},
		{name: "empty matches", matches: []SimilarityMatch{}, want: ""},
		{name: "single match", matches: matchesOf("recursão chama a si mesma"), want: "recursão chama a si mesma"},
		{
			name:    "keeps order with blank line separator",
			matches: matchesOf("primeiro", "segundo", "terceiro"),
			want:    "primeiro\n\nsegundo\n\nterceiro",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Assemble(tt.matches))
		})
	}
}

func TestAssemble_EmptyBlockIsEmpty(t *testing.T) {
	assert.True(t, Assemble(nil).IsEmpty())
	assert.True(t, ContextBlock(" \n\t").IsEmpty())
	assert.False(t, Assemble(matchesOf("x")).IsEmpty())
}

func TestAssembleWithBudget(t *testing.T) {
	matches := matchesOf("um dois tres", "quatro cinco", "seis sete oito nove")

	tests := []struct {
		name      string
		counter   TokenCounter
		maxTokens int
		want      ContextBlock
	}{
		{name: "no budget", counter: wordCounter{}, maxTokens: 0, want: "um dois tres\n\nquatro cinco\n\nseis sete oito nove"},
		{name: "nil counter", counter: nil, maxTokens: 1, want: "um dois tres\n\nquatro cinco\n\nseis sete oito nove"},
		{name: "fits two", counter: wordCounter{}, maxTokens: 5, want: "um dois tres\n\nquatro cinco"},
		{name: "fits all", counter: wordCounter{}, maxTokens: 9, want: "um dois tres\n\nquatro cinco\n\nseis sete oito nove"},
		{name: "first match always kept", counter: wordCounter{}, maxTokens: 1, want: "um dois tres"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssembleWithBudget(matches, tt.counter, tt.maxTokens))
		})
	}
}

func TestAssembler_NilUsesPlainAssemble(t *testing.T) {
	var a *Assembler
	assert.Equal(t, ContextBlock("a\n\nb"), a.Assemble(matchesOf("a", "b")))

	budgeted := NewAssembler(wordCounter{}, 1)
	assert.Equal(t, ContextBlock("a"), budgeted.Assemble(matchesOf("a", "b")))
}

func TestTiktokenCounter(t *testing.T) {
	counter, err := NewTiktokenCounter()
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}

	assert.Equal(t, 0, counter.CountTokens(""))
	assert.Greater(t, counter.CountTokens("What is a closure?"), 0)

	var nilCounter *TiktokenCounter
	assert.Equal(t, 0, nilCounter.CountTokens("anything"))
}
