package rag

import "strings"

// contextSeparator is the blank line placed between fragments
const contextSeparator = "\n\n"

// TokenCounter counts model tokens in a text
type TokenCounter interface {
	CountTokens(text string) int
}

// Assemble joins the transcriptions of matches in the order given.
// No matches yields an empty block.
func Assemble(matches []SimilarityMatch) ContextBlock {
	if len(matches) == 0 {
		return ""
	}

	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = m.Transcription
	}
	return ContextBlock(strings.Join(parts, contextSeparator))
}

// AssembleWithBudget keeps matches in order while the joined block stays within maxTokens.
// The first match is always kept. maxTokens <= 0 or a nil counter behaves like Assemble.
func AssembleWithBudget(matches []SimilarityMatch, counter TokenCounter, maxTokens int) ContextBlock {
	if maxTokens <= 0 || counter == nil || len(matches) == 0 {
		return Assemble(matches)
	}

	used := counter.CountTokens(matches[0].Transcription)
	kept := 1
	sepTokens := counter.CountTokens(contextSeparator)
	for _, m := range matches[1:] {
		cost := sepTokens + counter.CountTokens(m.Transcription)
		if used+cost > maxTokens {
			break
		}
		used += cost
		kept++
	}
	return Assemble(matches[:kept])
}

// Assembler applies an optional token budget to Assemble
type Assembler struct {
	counter   TokenCounter
	maxTokens int
}

// NewAssembler creates an assembler. A zero budget disables trimming.
func NewAssembler(counter TokenCounter, maxTokens int) *Assembler {
	return &Assembler{counter: counter, maxTokens: maxTokens}
}

// Assemble builds the context block for matches
func (a *Assembler) Assemble(matches []SimilarityMatch) ContextBlock {
	if a == nil {
		return Assemble(matches)
	}
	return AssembleWithBudget(matches, a.counter, a.maxTokens)
}
