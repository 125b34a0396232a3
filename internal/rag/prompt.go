package rag

import (
	"fmt"
	"strings"
)

// DefaultAnswerLanguage is the language answers are requested in
const DefaultAnswerLanguage = "português do Brasil"

// TemplateKind identifies which prompt variant was built
type TemplateKind int

const (
	// TemplateContextFree answers from general knowledge only
	TemplateContextFree TemplateKind = iota
	// TemplateContextAware grounds the answer on retrieved transcript context
	TemplateContextAware
)

// String returns the template name used in logs and metrics
func (k TemplateKind) String() string {
	switch k {
	case TemplateContextAware:
		return "context_aware"
	default:
		return "context_free"
	}
}

// SelectTemplate picks the context-aware template iff the trimmed block is non-empty
func SelectTemplate(block ContextBlock) TemplateKind {
	if block.IsEmpty() {
		return TemplateContextFree
	}
	return TemplateContextAware
}

// PromptBuilder renders the question prompts in a fixed answer language
type PromptBuilder struct {
	language string
}

// NewPromptBuilder creates a builder. An empty language falls back to DefaultAnswerLanguage.
func NewPromptBuilder(language string) *PromptBuilder {
	if strings.TrimSpace(language) == "" {
		language = DefaultAnswerLanguage
	}
	return &PromptBuilder{language: language}
}

// Build renders the prompt for question and reports which template it used
func (p *PromptBuilder) Build(question string, block ContextBlock) (string, TemplateKind) {
	kind := SelectTemplate(block)
	if kind == TemplateContextAware {
		return p.contextAware(question, string(block)), kind
	}
	return p.contextFree(question), kind
}

func (p *PromptBuilder) contextAware(question, context string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Você é um assistente especialista. Use o contexto abaixo para responder à pergunta de forma clara, precisa e em %s.\n\n", p.language)
	b.WriteString("CONTEXTO:\n")
	b.WriteString(context)
	b.WriteString("\n\nPERGUNTA:\n")
	b.WriteString(question)
	b.WriteString("\n\nINSTRUÇÕES:\n")
	b.WriteString("- Utilize o contexto acima quando possível;\n")
	b.WriteString("- Se o contexto não contiver a resposta, responda com base no seu conhecimento;\n")
	b.WriteString("- Seja didático, direto e mantenha um tom profissional.")
	return b.String()
}

func (p *PromptBuilder) contextFree(question string) string {
	var b strings.Builder
	b.WriteString("Você é um assistente especialista em tecnologia e programação.\n")
	fmt.Fprintf(&b, "Responda à pergunta abaixo de forma clara, didática e correta em %s.\n\n", p.language)
	b.WriteString("PERGUNTA:\n")
	b.WriteString(question)
	b.WriteString("\n\nINSTRUÇÕES:\n")
	b.WriteString("- Seja direto e objetivo;\n")
	b.WriteString("- Evite respostas vagas como \"não há informações suficientes\", a não ser que realmente não seja possível responder;\n")
	b.WriteString("- Se possível, dê um exemplo curto ou analogia.")
	return b.String()
}
