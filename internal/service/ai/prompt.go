package ai

import (
	"fmt"
	"strings"

	"github.com/radoslav1992/ai-help-center/internal/i18n"
	"github.com/radoslav1992/ai-help-center/internal/model/catalog"
)

// PromptTemplate is the skeleton of the help-center assistant's system prompt.
type PromptTemplate struct {
	Agency string
	Intro  string
	Rules  []string
}

// DefaultPromptTemplate returns the built-in help-center prompt.
func DefaultPromptTemplate(agency string) PromptTemplate {
	if strings.TrimSpace(agency) == "" {
		agency = "our agency"
	}
	return PromptTemplate{
		Agency: agency,
		Intro: "You are the website assistant of %s, a small consulting agency that builds " +
			"AI-powered products for businesses. You answer questions from site visitors.",
		Rules: []string{
			"Reply in the language the visitor writes in; the site supports English and Bulgarian.",
			"Answer in plain text without markdown, in a few short paragraphs at most.",
			"Only describe services listed below; do not invent prices or delivery dates.",
			"When a visitor wants a quote or a call, point them to the contact form on the site.",
			"If you do not know the answer, say so and suggest the contact form.",
		},
	}
}

// Build renders the prompt with the offerings described in English.
func (t PromptTemplate) Build(offerings []catalog.Offering) string {
	var b strings.Builder
	fmt.Fprintf(&b, t.Intro, t.Agency)

	if len(offerings) > 0 {
		b.WriteString("\n\nServices:")
		for _, item := range offerings {
			loc := item.In(i18n.English)
			fmt.Fprintf(&b, "\n- %s: %s", loc.Title, loc.Description)
		}
	}

	if len(t.Rules) > 0 {
		b.WriteString("\n\nRules:")
		for _, rule := range t.Rules {
			b.WriteString("\n- ")
			b.WriteString(rule)
		}
	}
	return b.String()
}
