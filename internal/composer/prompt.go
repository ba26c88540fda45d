// Package composer renders the chat prompt handed to generation: optional
// system instructions followed by a single user message embedding the
// retrieved context and the question.
package composer

import (
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/chatta-ai/chatta/internal/model"
)

// chatTemplate is the user-message body. The context section appears only
// when retrieval produced something; the fallback instruction is part of
// the prompt itself, not a system message.
const chatTemplate = `
If you are not sure about the answer or do not have enough information, please answer "i don't know."

## Context Information
{{if .RetrieverInfo}}
Retriever's Information:
{{.RetrieverInfo}}
{{end}}
## Question and Answer

Question: {{.Question}}

Answer:
`

// Composer builds prompts from retrieved context, the user question and
// optional system instructions.
type Composer struct {
	tmpl   *template.Template
	logger *slog.Logger
}

// New creates a Composer. logger may be nil.
func New(logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		tmpl:   template.Must(template.New("chat").Parse(chatTemplate)),
		logger: logger,
	}
}

// Generate renders the prompt message sequence: one system message per
// non-blank instruction, in order, then exactly one user message with the
// rendered template. Blank instructions are skipped with a warning rather
// than producing empty system messages.
func (c *Composer) Generate(retrieval, question string, instructions ...string) ([]model.Message, error) {
	var messages []model.Message
	for _, instruction := range instructions {
		if strings.TrimSpace(instruction) == "" {
			c.logger.Warn("skipping blank instruction")
			continue
		}
		messages = append(messages, model.Message{Role: model.RoleSystem, Content: instruction})
	}

	var sb strings.Builder
	err := c.tmpl.Execute(&sb, struct {
		RetrieverInfo string
		Question      string
	}{RetrieverInfo: retrieval, Question: question})
	if err != nil {
		return nil, fmt.Errorf("rendering chat template: %w", err)
	}

	messages = append(messages, model.Message{Role: model.RoleUser, Content: sb.String()})
	return messages, nil
}
