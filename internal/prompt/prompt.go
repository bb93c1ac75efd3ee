// Package prompt assembles extraction requests from an order email and the
// rendered pages of its PDF attachment.
//
// The system prompt encodes DIN 5008 business-letter layout rules and the
// semantics of every extraction field. The output schema travels with the
// request as a protocol-level structured-output constraint, never as
// free-form instruction text.
package prompt

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/orderlens/orderlens/internal/extract"
	"github.com/orderlens/orderlens/internal/render"
	"github.com/orderlens/orderlens/internal/schema"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// SystemPrompt returns the DIN 5008 extraction system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user message wrapping the email text.
func UserPrompt(email string) string {
	var buf bytes.Buffer
	data := struct{ Email string }{Email: email}
	if err := userTemplate.Execute(&buf, data); err != nil {
		return userPromptTmpl
	}
	return buf.String()
}

// Build assembles the complete extraction request: system instruction, user
// message with the email text, page images in page order, and the strict
// output schema. Build is pure; it never touches the network.
func Build(email string, pages []render.PageImage) *extract.Request {
	return &extract.Request{
		System:     SystemPrompt(),
		User:       UserPrompt(email),
		Images:     pages,
		SchemaName: schema.SchemaName,
		Schema:     schema.SchemaMap(),
	}
}
