package prompts

import (
	_ "embed"
	"strings"
	"text/template"
)

// Embedded prompt files

//go:embed document_qa.txt
var documentQA string

var documentQATemplate = template.Must(template.New("document_qa").Parse(documentQA))

// DocumentQA returns the raw document question-answering template.
func DocumentQA() string { return documentQA }

// BuildDocumentQA fills the document question-answering prompt.
func BuildDocumentQA(document, question string) (string, error) {
	var b strings.Builder
	err := documentQATemplate.Execute(&b, struct {
		Document string
		Question string
	}{Document: document, Question: question})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
