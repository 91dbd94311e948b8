package export

import (
	"bytes"
	"embed"
	"html/template"
)

// SafeHTML is a template function that marks a string as safe HTML
func SafeHTML(s interface{}) template.HTML {
	switch v := s.(type) {
	case string:
		return template.HTML(v)
	case template.HTML:
		return v
	default:
		return template.HTML("")
	}
}

//go:embed templates/*.html
var templateFS embed.FS

var documentTemplate = template.Must(
	template.New("document.html").
		Funcs(template.FuncMap{"safeHTML": SafeHTML}).
		ParseFS(templateFS, "templates/document.html"),
)

// TemplateData holds data for document template rendering
type TemplateData struct {
	Title       string
	FontFamily  string
	FontSize    int
	LineHeight  string
	Margin      string // inches
	ContentHTML template.HTML
	Footnotes   []TemplateFootnote
}

// TemplateFootnote is one entry of the trailing footnotes section.
type TemplateFootnote struct {
	Number int
	Text   string
}

// RenderDocumentHTML renders the document template with provided data
func RenderDocumentHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
