package templates

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed views/*.html
var viewTemplates embed.FS

// LoadViews parses the embedded HTML views with funcs available to every template
func LoadViews(funcs template.FuncMap) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(viewTemplates, "views/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse views: %w", err)
	}
	return tmpl, nil
}
