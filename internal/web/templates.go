package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"reflect"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"index.html",
	"db.html",
	"emissions.html",
	"aggregation.html",
	"visual.html",
	"radarchart.html",
	"emission_detail.html",
}

var pages = parsePages()

func parsePages() map[string]*template.Template {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		// deref prints the value behind an optional (pointer) field.
		"deref": func(v any) any {
			rv := reflect.ValueOf(v)
			if rv.Kind() == reflect.Pointer {
				if rv.IsNil() {
					return ""
				}
				return rv.Elem().Interface()
			}
			return v
		},
		// json embeds a Go slice as a JS literal for the chart pages.
		"json": func(v any) (template.JS, error) {
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return template.JS(encoded), nil
		},
	}

	parsed := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		parsed[name] = template.Must(template.New("layout.html").
			Funcs(funcMap).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return parsed
}

func renderPage(w io.Writer, name string, data any) error {
	page, ok := pages[name]
	if !ok {
		return fmt.Errorf("unknown page template %s", name)
	}
	if err := page.ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}
