package webui

import (
	"fmt"
	"html/template"
)

type templator struct {
	cfg  *Config
	tmpl map[string]*template.Template
}

func newTemplator(cfg *Config) *templator {
	return &templator{
		cfg:  cfg,
		tmpl: make(map[string]*template.Template),
	}
}

func (t *templator) makeFuncs() template.FuncMap {
	return template.FuncMap{
		"asURL": func(s string) string {
			return t.cfg.prefix + s
		},
		"asStaticURL": func(s string) string {
			return t.cfg.prefix + s + "?" + t.cfg.ServerID
		},
	}
}

// Get parses base.html, the shared parts and the page template named by key.
// An empty key yields a bare base-and-parts template, used by handlers that
// render fragments or only ever redirect.
func (t *templator) Get(key string) (*template.Template, error) {
	if tmpl, ok := t.tmpl[key]; ok {
		return tmpl, nil
	}
	files := []string{"template/base.html", "template/part/*.html"}
	if key != "" {
		files = append(files, fmt.Sprintf("template/%v.html", key))
	}
	tmpl, err := template.New("base.html").Funcs(t.makeFuncs()).ParseFS(templates, files...)
	if err != nil {
		return nil, fmt.Errorf("template %v parse: %w", key, err)
	}
	t.tmpl[key] = tmpl
	return tmpl, nil
}
