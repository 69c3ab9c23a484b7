// Package view renders the subject and body of emails from text templates.
package view

import (
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/template"

	"github.com/willemschots/emailauth/internal/email"
)

// elements every view must define as a template block.
var elements = []email.TemplateElement{email.ElementSubject, email.ElementBody}

// MemRenderer renders email views that were parsed ahead of time.
// It is safe for concurrent use.
type MemRenderer struct {
	views map[string]*template.Template
}

// NewMemRenderer parses all the <name>.tmpl views in the root of viewFS and
// keeps them in memory. Every view needs a subject and a body block, and
// every name in required needs a view.
func NewMemRenderer(viewFS fs.FS, required ...string) (*MemRenderer, error) {
	files, err := fs.Glob(viewFS, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to glob for email views: %w", err)
	}

	views := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(file, ".tmpl")

		tmpl, err := template.New(name).ParseFS(viewFS, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse email view %q: %w", name, err)
		}

		for _, el := range elements {
			if tmpl.Lookup(string(el)) == nil {
				return nil, fmt.Errorf("email view %q has no %s block", name, el)
			}
		}

		views[name] = tmpl
	}

	for _, name := range required {
		if _, ok := views[name]; !ok {
			return nil, fmt.Errorf("email view %q not found", name)
		}
	}

	return &MemRenderer{
		views: views,
	}, nil
}

// Render renders element of the named view to w.
func (r *MemRenderer) Render(w io.Writer, name string, element email.TemplateElement, data any) error {
	tmpl, ok := r.views[name]
	if !ok {
		return fmt.Errorf("email view %q not found", name)
	}

	return tmpl.ExecuteTemplate(w, string(element), data)
}
