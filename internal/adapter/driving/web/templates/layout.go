// Package templates holds the page chrome shared by every page.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Layout wraps body in the HTML document shell.
func Layout(title string, stylesheets, scripts []string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`+
			templ.EscapeString(title)+`</title>`); err != nil {
			return err
		}

		for _, href := range stylesheets {
			if _, err := io.WriteString(w, `<link rel="stylesheet" href="`+templ.EscapeString(href)+`">`); err != nil {
				return err
			}
		}

		if _, err := io.WriteString(w, `</head><body><main class="container">`); err != nil {
			return err
		}

		if err := body.Render(ctx, w); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `</main>`); err != nil {
			return err
		}

		for _, src := range scripts {
			if _, err := io.WriteString(w, `<script src="`+templ.EscapeString(src)+`" defer></script>`); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}
