package templates

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_EscapesAndOrdersAssets(t *testing.T) {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>body</p>")
		return err
	})

	var sb strings.Builder
	err := Layout(`Currency <Converter>`, []string{"/vendor/bootstrap.min.css", "/static/css/main.css"}, []string{"/static/js/app.js"}, body).
		Render(context.Background(), &sb)
	require.NoError(t, err)

	html := sb.String()
	assert.Contains(t, html, "<title>Currency &lt;Converter&gt;</title>")
	assert.Contains(t, html, "<p>body</p>")
	assert.Less(t, strings.Index(html, "bootstrap.min.css"), strings.Index(html, "main.css"))
	assert.Contains(t, html, `<script src="/static/js/app.js" defer></script>`)
}
