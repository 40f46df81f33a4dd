package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplates(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	layout := `{{define "base"}}<html><body>{{template "content" .}}</body></html>{{end}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.layout.html"), []byte(layout), 0o644))

	require.NoError(t, os.Mkdir(filepath.Join(dir, "posts"), 0o755))
	page := `{{define "content"}}<h1>{{cap .Title}}</h1>{{end}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts", "index.html"), []byte(page), 0o644))

	return dir
}

func TestTemplateRenderer_Render(t *testing.T) {
	r, err := NewTemplateRenderer(writeTemplates(t))
	require.NoError(t, err)

	body, err := r.Render("posts/index.html", Map{"Title": "latest posts"})
	require.NoError(t, err)
	assert.Equal(t, "<html><body><h1>Latest posts</h1></body></html>", string(body))
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	r, err := NewTemplateRenderer(writeTemplates(t))
	require.NoError(t, err)

	_, err = r.Render("posts/missing.html", nil)
	assert.Error(t, err)
}

func TestTemplateRenderer_EmptyDir(t *testing.T) {
	_, err := NewTemplateRenderer(t.TempDir())
	assert.Error(t, err)
}
