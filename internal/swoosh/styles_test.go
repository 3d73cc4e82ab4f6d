package swoosh

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swooshui/internal/dom"
)

func TestStylesheetCoversEveryClass(t *testing.T) {
	css := Stylesheet()
	for _, sel := range []string{
		".swooshui-bar {",
		".swooshui-logo {",
		".swooshui-menu {",
		".swooshui-menu-item {",
		".swooshui-menu-item:hover",
		".swooshui-menu-item.active",
		".swooshui-clock {",
	} {
		assert.Contains(t, css, sel)
	}
}

func TestInjectStyles(t *testing.T) {
	doc := dom.NewHTMLDocument()
	require.NoError(t, InjectStyles(doc))

	head, err := doc.Head()
	require.NoError(t, err)
	children := head.Children()
	require.NotEmpty(t, children)

	style := children[len(children)-1]
	assert.Equal(t, "STYLE", style.TagName())
	assert.Equal(t, Stylesheet(), style.TextContent())

	// содержимое style не экранируется
	assert.Contains(t, doc.String(), "font-family: 'San Francisco', 'Segoe UI', Arial, sans-serif;")
}

// Повторный вызов добавляет второй style
func TestInjectStylesTwiceAppendsTwice(t *testing.T) {
	doc := dom.NewHTMLDocument()
	require.NoError(t, InjectStyles(doc))
	require.NoError(t, InjectStyles(doc))

	assert.Equal(t, 2, strings.Count(doc.String(), ".swooshui-bar {"))
}

func TestInjectStylesWithoutHead(t *testing.T) {
	assert.ErrorIs(t, InjectStyles(new(dom.HTMLDocument)), ErrEnvironment)
}
