package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadAndBody(t *testing.T) {
	d := NewHTMLDocument()

	head, err := d.Head()
	require.NoError(t, err)
	assert.Equal(t, "HEAD", head.TagName())

	body, err := d.Body()
	require.NoError(t, err)
	assert.Equal(t, "BODY", body.TagName())
	assert.Empty(t, body.Children())
}

// Пустой документ
func TestZeroDocumentHasNoMountPoints(t *testing.T) {
	var d HTMLDocument

	_, err := d.Head()
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = d.Body()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, d.Render(&strings.Builder{}), ErrNotFound)
}

func TestCreateElement(t *testing.T) {
	d := NewHTMLDocument()

	tests := []struct {
		name    string
		tag     string
		wantTag string
		wantErr bool
	}{
		{name: "div", tag: "div", wantTag: "DIV"},
		{name: "upper_case", tag: "NAV", wantTag: "NAV"},
		{name: "empty", tag: "", wantErr: true},
		{name: "markup", tag: "<div>", wantErr: true},
		{name: "space", tag: "di v", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, err := d.CreateElement(tt.tag)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTag, el.TagName())
		})
	}
}

func TestClassAndText(t *testing.T) {
	d := NewHTMLDocument()
	el, err := d.CreateElement("div")
	require.NoError(t, err)

	assert.Empty(t, el.ClassName())
	el.SetClassName("a")
	el.SetClassName("a b")
	assert.Equal(t, "a b", el.ClassName())

	el.SetTextContent("first")
	el.SetTextContent("second")
	assert.Equal(t, "second", el.TextContent())

	el.SetTextContent("")
	assert.Empty(t, el.TextContent())
}

func TestAppendChildMovesNode(t *testing.T) {
	d := NewHTMLDocument()
	a, _ := d.CreateElement("div")
	b, _ := d.CreateElement("div")
	c, _ := d.CreateElement("span")

	require.NoError(t, a.AppendChild(c))
	require.NoError(t, b.AppendChild(c))

	assert.Empty(t, a.Children())
	require.Len(t, b.Children(), 1)
	assert.Equal(t, "SPAN", b.Children()[0].TagName())
}

func TestAppendChildRejectsCyclesAndForeignNodes(t *testing.T) {
	d := NewHTMLDocument()
	parent, _ := d.CreateElement("div")
	child, _ := d.CreateElement("div")
	require.NoError(t, parent.AppendChild(child))

	assert.Error(t, child.AppendChild(parent))
	assert.Error(t, parent.AppendChild(parent))

	other, _ := NewHTMLDocument().CreateElement("div")
	assert.ErrorIs(t, parent.AppendChild(other), ErrForeignElement)
}

func TestClickDispatchesLatestHandler(t *testing.T) {
	d := NewHTMLDocument()
	el, _ := d.CreateElement("div")

	var got []string
	el.OnClick(func() { got = append(got, "first") })
	el.OnClick(func() { got = append(got, "second") })

	require.NoError(t, d.Click(el))
	assert.Equal(t, []string{"second"}, got)

	plain, _ := d.CreateElement("div")
	assert.NoError(t, d.Click(plain))

	other, _ := NewHTMLDocument().CreateElement("div")
	assert.ErrorIs(t, d.Click(other), ErrForeignElement)
}

// Обработчик может менять документ
func TestClickHandlerMayMutateDocument(t *testing.T) {
	d := NewHTMLDocument()
	el, _ := d.CreateElement("div")
	el.OnClick(func() { el.SetClassName("clicked") })

	require.NoError(t, d.Click(el))
	assert.Equal(t, "clicked", el.ClassName())
}

func TestFindByClassAndRender(t *testing.T) {
	d := NewHTMLDocument()
	body, err := d.Body()
	require.NoError(t, err)

	for _, class := range []string{"item", "item active", "other"} {
		el, _ := d.CreateElement("div")
		el.SetClassName(class)
		el.SetTextContent("x < y")
		require.NoError(t, body.AppendChild(el))
	}

	assert.Len(t, d.FindByClass("item"), 2)
	assert.Len(t, d.FindByClass("active"), 1)
	assert.Empty(t, d.FindByClass("missing"))

	out := d.String()
	assert.Contains(t, out, `<div class="item active">x &lt; y</div>`)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
}
