// Package dom is the slice of the browser document model the menu bar needs.
// The browser implementation lives next to the wasm entry point; HTMLDocument
// is an in-memory implementation backed by golang.org/x/net/html.
package dom

import "errors"

var (
	ErrNotFound       = errors.New("element not found")
	ErrForeignElement = errors.New("element belongs to another document")
)

type Element interface {
	TagName() string
	ClassName() string
	SetClassName(class string)
	TextContent() string
	SetTextContent(text string)
	AppendChild(child Element) error
	Children() []Element
	// OnClick replaces the element's click handler.
	OnClick(fn func())
}

type Document interface {
	CreateElement(tag string) (Element, error)
	Head() (Element, error)
	Body() (Element, error)
}
