package dom

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/shurcooL/htmlg"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const skeleton = `<!DOCTYPE html><html><head><meta charset="utf-8"></head><body></body></html>`

// HTMLDocument is a Document over an x/net/html tree. It is safe for
// concurrent use; handlers run without the document lock held.
// The zero value is a document with no head and no body.
type HTMLDocument struct {
	mu       sync.Mutex
	root     *html.Node
	handlers map[*html.Node]func()
}

func NewHTMLDocument() *HTMLDocument {
	d, err := ParseHTMLDocument(strings.NewReader(skeleton))
	if err != nil {
		panic(err)
	}
	return d
}

func ParseHTMLDocument(r io.Reader) (*HTMLDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &HTMLDocument{root: root}, nil
}

func (d *HTMLDocument) CreateElement(tag string) (Element, error) {
	if tag == "" || strings.ContainsAny(tag, " \t\n<>/=\"'") {
		return nil, fmt.Errorf("create element %q: invalid tag name", tag)
	}
	tag = strings.ToLower(tag)
	return &htmlElement{doc: d, node: &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}}, nil
}

func (d *HTMLDocument) Head() (Element, error) { return d.find(atom.Head) }

func (d *HTMLDocument) Body() (Element, error) { return d.find(atom.Body) }

func (d *HTMLDocument) find(a atom.Atom) (Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("%s: %w", a, ErrNotFound)
	}
	return &htmlElement{doc: d, node: found}, nil
}

// Click dispatches the click handler registered on el, if any.
func (d *HTMLDocument) Click(el Element) error {
	e, ok := el.(*htmlElement)
	if !ok || e.doc != d {
		return ErrForeignElement
	}
	d.mu.Lock()
	fn := d.handlers[e.node]
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

// FindByClass returns every element whose class list contains class,
// in document order.
func (d *HTMLDocument) FindByClass(class string) []Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Element
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && slices.Contains(strings.Fields(attr(n, "class")), class) {
			out = append(out, &htmlElement{doc: d, node: n})
		}
		return true
	})
	return out
}

func (d *HTMLDocument) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.root == nil {
		return fmt.Errorf("document: %w", ErrNotFound)
	}
	return html.Render(w, d.root)
}

func (d *HTMLDocument) String() string {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return ""
	}
	return sb.String()
}

type htmlElement struct {
	doc  *HTMLDocument
	node *html.Node
}

func (e *htmlElement) TagName() string { return strings.ToUpper(e.node.Data) }

func (e *htmlElement) ClassName() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return attr(e.node, "class")
}

func (e *htmlElement) SetClassName(class string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for i := range e.node.Attr {
		if e.node.Attr[i].Key == "class" {
			e.node.Attr[i].Val = class
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: "class", Val: class})
}

func (e *htmlElement) TextContent() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var sb strings.Builder
	walk(e.node, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		return true
	})
	return sb.String()
}

func (e *htmlElement) SetTextContent(text string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	if text != "" {
		e.node.AppendChild(htmlg.Text(text))
	}
}

func (e *htmlElement) AppendChild(child Element) error {
	c, ok := child.(*htmlElement)
	if !ok || c.doc != e.doc {
		return ErrForeignElement
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for p := e.node; p != nil; p = p.Parent {
		if p == c.node {
			return fmt.Errorf("append %s to %s: would create a cycle", c.node.Data, e.node.Data)
		}
	}
	if c.node.Parent != nil {
		c.node.Parent.RemoveChild(c.node)
	}
	e.node.AppendChild(c.node)
	return nil
}

func (e *htmlElement) Children() []Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var out []Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, &htmlElement{doc: e.doc, node: c})
		}
	}
	return out
}

func (e *htmlElement) OnClick(fn func()) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.doc.handlers == nil {
		e.doc.handlers = make(map[*html.Node]func())
	}
	e.doc.handlers[e.node] = fn
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// walk visits n and its descendants depth-first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if n == nil {
		return true
	}
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}
