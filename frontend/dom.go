//go:build js && wasm

package main

import (
	"fmt"
	"syscall/js"

	"swooshui/internal/dom"
)

type document struct {
	v js.Value
}

func (d *document) CreateElement(tag string) (dom.Element, error) {
	var el js.Value
	if err := try(func() { el = d.v.Call("createElement", tag) }); err != nil {
		return nil, fmt.Errorf("create %s: %w", tag, err)
	}
	return &element{v: el}, nil
}

func (d *document) Head() (dom.Element, error) { return d.lookup("head") }

func (d *document) Body() (dom.Element, error) { return d.lookup("body") }

func (d *document) lookup(name string) (dom.Element, error) {
	v := d.v.Get(name)
	if v.IsNull() || v.IsUndefined() {
		return nil, fmt.Errorf("%s: %w", name, dom.ErrNotFound)
	}
	return &element{v: v}, nil
}

type element struct {
	v js.Value
}

func (e *element) TagName() string { return e.v.Get("tagName").String() }

func (e *element) ClassName() string { return e.v.Get("className").String() }

func (e *element) SetClassName(class string) { e.v.Set("className", class) }

func (e *element) TextContent() string { return e.v.Get("textContent").String() }

func (e *element) SetTextContent(text string) { e.v.Set("textContent", text) }

func (e *element) AppendChild(child dom.Element) error {
	c, ok := child.(*element)
	if !ok {
		return dom.ErrForeignElement
	}
	return try(func() { e.v.Call("appendChild", c.v) })
}

func (e *element) Children() []dom.Element {
	coll := e.v.Get("children")
	n := coll.Length()
	out := make([]dom.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &element{v: coll.Index(i)})
	}
	return out
}

// OnClick never releases the previous callback; handlers live as long as the page.
func (e *element) OnClick(fn func()) {
	e.v.Set("onclick", js.FuncOf(func(this js.Value, args []js.Value) any {
		fn()
		return nil
	}))
}

// try turns a JavaScript exception raised by fn into an error.
func try(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok {
			err = e
			return
		}
		err = fmt.Errorf("%v", r)
	}()
	fn()
	return nil
}
