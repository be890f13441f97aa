// Package fastview implements a builder pattern for simple server-pushed
// views: given an input data stream, apply a transformation to a view-model,
// then multiplex that view-model to one or more view components, each
// publishing to its own client over websocket.
package fastview

import (
	"html/template"
)

// EleUpdate is an element identifier and a set of operations to apply to its attributes/content.
type EleUpdate struct {
	// The id by which to find the element
	EleId string
	// Op keys are attrib keys or 'textContent', values are the strings to which these are set.
	// Example: ('x','123') means 'set attribute 'x' to 123. 'textContent' is a reserved key:
	// ('textContent','abc') means 'set ele.textContent to abc'.
	Ops []Op
}

// Op is a key and value. For example an html attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// ViewComponent implements server side views: Parse to add the component's
// template to a parent template, and Updates to obtain the chan by which
// ele-updates are notified to its client.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse parses the view-component and adds it to the passed parent template, thus inheriting
	// or possibly extending its definition (func-map, etc). This allows recursively definition
	// view-components. Not sure this is the best design, but 'works' a posteriori.
	Parse(*template.Template) (string, error)
}
