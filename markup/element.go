// Package markup is the XML layer of the agent: a small element tree for reading
// wireserver documents and a streaming writer for producing them.
package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"fmt"
	"strings"

	"github.com/ruteri/wireserver-ready-agent/interfaces"
	"golang.org/x/net/html/charset"
)

// Element is a parsed XML element. Only local names are kept; namespaces and
// attributes are not used by the wireserver documents this agent reads.
type Element struct {
	Name     string
	Children []*Element

	text []byte
}

// Child returns the first direct child named tag, or nil.
func (e *Element) Child(tag string) *Element {
	for _, c := range e.Children {
		if c.Name == tag {
			return c
		}
	}
	return nil
}

// Text returns the element's own character data exactly as written. Elements
// without character data yield "".
func (e *Element) Text() string {
	return string(e.text)
}

// Parse reads a complete XML document into an element tree. Any syntax error,
// a missing root or content after the root element yields a
// *interfaces.MalformedDocumentError.
func Parse(data []byte) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = utf8CharsetReader

	var root *Element
	var stack []*Element
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &interfaces.MalformedDocumentError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local}
			if len(stack) == 0 {
				if root != nil {
					return nil, &interfaces.MalformedDocumentError{Err: errors.New("more than one root element")}
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) != 0 {
					return nil, &interfaces.MalformedDocumentError{Err: errors.New("character data outside the root element")}
				}
				continue
			}
			top := stack[len(stack)-1]
			top.text = append(top.text, t...)
		}
	}

	if root == nil {
		return nil, &interfaces.MalformedDocumentError{Err: errors.New("no root element")}
	}
	return root, nil
}

// utf8CharsetReader accepts prolog encoding labels that describe the input as it
// already is: UTF-8 or its ASCII subset. The input is passed through unchanged;
// any other label is an error.
func utf8CharsetReader(label string, input io.Reader) (io.Reader, error) {
	if strings.EqualFold(label, "us-ascii") || strings.EqualFold(label, "ascii") {
		return input, nil
	}
	if _, name := charset.Lookup(label); name == "utf-8" {
		return input, nil
	}
	return nil, fmt.Errorf("unsupported document encoding %q", label)
}
