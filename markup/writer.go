package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
)

var errFinished = errors.New("writer already finished")

// Writer emits an XML document element by element. The first error is kept and
// returned by every later call, so callers may check only Finish.
type Writer struct {
	buf  bytes.Buffer
	enc  *xml.Encoder
	open []string
	err  error
}

// NewWriter returns a writer that has already emitted the XML declaration.
func NewWriter() *Writer {
	w := &Writer{}
	w.enc = xml.NewEncoder(&w.buf)
	w.err = w.enc.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="utf-8"`)})
	return w
}

func (w *Writer) StartElement(name string) error {
	if w.err != nil {
		return w.err
	}
	if w.err = w.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}}); w.err != nil {
		return w.err
	}
	w.open = append(w.open, name)
	return nil
}

// Text writes escaped character data into the current element.
func (w *Writer) Text(s string) error {
	if w.err != nil {
		return w.err
	}
	if len(w.open) == 0 {
		w.err = errors.New("text outside of an element")
		return w.err
	}
	w.err = w.enc.EncodeToken(xml.CharData(s))
	return w.err
}

// EndElement closes the most recently started element.
func (w *Writer) EndElement() error {
	if w.err != nil {
		return w.err
	}
	if len(w.open) == 0 {
		w.err = errors.New("end element without a matching start")
		return w.err
	}
	name := w.open[len(w.open)-1]
	if w.err = w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}}); w.err != nil {
		return w.err
	}
	w.open = w.open[:len(w.open)-1]
	return nil
}

// Element writes a leaf element holding text.
func (w *Writer) Element(name, text string) error {
	if err := w.StartElement(name); err != nil {
		return err
	}
	if err := w.Text(text); err != nil {
		return err
	}
	return w.EndElement()
}

// Finish flushes the document and returns its bytes. It fails if any earlier
// call failed or if elements are still open.
func (w *Writer) Finish() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if len(w.open) != 0 {
		w.err = fmt.Errorf("unclosed element %s", w.open[len(w.open)-1])
		return nil, w.err
	}
	if w.err = w.enc.Close(); w.err != nil {
		return nil, w.err
	}
	w.err = errFinished

	out := make([]byte, w.buf.Len())
	copy(out, w.buf.Bytes())
	return out, nil
}
