package sq80

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	tagRoot  = "sq80"
	tagName  = "name"
	tagType  = "type"
	tagParam = "param"

	attrID    = "id"
	attrValue = "value"
)

var (
	ErrInvalidContent   = errors.New("invalid content")
	ErrUnknownElement   = errors.New("unknown element")
	ErrUnknownAttribute = errors.New("unknown attribute")
)

// ParseError reports where in the input a patch file was rejected.
type ParseError struct {
	Line int
	Err  error
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %s", e.Line, e.Err, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Write emits p in the <sq80> format: root, name, type and one param
// element per index.
func Write(w io.Writer, p *Patch) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("<" + tagRoot + ">\n")
	writeText(bw, tagName, p.Name)
	writeText(bw, tagType, p.Type)
	for i, b := range p.Parameters {
		fmt.Fprintf(bw, "<%s %s=\"%d\" %s=\"%d\"/>\n", tagParam, attrID, i, attrValue, b)
	}
	bw.WriteString("</" + tagRoot + ">\n")

	return bw.Flush()
}

func writeText(w *bufio.Writer, tag, text string) {
	w.WriteString("<" + tag + ">")
	xml.EscapeText(w, []byte(text))
	w.WriteString("</" + tag + ">\n")
}

// WriteFile truncates path and writes p to it. The patch's origin is
// left to the caller.
func WriteFile(path string, p *Patch) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, p); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadFile parses the patch stored at path and records path as its
// origin.
func ReadFile(path string) (*Patch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Origin = path
	return p, nil
}

type readState int

const (
	stateStart readState = iota
	stateRoot
	stateName
	stateType
	stateParam
	stateFinish
)

type reader struct {
	dec   *xml.Decoder
	state readState
	patch Patch
	name  strings.Builder
	typ   strings.Builder
	named bool
}

// Read parses one patch. Any error aborts the whole read and no patch
// is returned.
func Read(r io.Reader) (*Patch, error) {
	pr := &reader{dec: xml.NewDecoder(r)}
	for {
		tok, err := pr.dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pr.fail(ErrInvalidContent, "%v", err)
		}
		if err := pr.step(tok); err != nil {
			return nil, err
		}
	}
	if pr.state != stateFinish {
		return nil, pr.fail(ErrInvalidContent, "unexpected end of input")
	}
	if !pr.named || pr.name.Len() == 0 {
		return nil, pr.fail(ErrInvalidContent, "missing patch name")
	}

	p := pr.patch
	p.Name = pr.name.String()
	p.Type = pr.typ.String()
	return &p, nil
}

func (pr *reader) fail(kind error, format string, args ...any) error {
	line, _ := pr.dec.InputPos()
	return &ParseError{Line: line, Err: kind, Msg: fmt.Sprintf(format, args...)}
}

func (pr *reader) step(tok xml.Token) error {
	switch t := tok.(type) {
	case xml.StartElement:
		return pr.open(t)
	case xml.EndElement:
		return pr.close(t)
	case xml.CharData:
		return pr.text(t)
	}
	// comments, directives and processing instructions carry nothing
	return nil
}

func (pr *reader) open(t xml.StartElement) error {
	if t.Name.Space != "" {
		return pr.fail(ErrUnknownElement, "<%s:%s>", t.Name.Space, t.Name.Local)
	}
	switch pr.state {
	case stateStart:
		if t.Name.Local != tagRoot {
			return pr.fail(ErrInvalidContent, "root element is <%s>, want <%s>", t.Name.Local, tagRoot)
		}
		if len(t.Attr) > 0 {
			return pr.fail(ErrUnknownAttribute, "%s on <%s>", t.Attr[0].Name.Local, tagRoot)
		}
		pr.state = stateRoot
	case stateRoot:
		switch t.Name.Local {
		case tagName:
			if pr.named {
				return pr.fail(ErrInvalidContent, "duplicate <%s>", tagName)
			}
			pr.named = true
			pr.state = stateName
		case tagType:
			pr.typ.Reset()
			pr.state = stateType
		case tagParam:
			if err := pr.param(t.Attr); err != nil {
				return err
			}
			pr.state = stateParam
		default:
			return pr.fail(ErrUnknownElement, "<%s>", t.Name.Local)
		}
		if t.Name.Local != tagParam && len(t.Attr) > 0 {
			return pr.fail(ErrUnknownAttribute, "%s on <%s>", t.Attr[0].Name.Local, t.Name.Local)
		}
	case stateFinish:
		return pr.fail(ErrInvalidContent, "<%s> after </%s>", t.Name.Local, tagRoot)
	default:
		return pr.fail(ErrInvalidContent, "<%s> not allowed here", t.Name.Local)
	}
	return nil
}

func (pr *reader) param(attrs []xml.Attr) error {
	id, value := -1, -1
	for _, a := range attrs {
		if a.Name.Space != "" {
			return pr.fail(ErrUnknownAttribute, "%s:%s", a.Name.Space, a.Name.Local)
		}
		var dst *int
		var limit int
		switch a.Name.Local {
		case attrID:
			dst, limit = &id, ParameterCount-1
		case attrValue:
			dst, limit = &value, 127
		default:
			return pr.fail(ErrUnknownAttribute, "%s", a.Name.Local)
		}
		if *dst >= 0 {
			return pr.fail(ErrInvalidContent, "duplicate attribute %s", a.Name.Local)
		}
		n, err := strconv.Atoi(a.Value)
		if err != nil {
			return pr.fail(ErrInvalidContent, "%s=%q is not a number", a.Name.Local, a.Value)
		}
		if n < 0 || n > limit {
			return pr.fail(ErrInvalidContent, "%s=%d out of range [0,%d]", a.Name.Local, n, limit)
		}
		*dst = n
	}
	if id < 0 || value < 0 {
		return pr.fail(ErrInvalidContent, "<%s> needs both %s and %s", tagParam, attrID, attrValue)
	}
	pr.patch.Parameters[id] = byte(value)
	return nil
}

func (pr *reader) close(t xml.EndElement) error {
	switch pr.state {
	case stateRoot:
		pr.state = stateFinish
	case stateName, stateType, stateParam:
		pr.state = stateRoot
	default:
		return pr.fail(ErrInvalidContent, "unexpected </%s>", t.Name.Local)
	}
	return nil
}

func (pr *reader) text(t xml.CharData) error {
	switch pr.state {
	case stateName:
		pr.name.Write(t)
	case stateType:
		pr.typ.Write(t)
	case stateParam:
		return pr.fail(ErrInvalidContent, "text inside <%s>", tagParam)
	default:
		if strings.TrimSpace(string(t)) != "" {
			return pr.fail(ErrInvalidContent, "unexpected text %q", strings.TrimSpace(string(t)))
		}
	}
	return nil
}
