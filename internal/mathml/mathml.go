// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mathml flattens embedded MathML markup into plain text.
// CrossRef occasionally returns titles containing presentation MathML;
// the flattened form keeps sub/superscripts and fractions readable
// ("H_2O", "a/b") without carrying markup into search results.
package mathml

import (
	"encoding/xml"
	"regexp"
	"strings"
)

var mmlPrefix = regexp.MustCompile(`mml:(\w+)`)

var mathBlock = regexp.MustCompile(`(?s)<math[^>]*>.+?</math>`)

// Wrapper tags that carry layout only; their content is inlined.
var irrelevantTags = []string{
	"maction", "menclose", "merror", "mglyph", "mlabeledtr",
	"mmultiscripts", "mover", "mpadded", "mphantom", "mrow", "style",
	"mspace", "mtable", "mtd", "mtext", "mtr", "mth", "munder",
	"munderover", "semantics",
}

// Flatten rewrites every <math> block in document to its plain-text
// rendering, leaving the surrounding text untouched. Malformed markup is
// dropped rather than propagated.
func Flatten(document string) string {
	document = mmlPrefix.ReplaceAllString(document, "$1")

	for _, tag := range irrelevantTags {
		open := regexp.MustCompile(`<` + tag + `[^>]*>`)
		document = open.ReplaceAllString(document, "")
		document = strings.ReplaceAll(document, "</"+tag+">", "")
	}

	document = mathBlock.ReplaceAllStringFunc(document, func(block string) string {
		root, err := parse(block)
		if err != nil {
			return ""
		}
		return render(root)
	})

	return strings.ReplaceAll(document, "</math>", "")
}

// element is a parsed MathML node with ordered mixed content.
type element struct {
	tag     string
	attrs   map[string]string
	content []any // string or *element, in document order
}

func (e *element) children() []*element {
	var out []*element
	for _, c := range e.content {
		if child, ok := c.(*element); ok {
			out = append(out, child)
		}
	}
	return out
}

func (e *element) text() string {
	var b strings.Builder
	for _, c := range e.content {
		if s, ok := c.(string); ok {
			b.WriteString(s)
		}
	}
	return strings.TrimSpace(b.String())
}

func parse(block string) (*element, error) {
	dec := xml.NewDecoder(strings.NewReader(block))
	dec.Strict = false

	var stack []*element
	var root *element
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{tag: t.Name.Local, attrs: map[string]string{}}
			for _, a := range t.Attr {
				el.attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.content = append(parent.content, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.content = append(parent.content, string(t))
			}
		}
	}
	if root == nil {
		return nil, errEmptyBlock
	}
	return root, nil
}

var errEmptyBlock = xml.UnmarshalError("empty math block")

func render(el *element) string {
	switch el.tag {
	case "math":
		var b strings.Builder
		for _, child := range el.children() {
			b.WriteString(render(child))
		}
		return b.String()
	case "mi", "mn", "mo":
		return el.text()
	case "ms":
		return `"` + el.text() + `"`
	case "msqrt":
		return "√" + el.text()
	case "mfenced":
		open, close_, separators := "(", ")", ","
		if v, ok := el.attrs["open"]; ok {
			open = v
		}
		if v, ok := el.attrs["close"]; ok {
			close_ = v
		}
		if v, ok := el.attrs["separators"]; ok {
			separators = v
		}
		return open + joinChildren(el.children(), separators) + close_
	case "mroot":
		return joinChildren(el.children(), "√")
	case "msub":
		return joinChildren(el.children(), "_")
	case "msup":
		return joinChildren(el.children(), "^")
	case "msubsup":
		return joinChildren(el.children(), "^_")
	case "mfrac":
		return joinChildren(el.children(), "/")
	}
	return ""
}

// joinChildren renders children interleaved with separator characters.
// A short separator string is padded by repeating its last character, so
// "," joins any number of fenced arguments.
func joinChildren(children []*element, separators string) string {
	var b strings.Builder
	seps := []rune(separators)
	for i, child := range children {
		b.WriteString(render(child))
		if i == len(children)-1 {
			break
		}
		switch {
		case i < len(seps):
			b.WriteRune(seps[i])
		case len(seps) > 0:
			b.WriteRune(seps[len(seps)-1])
		}
	}
	return b.String()
}
