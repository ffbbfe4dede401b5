package padresult

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const errorStyle = "background: #fee; border: 2px solid #f88; border-radius: 10px; " +
	"padding: 20px; text-align: center; color: #c33; margin: 20px 0;"

// HTMLView builds the result area as a DOM fragment,
// using the element ids and classes expected by the page stylesheet.
// The fragment is rebuilt from scratch on every Render.
type HTMLView struct {
	W io.Writer // optional, receives the serialized fragment

	root *html.Node
}

// Root returns the last rendered fragment.
func (v *HTMLView) Root() *html.Node { return v.root }

func (v *HTMLView) Render(d Display) error {
	root := element(atom.Div, "id", "resultDisplay")

	digit := element(atom.Span, "id", "predictedDigit")
	digit.AppendChild(text(d.Headline))
	confidence := element(atom.Span, "id", "confidenceValue")
	confidence.AppendChild(text(d.Confidence))
	summary := element(atom.Div, "class", "result-main")
	summary.AppendChild(digit)
	summary.AppendChild(confidence)
	root.AppendChild(summary)

	bars := element(atom.Div, "id", "probabilityBars")
	for _, b := range d.Bars {
		item := element(atom.Div, "class", "prob-item")
		label := element(atom.Span, "class", "prob-label")
		label.AppendChild(text(strconv.Itoa(b.Digit)))
		container := element(atom.Div, "class", "prob-bar-container")
		bar := element(atom.Div, "class", "prob-bar", "style", fmt.Sprintf("width: %.1f%%", b.Width))
		bar.AppendChild(text(b.Label))
		container.AppendChild(bar)
		item.AppendChild(label)
		item.AppendChild(container)
		bars.AppendChild(item)
	}
	root.AppendChild(bars)

	if d.Error != nil {
		msg := element(atom.Div, "id", "errorMessage", "style", errorStyle)
		msg.AppendChild(text(FailureMarker + d.Error.Message))
		root.AppendChild(msg)
	}

	v.root = root
	if v.W == nil {
		return nil
	}
	return html.Render(v.W, root)
}

// element returns a new node, `attrs` being key/value pairs
func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// FindByID walks the fragment rooted at n and returns
// the element with the given id, or nil.
func FindByID(n *html.Node, id string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindByID(c, id); found != nil {
			return found
		}
	}
	return nil
}
