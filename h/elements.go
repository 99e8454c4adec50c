package h

import (
	g "maragu.dev/gomponents"
)

// Element creates a DOM node with the given tag name and children.
// Attribute nodes among the children render inside the opening tag. Use
// this if no convenience creator exists in the h package.
func Element(name string, children ...H) H {
	return g.El(name, retype(children)...)
}

func retype(in []H) []g.Node {
	out := make([]g.Node, 0, len(in))
	for _, n := range in {
		if n == nil {
			continue
		}
		out = append(out, nodeOf(n))
	}
	return out
}

func nodeOf(n H) g.Node {
	if gn, ok := n.(g.Node); ok {
		return gn
	}
	return g.NodeFunc(n.Render)
}

func A(children ...H) H        { return Element("a", children...) }
func Article(children ...H) H  { return Element("article", children...) }
func Aside(children ...H) H    { return Element("aside", children...) }
func Body(children ...H) H     { return Element("body", children...) }
func Br(children ...H) H       { return Element("br", children...) }
func Button(children ...H) H   { return Element("button", children...) }
func Canvas(children ...H) H   { return Element("canvas", children...) }
func Code(children ...H) H     { return Element("code", children...) }
func Div(children ...H) H      { return Element("div", children...) }
func Em(children ...H) H       { return Element("em", children...) }
func FieldSet(children ...H) H { return Element("fieldset", children...) }
func Footer(children ...H) H   { return Element("footer", children...) }
func Form(children ...H) H     { return Element("form", children...) }
func H1(children ...H) H       { return Element("h1", children...) }
func H2(children ...H) H       { return Element("h2", children...) }
func H3(children ...H) H       { return Element("h3", children...) }
func H4(children ...H) H       { return Element("h4", children...) }
func H5(children ...H) H       { return Element("h5", children...) }
func H6(children ...H) H       { return Element("h6", children...) }
func Header(children ...H) H   { return Element("header", children...) }
func Hr(children ...H) H       { return Element("hr", children...) }
func I(children ...H) H        { return Element("i", children...) }
func Img(children ...H) H      { return Element("img", children...) }
func Input(children ...H) H    { return Element("input", children...) }
func Label(children ...H) H    { return Element("label", children...) }
func Legend(children ...H) H   { return Element("legend", children...) }
func Li(children ...H) H       { return Element("li", children...) }
func Link(children ...H) H     { return Element("link", children...) }
func Main(children ...H) H     { return Element("main", children...) }
func Meta(children ...H) H     { return Element("meta", children...) }
func Nav(children ...H) H      { return Element("nav", children...) }
func Ol(children ...H) H       { return Element("ol", children...) }
func Option(children ...H) H   { return Element("option", children...) }
func P(children ...H) H        { return Element("p", children...) }
func Pre(children ...H) H      { return Element("pre", children...) }
func Script(children ...H) H   { return Element("script", children...) }
func Section(children ...H) H  { return Element("section", children...) }
func Select(children ...H) H   { return Element("select", children...) }
func Small(children ...H) H    { return Element("small", children...) }
func Span(children ...H) H     { return Element("span", children...) }
func Strong(children ...H) H   { return Element("strong", children...) }
func Table(children ...H) H    { return Element("table", children...) }
func TBody(children ...H) H    { return Element("tbody", children...) }
func Td(children ...H) H       { return Element("td", children...) }
func Textarea(children ...H) H { return Element("textarea", children...) }
func TFoot(children ...H) H    { return Element("tfoot", children...) }
func Th(children ...H) H       { return Element("th", children...) }
func THead(children ...H) H    { return Element("thead", children...) }
func Tr(children ...H) H       { return Element("tr", children...) }
func Ul(children ...H) H       { return Element("ul", children...) }

// StyleEl creates a <style> element. The El suffix avoids clashing with
// the style attribute.
func StyleEl(children ...H) H { return Element("style", children...) }

// TitleEl creates a <title> element.
func TitleEl(children ...H) H { return Element("title", children...) }
