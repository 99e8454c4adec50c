package h

import (
	"strings"

	g "maragu.dev/gomponents"
)

// Data creates a data-* attribute. Via and Datastar use these for all
// reactive plumbing: h.Data("bind", "query") renders data-bind="query".
func Data(name string, value ...string) H {
	return g.Attr("data-"+name, value...)
}

// DataIgnoreMorph marks an element so DOM patches never morph it or its
// children. Useful for browser-owned state like video players.
func DataIgnoreMorph() H {
	return g.Attr("data-ignore-morph")
}

// Classes joins the given class names into a single class attribute.
func Classes(names ...string) H {
	return g.Attr("class", strings.Join(names, " "))
}

func Action(v string) H       { return g.Attr("action", v) }
func Alt(v string) H          { return g.Attr("alt", v) }
func AutoComplete(v string) H { return g.Attr("autocomplete", v) }
func AutoFocus() H            { return g.Attr("autofocus") }
func Charset(v string) H      { return g.Attr("charset", v) }
func Checked() H              { return g.Attr("checked") }
func Class(v string) H        { return g.Attr("class", v) }
func Cols(v string) H         { return g.Attr("cols", v) }
func Content(v string) H      { return g.Attr("content", v) }
func Disabled() H             { return g.Attr("disabled") }
func For(v string) H          { return g.Attr("for", v) }
func Height(v string) H       { return g.Attr("height", v) }
func Href(v string) H         { return g.Attr("href", v) }
func ID(v string) H           { return g.Attr("id", v) }
func Lang(v string) H         { return g.Attr("lang", v) }
func Max(v string) H          { return g.Attr("max", v) }
func MaxLength(v string) H    { return g.Attr("maxlength", v) }
func Method(v string) H       { return g.Attr("method", v) }
func Min(v string) H          { return g.Attr("min", v) }
func Name(v string) H         { return g.Attr("name", v) }
func Pattern(v string) H      { return g.Attr("pattern", v) }
func Placeholder(v string) H  { return g.Attr("placeholder", v) }
func ReadOnly() H             { return g.Attr("readonly") }
func Rel(v string) H          { return g.Attr("rel", v) }
func Required() H             { return g.Attr("required") }
func Role(v string) H         { return g.Attr("role", v) }
func Rows(v string) H         { return g.Attr("rows", v) }
func Src(v string) H          { return g.Attr("src", v) }
func Step(v string) H         { return g.Attr("step", v) }
func Style(v string) H        { return g.Attr("style", v) }
func TabIndex(v string) H     { return g.Attr("tabindex", v) }
func Target(v string) H       { return g.Attr("target", v) }
func Title(v string) H        { return g.Attr("title", v) }
func Type(v string) H         { return g.Attr("type", v) }
func Value(v string) H        { return g.Attr("value", v) }
func Width(v string) H        { return g.Attr("width", v) }
