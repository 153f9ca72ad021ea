// Package htmlx performs structural HTML mutation by injection points, as
// used to inject the WASM loader script and the dev-mode live reload client
// into a project's index.html.
//
// No example repo in the corpus owns an HTML AST mutator — the closest
// relative is assetmgr's tag-rendering idiom (renderScriptTag/renderCSSTag
// build fixed-shape tag strings with fmt.Sprintf). That idiom is extended
// here from "render a tag" to "render and splice a tag at an anchor point",
// using plain string scanning rather than a tree parser: the spec calls for
// line-anchored, indentation-preserving text surgery on the literal source,
// which a structural parser would have to reverse-engineer anyway.
package htmlx

import "strings"

// InjectTo identifies the anchor a tag is injected relative to.
type InjectTo int

const (
	HeadPrepend InjectTo = iota
	Head
	Body
)

// unaryTags are serialized self-closed and never wrap children.
var unaryTags = map[string]bool{
	"link": true,
	"meta": true,
	"base": true,
}

// Attr is one tag attribute. A slice of Attr (rather than a map) is used so
// that callers who care about a specific rendering can get one; the spec
// itself treats attribute order as unobservable.
type Attr struct {
	Key, Value string
}

// Tag describes one element to inject.
type Tag struct {
	Name     string
	Attrs    []Attr
	Children string
	InjectTo InjectTo
}

// Transform returns doc with every tag in tags spliced in at its anchor.
// Tags are grouped by InjectTo and each group's anchor is located once
// against the (possibly already-modified-by-an-earlier-group) document, so
// the insertion order among groups is HeadPrepend, then Head, then Body —
// matching the descending-priority rule in the component spec.
func Transform(doc string, tags []Tag) string {
	if len(tags) == 0 {
		return doc
	}

	byGroup := map[InjectTo][]Tag{}
	for _, t := range tags {
		byGroup[t.InjectTo] = append(byGroup[t.InjectTo], t)
	}

	if group, ok := byGroup[HeadPrepend]; ok {
		doc = injectHeadPrepend(doc, group)
	}
	if group, ok := byGroup[Head]; ok {
		doc = injectHead(doc, group)
	}
	if group, ok := byGroup[Body]; ok {
		doc = injectBody(doc, group)
	}
	return doc
}

func renderTag(t Tag, indent string) string {
	var b strings.Builder
	b.WriteString(indent)
	b.WriteString("<")
	b.WriteString(t.Name)
	for _, a := range t.Attrs {
		b.WriteString(" ")
		b.WriteString(a.Key)
		b.WriteString("=\"")
		b.WriteString(a.Value)
		b.WriteString("\"")
	}
	if unaryTags[t.Name] {
		b.WriteString(" />")
		return b.String()
	}
	b.WriteString(">")
	b.WriteString(t.Children)
	b.WriteString("</")
	b.WriteString(t.Name)
	b.WriteString(">")
	return b.String()
}

func renderGroup(tags []Tag, indent string) string {
	lines := make([]string, len(tags))
	for i, t := range tags {
		lines[i] = renderTag(t, indent)
	}
	return strings.Join(lines, "\n")
}

// lineIndent returns the detected indent of the line containing position
// pos in doc, stepped one unit deeper: a tab if the line is tab-indented,
// otherwise two spaces.
func lineIndent(doc string, pos int) string {
	lineStart := strings.LastIndexByte(doc[:pos], '\n') + 1
	line := doc[lineStart:pos]
	trimmed := strings.TrimLeft(line, " \t")
	existing := line[:len(line)-len(trimmed)]
	if strings.Contains(existing, "\t") {
		return existing + "\t"
	}
	return existing + "  "
}

func findTagEnd(doc, openPrefix string) int {
	idx := strings.Index(strings.ToLower(doc), openPrefix)
	if idx < 0 {
		return -1
	}
	end := strings.IndexByte(doc[idx:], '>')
	if end < 0 {
		return -1
	}
	return idx + end + 1
}

func findTagStart(doc, needle string) int {
	return strings.Index(strings.ToLower(doc), needle)
}

func injectHeadPrepend(doc string, tags []Tag) string {
	pos := findTagEnd(doc, "<head")
	if pos < 0 {
		return prependFallback(doc, tags)
	}
	return spliceAfter(doc, pos, tags)
}

func injectHead(doc string, tags []Tag) string {
	if pos := findTagStart(doc, "</head>"); pos >= 0 {
		return spliceBefore(doc, pos, tags)
	}
	if pos := findTagStart(doc, "<body"); pos >= 0 {
		return spliceBefore(doc, pos, tags)
	}
	return prependFallback(doc, tags)
}

func injectBody(doc string, tags []Tag) string {
	if pos := findTagStart(doc, "</body>"); pos >= 0 {
		return spliceBefore(doc, pos, tags)
	}
	if pos := findTagStart(doc, "</html>"); pos >= 0 {
		return spliceBefore(doc, pos, tags)
	}
	indent := ""
	return doc + "\n" + renderGroup(tags, indent)
}

func prependFallback(doc string, tags []Tag) string {
	if pos := findTagEnd(doc, "<html"); pos >= 0 {
		return spliceAfter(doc, pos, tags)
	}
	if pos := findTagEnd(doc, "<!doctype html"); pos >= 0 {
		return spliceAfter(doc, pos, tags)
	}
	indent := lineIndent(doc, 0)
	return renderGroup(tags, indent) + "\n" + doc
}

func splice(doc string, pos int, tags []Tag) string {
	indent := lineIndent(doc, pos)
	before := doc[:pos]
	after := doc[pos:]
	block := renderGroup(tags, indent)
	if !strings.HasSuffix(before, "\n") {
		block = "\n" + block
	}
	if !strings.HasPrefix(after, "\n") {
		block = block + "\n"
	}
	return before + block + after
}

func spliceAfter(doc string, pos int, tags []Tag) string { return splice(doc, pos, tags) }

func spliceBefore(doc string, pos int, tags []Tag) string { return splice(doc, pos, tags) }
