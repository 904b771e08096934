// Package hash keeps view state in step with an address of the form "{source}/{chart}?k=v".
package hash

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"visdom/state"
)

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// Template lays out snapshot keys in an address.
// Placeholder keys are positional path segments; when the template ends in "?" all other keys
// follow as a query string, sorted by key.
type Template struct {
	text    string
	keys    []string
	literal []string
	query   bool
	pattern *regexp.Regexp
}

// Compile parses a template such as "{source}/{chart}?".
func Compile(text string) (tmpl *Template, err error) {

	tmpl = &Template{text: text}

	body := text
	if strings.HasSuffix(body, "?") {
		tmpl.query = true
		body = strings.TrimSuffix(body, "?")
	}
	if strings.Contains(body, "?") {
		err = errors.Errorf("template %q has '?' before its end", text)
		return
	}

	var expr strings.Builder
	expr.WriteString("^")

	last := 0
	for _, loc := range placeholder.FindAllStringSubmatchIndex(body, -1) {
		lit := body[last:loc[0]]
		key := body[loc[2]:loc[3]]
		if slices.Contains(tmpl.keys, key) {
			err = errors.Errorf("template %q repeats key %q", text, key)
			return
		}

		tmpl.literal = append(tmpl.literal, lit)
		tmpl.keys = append(tmpl.keys, key)
		expr.WriteString(regexp.QuoteMeta(lit))
		expr.WriteString(`([^/?]*)`)
		last = loc[1]
	}
	tmpl.literal = append(tmpl.literal, body[last:])
	expr.WriteString(regexp.QuoteMeta(body[last:]))
	expr.WriteString("$")

	if len(tmpl.keys) == 0 && !tmpl.query {
		err = errors.Errorf("template %q places no keys", text)
		return
	}

	tmpl.pattern, err = regexp.Compile(expr.String())
	err = errors.Wrapf(err, "failed to compile template %q", text)
	return
}

// String returns the template text.
func (tmpl *Template) String() string {
	return tmpl.text
}

// Positional returns the keys laid out as path segments.
func (tmpl *Template) Positional() []string {
	return slices.Clone(tmpl.keys)
}

// Encode renders snap as an address.
// Empty positional values and empty lists are not carried.
func (tmpl *Template) Encode(snap state.Snapshot) string {

	var bld strings.Builder
	for i, key := range tmpl.keys {
		bld.WriteString(tmpl.literal[i])
		bld.WriteString(url.PathEscape(snap.String(key)))
	}
	bld.WriteString(tmpl.literal[len(tmpl.keys)])

	if !tmpl.query {
		return bld.String()
	}

	var pairs []string
	for _, key := range snap.Keys() {
		if slices.Contains(tmpl.keys, key) || snap[key] == nil {
			continue
		}
		for _, val := range values(snap[key]) {
			pairs = append(pairs, escape(key)+"="+escape(val))
		}
	}

	if len(pairs) > 0 {
		bld.WriteString("?")
		bld.WriteString(strings.Join(pairs, "&"))
	}
	return bld.String()
}

// Decode reads an address back into a snapshot.
// Repeated query keys decode as []string, others as string.
func (tmpl *Template) Decode(addr string) (snap state.Snapshot, err error) {

	addr = strings.TrimPrefix(addr, "#")
	path, query, _ := strings.Cut(addr, "?")

	match := tmpl.pattern.FindStringSubmatch(path)
	if path == "" {
		match = make([]string, len(tmpl.keys)+1)
	}
	if match == nil {
		err = errors.Errorf("address %q does not fit template %q", addr, tmpl.text)
		return
	}

	snap = state.Snapshot{}
	for i, key := range tmpl.keys {
		var val string
		val, err = url.PathUnescape(match[i+1])
		if err != nil {
			err = errors.Wrapf(err, "failed to unescape %q in %q", key, addr)
			return
		}
		if val != "" {
			snap[key] = val
		}
	}

	if query == "" || !tmpl.query {
		return
	}

	// a bare "+" is a literal plus, not an encoded space
	vals, err := url.ParseQuery(strings.ReplaceAll(query, "+", "%2B"))
	if err != nil {
		err = errors.Wrapf(err, "failed to parse query in %q", addr)
		return
	}

	for key, list := range vals {
		if slices.Contains(tmpl.keys, key) {
			continue
		}
		if len(list) == 1 {
			snap[key] = list[0]
			continue
		}
		snap[key] = list
	}
	return
}

func values(val any) []string {

	if strs, ok := val.([]string); ok {
		return strs
	}
	if anys, ok := val.([]any); ok {
		return state.Snapshot{"v": anys}.Strings("v")
	}
	return []string{state.Snapshot{"v": val}.String("v")}
}

const literal = "-_.~()^'[],<>!:*/"

// escape percent-encodes everything but alphanumerics and filter glyphs; space is "%20".
func escape(str string) string {

	var bld strings.Builder
	for i := 0; i < len(str); i++ {
		ch := str[i]
		switch {
		case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
			bld.WriteByte(ch)
		case strings.IndexByte(literal, ch) >= 0:
			bld.WriteByte(ch)
		default:
			fmt.Fprintf(&bld, "%%%02X", ch)
		}
	}
	return bld.String()
}
