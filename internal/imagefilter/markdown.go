// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package imagefilter

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// refTail matches the "[label]" part of a full or collapsed reference image.
var refTail = regexp.MustCompile(`^\[((?:\\.|[^\[\]\\])*)\]`)

// Result is the outcome of RewriteMarkdown.
type Result struct {
	// Markdown is the rewritten source.
	Markdown []byte

	// Removed lists the remote URLs that were replaced, in document order.
	Removed []string
}

// RewriteMarkdown replaces every remote image in src with its placeholder
// text. Inline (![alt](url)), full reference (![alt][ref]), collapsed
// (![alt][]) and shortcut (![ref]) images are handled. The goldmark parse
// decides what counts as an image, so occurrences inside code spans and code
// blocks are left alone. Everything outside the replaced spans is copied
// byte for byte.
func RewriteMarkdown(src []byte) Result {
	pc := parser.NewContext()
	doc := markdown.Parser().Parse(text.NewReader(src), parser.WithContext(pc))

	remote := make(map[string]int)
	var code []text.Segment
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Image:
			if dest := string(node.Destination); IsRemote(dest) {
				remote[dest]++
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				code = append(code, lines.At(i))
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					code = append(code, t.Segment)
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	result := Result{}
	if len(remote) == 0 {
		result.Markdown = append([]byte(nil), src...)
		return result
	}

	var b bytes.Buffer
	last := 0
	for i := 0; i < len(src); i++ {
		if src[i] == '\\' {
			i++
			continue
		}
		if src[i] != '!' || i+1 >= len(src) || src[i+1] != '[' || i < last {
			continue
		}
		if inSegments(code, i) {
			continue
		}
		closer, ok := matchBracket(src, i+1)
		if !ok {
			continue
		}
		dest, stop, ok := resolve(src, i+2, closer, pc)
		if !ok || !IsRemote(dest) || remote[dest] == 0 {
			continue
		}
		remote[dest]--

		b.Write(src[last:i])
		b.WriteString(Placeholder(dest))
		last = stop
		result.Removed = append(result.Removed, dest)
		i = stop - 1
	}
	b.Write(src[last:])

	result.Markdown = b.Bytes()
	return result
}

// resolve returns the destination of the image whose alt text spans
// src[altStart:closer], together with the offset just past the whole image.
func resolve(src []byte, altStart, closer int, pc parser.Context) (dest string, stop int, ok bool) {
	end := closer + 1
	label := string(src[altStart:closer])

	if end < len(src) {
		switch src[end] {
		case '(':
			return inlineDestination(src, end)
		case '[':
			if loc := refTail.FindSubmatchIndex(src[end:]); loc != nil {
				if ref := string(src[end+loc[2] : end+loc[3]]); ref != "" {
					label = ref
				}
				end += loc[1]
			}
		}
	}

	if strings.TrimSpace(label) == "" {
		return "", 0, false
	}
	ref, found := pc.Reference(util.ToLinkReference([]byte(label)))
	if !found {
		return "", 0, false
	}
	return string(ref.Destination()), end, true
}

// matchBracket returns the index of the "]" closing the "[" at open. Nested
// brackets are balanced and backslash escapes skipped. A blank line ends the
// search.
func matchBracket(src []byte, open int) (int, bool) {
	depth := 0
	for i := open + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			depth++
		case ']':
			if depth == 0 {
				return i, true
			}
			depth--
		case '\n':
			if blankLineAt(src, i+1) {
				return 0, false
			}
		}
	}
	return 0, false
}

func blankLineAt(src []byte, pos int) bool {
	for ; pos < len(src); pos++ {
		switch src[pos] {
		case ' ', '\t', '\r':
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

// inlineDestination parses the "(dest "title")" tail at open the way the
// goldmark link parser does: an angle-bracketed destination, or one with
// balanced parentheses and no spaces. It returns the raw destination and
// the offset just past the closing ")".
func inlineDestination(src []byte, open int) (string, int, bool) {
	i := skipSpace(src, open+1)
	if i >= len(src) {
		return "", 0, false
	}

	var dest []byte
	if src[i] == '<' {
		j := i + 1
		for ; j < len(src) && src[j] != '>'; j++ {
			if src[j] == '\n' || src[j] == '<' {
				return "", 0, false
			}
			if src[j] == '\\' && j+1 < len(src) && util.IsPunct(src[j+1]) {
				j++
			}
		}
		if j >= len(src) {
			return "", 0, false
		}
		dest, i = src[i+1:j], j+1
	} else {
		start, depth := i, 0
	scan:
		for ; i < len(src); i++ {
			c := src[i]
			switch {
			case c == '\\' && i+1 < len(src) && util.IsPunct(src[i+1]):
				i++
			case c == '(':
				depth++
			case c == ')':
				if depth == 0 {
					break scan
				}
				depth--
			case util.IsSpace(c):
				break scan
			}
		}
		if depth != 0 {
			return "", 0, false
		}
		dest = src[start:i]
	}

	i = skipSpace(src, i)
	if i < len(src) && (src[i] == '"' || src[i] == '\'' || src[i] == '(') {
		closeCh := src[i]
		if closeCh == '(' {
			closeCh = ')'
		}
		j := i + 1
		for ; j < len(src) && src[j] != closeCh; j++ {
			if src[j] == '\\' {
				j++
			}
		}
		if j >= len(src) {
			return "", 0, false
		}
		i = skipSpace(src, j+1)
	}
	if i >= len(src) || src[i] != ')' {
		return "", 0, false
	}
	return string(dest), i + 1, true
}

func skipSpace(src []byte, i int) int {
	for i < len(src) && util.IsSpace(src[i]) {
		i++
	}
	return i
}

func inSegments(segs []text.Segment, pos int) bool {
	for _, s := range segs {
		if pos >= s.Start && pos < s.Stop {
			return true
		}
	}
	return false
}
