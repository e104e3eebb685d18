package markdown

import (
	"sort"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// The goldmark parser is configured once; each Parse call keeps its own state.
var (
	blockParser     goldmark.Markdown
	blockParserOnce sync.Once
)

func getBlockParser() goldmark.Markdown {
	blockParserOnce.Do(func() {
		blockParser = goldmark.New()
	})
	return blockParser
}

// lineOffsets returns the byte offset of the start of every line.
func lineOffsets(content string) []int {
	offsets := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// lineAt maps a byte offset to its 0-based line.
func lineAt(offsets []int, offset int) int {
	return sort.Search(len(offsets), func(i int) bool { return offsets[i] > offset }) - 1
}

// codeBlockLines reports which lines belong to fenced or indented code blocks.
func codeBlockLines(content string) map[int]bool {
	if !mayContainCode(content) {
		return nil
	}
	source := []byte(content)
	doc := getBlockParser().Parser().Parse(text.NewReader(source))
	offsets := lineOffsets(content)

	masked := make(map[int]bool)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				masked[lineAt(offsets, seg.Start)] = true
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return masked
}

// mayContainCode is a cheap pre-check that skips the block parser for
// documents without fences or indented lines.
func mayContainCode(content string) bool {
	return strings.Contains(content, "```") ||
		strings.Contains(content, "~~~") ||
		strings.Contains(content, "\n    ") ||
		strings.Contains(content, "\n\t") ||
		strings.HasPrefix(content, "    ") ||
		strings.HasPrefix(content, "\t")
}
