// Package markdown locates pipe tables inside markdown documents and
// renders table contents back into pipe-table syntax.
//
// Parsing is line based: a table is a header row, a separator row and the
// contiguous non-blank pipe rows that follow. Lines inside fenced or
// indented code blocks are excluded using goldmark's block parser.
// Serialize is the inverse of ParseTables for every rectangular table.
package markdown
