// Package index holds the in-memory node index: every org-roam node keyed by
// its sanitized id. It is built once per run and only read afterwards.
package index

import (
	"strings"

	"roamexport/internal/apperr"
	"roamexport/internal/db"
)

// Node is a sanitized org-roam node.
type Node struct {
	ID    string `json:"id"`
	File  string `json:"file"`
	Level int    `json:"level"`
	Title string `json:"title"`
}

// SubtreeOnly reports whether exporting the node means exporting a heading
// subtree rather than its whole backing file.
func (n Node) SubtreeOnly() bool {
	return n.Level > 0
}

// FileName is the export file name derived from the title.
func (n Node) FileName() string {
	return n.Title + ".md"
}

// SanitizeTitle drops double quotes and replaces slashes with " over " so the
// title is safe as a single path component and inside an elisp string.
func SanitizeTitle(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	return strings.ReplaceAll(s, "/", " over ")
}

// SanitizeID drops double quotes.
func SanitizeID(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}

// SanitizeFile drops double quotes.
func SanitizeFile(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}

// Sanitize converts a raw database row into a Node.
func Sanitize(row db.Node) Node {
	return Node{
		ID:    SanitizeID(row.ID),
		File:  SanitizeFile(row.File),
		Level: row.Level,
		Title: SanitizeTitle(row.Title),
	}
}

// Index maps node ids to nodes. The zero value is an empty index.
type Index struct {
	byID  map[string]Node
	order []string // ids in first-seen order
}

// Build sanitizes rows and indexes them by id. When two rows share an id the
// later row wins, but the id keeps the position where it was first seen.
func Build(rows []db.Node) *Index {
	idx := &Index{
		byID:  make(map[string]Node, len(rows)),
		order: make([]string, 0, len(rows)),
	}
	for _, row := range rows {
		n := Sanitize(row)
		if _, seen := idx.byID[n.ID]; !seen {
			idx.order = append(idx.order, n.ID)
		}
		idx.byID[n.ID] = n
	}
	return idx
}

// Get returns the node with the given id.
func (idx *Index) Get(id string) (Node, bool) {
	n, ok := idx.byID[id]
	return n, ok
}

// Resolve returns the node with the given id, or a LinkResolutionError naming
// the id and the file the link was found in.
func (idx *Index) Resolve(id, sourceFile string) (Node, error) {
	n, ok := idx.byID[id]
	if !ok {
		return Node{}, &apperr.LinkResolutionError{ID: id, SourceFile: sourceFile}
	}
	return n, nil
}

// Len returns the number of indexed nodes.
func (idx *Index) Len() int {
	return len(idx.order)
}

// Nodes returns all nodes in enumeration order.
func (idx *Index) Nodes() []Node {
	out := make([]Node, len(idx.order))
	for i, id := range idx.order {
		out[i] = idx.byID[id]
	}
	return out
}

// Files returns the distinct backing files in enumeration order.
func (idx *Index) Files() []string {
	seen := make(map[string]bool)
	var files []string
	for _, id := range idx.order {
		f := idx.byID[id].File
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

// Collisions groups nodes whose export file names are identical. Only groups
// with more than one node are returned, keyed by file name.
func (idx *Index) Collisions() map[string][]Node {
	byName := make(map[string][]Node)
	for _, n := range idx.Nodes() {
		byName[n.FileName()] = append(byName[n.FileName()], n)
	}
	for name, group := range byName {
		if len(group) < 2 {
			delete(byName, name)
		}
	}
	return byName
}
