// Package links rewrites org-roam id links into relative Markdown file links.
//
// A link token looks like [[id:<ID>][<DISPLAY>]]. After rewriting it reads
// [[./<Title>.md][<DISPLAY>]] with spaces in the title percent-encoded. The
// rewritten form never matches the token grammar, so rewriting is idempotent.
package links

import (
	"regexp"
	"strings"

	"roamexport/internal/index"
)

// tokenRe matches one id link. org-roam ids are UUIDs, upper or lower case
// depending on the generator, so the id class is alphanumerics and dashes.
var tokenRe = regexp.MustCompile(`\[\[id:([0-9A-Za-z-]+?)\]\[([^\]]+?)\]\]`)

// Resolver finds the destination node of an id link.
type Resolver interface {
	Resolve(id, sourceFile string) (index.Node, error)
}

// Token is one id link found in a document.
type Token struct {
	ID      string
	Display string
	Start   int // byte offset of the opening "[["
	End     int // byte offset just past the closing "]]"
}

// Scan returns every id link in text, in document order.
func Scan(text string) []Token {
	matches := tokenRe.FindAllStringSubmatchIndex(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, Token{
			ID:      text[m[2]:m[3]],
			Display: text[m[4]:m[5]],
			Start:   m[0],
			End:     m[1],
		})
	}
	return tokens
}

// Destination returns the relative link target for a node title.
func Destination(title string) string {
	return "./" + strings.ReplaceAll(title, " ", "%20") + ".md"
}

// Rewrite replaces every id link in text with a link to the destination
// node's export file. sourceFile is only used to name the file in errors.
// It returns the new text and the number of links rewritten. The first id
// that cannot be resolved aborts the rewrite.
func Rewrite(text, sourceFile string, r Resolver) (string, int, error) {
	tokens := Scan(text)
	if len(tokens) == 0 {
		return text, 0, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, tok := range tokens {
		target, err := r.Resolve(tok.ID, sourceFile)
		if err != nil {
			return "", 0, err
		}
		b.WriteString(text[last:tok.Start])
		b.WriteString("[[")
		b.WriteString(Destination(target.Title))
		b.WriteString("][")
		b.WriteString(tok.Display)
		b.WriteString("]]")
		last = tok.End
	}
	b.WriteString(text[last:])
	return b.String(), len(tokens), nil
}

// Dangling returns the tokens in text whose ids the resolver cannot find.
func Dangling(text, sourceFile string, r Resolver) []Token {
	var out []Token
	for _, tok := range Scan(text) {
		if _, err := r.Resolve(tok.ID, sourceFile); err != nil {
			out = append(out, tok)
		}
	}
	return out
}
