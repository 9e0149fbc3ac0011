package toc

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/npillmayer/szenar/check"
	"github.com/npillmayer/szenar/doctree"
	"golang.org/x/text/unicode/norm"
)

// Entry is one heading in the table of contents.
type Entry struct {
	Title    string
	Slug     string // anchor id, unique within the document
	Level    int
	Line     int
	Heading  *doctree.Node
	Children []*Entry
}

// Stats summarizes a built table of contents.
type Stats struct {
	Entries  int // number of headings
	Levels   int // number of distinct heading levels in use
	MaxDepth int // deepest nesting of the entry hierarchy
}

// TOC is the table of contents of one document.
type TOC struct {
	Entries []*Entry // top-level entries in reading order
	Stats   Stats
	defects []check.Diagnostic
}

// Defects lists slug collisions between headings. Colliding slugs are
// disambiguated, never dropped, so these are informational.
func (t *TOC) Defects() []check.Diagnostic {
	return t.defects
}

// Empty is true when the table has too few entries to be worth showing.
// A lone heading gives no overview; renderers skip the TOC then.
func (t *TOC) Empty() bool {
	return t.Stats.Entries < 2
}

// InDocumentOrder flattens the entry hierarchy back into reading order.
func (t *TOC) InDocumentOrder() []*Entry {
	var flat []*Entry
	var stack []*Entry
	for i := len(t.Entries) - 1; i >= 0; i-- {
		stack = append(stack, t.Entries[i])
	}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		flat = append(flat, e)
		for i := len(e.Children) - 1; i >= 0; i-- {
			stack = append(stack, e.Children[i])
		}
	}
	return flat
}

// Build walks the document tree and assembles the table of contents.
// Headings anywhere in the tree take part, nested ones included. As a
// side effect every heading node gets its slug assigned as anchor id.
func Build(root *doctree.Node) *TOC {
	t := &TOC{}
	taken := make(map[string]bool)
	open := arraystack.New() // *Entry, innermost heading on top
	levels := make(map[int]bool)
	doctree.Walk(root, func(n *doctree.Node) bool {
		if n.Kind != doctree.HeadingNode {
			return true
		}
		entry := &Entry{
			Title:   strings.TrimSpace(doctree.InnerText(n)),
			Level:   n.Level,
			Line:    n.Line,
			Heading: n,
		}
		entry.Slug = t.claimSlug(taken, entry)
		n.ID = entry.Slug
		levels[entry.Level] = true

		for {
			top, ok := open.Peek()
			if !ok {
				break
			}
			if top.(*Entry).Level < entry.Level {
				break
			}
			open.Pop()
		}
		if top, ok := open.Peek(); ok {
			parent := top.(*Entry)
			parent.Children = append(parent.Children, entry)
		} else {
			t.Entries = append(t.Entries, entry)
		}
		open.Push(entry)
		t.Stats.Entries++
		if depth := open.Size(); depth > t.Stats.MaxDepth {
			t.Stats.MaxDepth = depth
		}
		return true
	})
	t.Stats.Levels = len(levels)
	tracer().Debugf("table of contents: %d entries over %d level(s)", t.Stats.Entries, t.Stats.Levels)
	return t
}

// claimSlug derives the entry's anchor and reserves it. A slug already
// claimed by an earlier heading gets a numeric suffix instead.
func (t *TOC) claimSlug(taken map[string]bool, entry *Entry) string {
	slug := slugify(entry.Title)
	if !taken[slug] {
		taken[slug] = true
		return slug
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", slug, i)
		if !taken[candidate] {
			taken[candidate] = true
			t.defects = append(t.defects, check.Diagnostic{
				Line:     entry.Line,
				Column:   1,
				Severity: check.Info,
				Kind:     check.SlugCollision,
				Message: fmt.Sprintf("heading %q shares its anchor with an earlier heading — linked as %q",
					entry.Title, candidate),
			})
			return candidate
		}
	}
}

// slugify maps a heading title onto a URL-safe anchor: compatibility
// normalization first, so full-width letters and digits match their
// half-width forms, then letters and digits survive lowercased and
// everything between collapses into single dashes.
func slugify(title string) string {
	var b strings.Builder
	dash := true // swallow leading dashes
	for _, r := range norm.NFKC.String(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			dash = false
		default:
			if !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "section"
	}
	return slug
}
