package site

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// FragmentState tracks pipeline progress of one content fragment. Failures
// past Parsed degrade the fragment in place, they never move it backwards.
type FragmentState int

const (
	StateRaw FragmentState = iota
	StateParsed
	StateImagesResolved
	StateHeadingsIndexed
	StateDirectivesEvaluated
	StateRendered
)

// PlaceholderHTML substitutes fragments that could not be parsed at all.
const PlaceholderHTML = "<p>No content found.</p>"

// Fragment is one unit of raw note content on its way to publishable HTML.
// All fields are build-scoped.
type Fragment struct {
	ID   string
	Tags []string

	raw   string
	state FragmentState
	doc   *etree.Document
	root  *etree.Element // the div.html-content wrapper

	// outputs of pipeline stages
	Variants []ImageRef
	TOC      []TOCEntry
	TOCHTML  string
}

func NewFragment(id, rawHTML string, tags []string) *Fragment {
	return &Fragment{ID: id, Tags: tags, raw: rawHTML, state: StateRaw}
}

func (f *Fragment) State() FragmentState { return f.state }

// HasTag reports whether the source note carried the given tag.
func (f *Fragment) HasTag(name string) bool {
	for _, t := range f.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// Parse reads the raw note markup into a DOM. Notes arrive either as bare
// element sequences or as full documents; in both cases the usable content
// ends up as children of a fresh div.html-content wrapper. Old notes often
// carry HTML named entities and loose markup, so parsing is permissive.
func (f *Fragment) Parse() error {
	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Entity:        htmlNamedEntities,
		ValidateInput: false,
		Permissive:    true,
	}

	// the wrapper guarantees a single root no matter how many top level
	// elements the note has
	if err := doc.ReadFromString(`<div class="html-content">` + f.raw + `</div>`); err != nil {
		return fmt.Errorf("unable to parse fragment %s: %w", f.ID, err)
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("unable to parse fragment %s: no content", f.ID)
	}

	// full documents contribute only their body content
	if body := root.FindElement("//body"); body != nil {
		wrapper := etree.NewElement("div")
		wrapper.CreateAttr("class", "html-content")
		for _, tok := range append([]etree.Token(nil), body.Child...) {
			wrapper.AddChild(tok)
		}
		doc = etree.NewDocument()
		doc.WriteSettings = etree.WriteSettings{CanonicalText: true, CanonicalAttrVal: true}
		doc.AddChild(wrapper)
		root = wrapper
	}

	f.doc = doc
	f.root = root
	f.state = StateParsed
	return nil
}

// ResolveImages rewrites image tags and records required asset variants.
func (f *Fragment) ResolveImages(resolver *ImageResolver) {
	if f.state < StateParsed {
		return
	}
	f.Variants = resolver.Resolve(f.root)
	f.state = StateImagesResolved
}

// IndexHeadings assigns heading anchors and builds the fragment TOC.
func (f *Fragment) IndexHeadings(indexer *HeadingIndexer, diag *Diagnostics) {
	if f.state < StateParsed {
		return
	}
	f.TOC = indexer.Index(f.root)
	tocHTML, err := RenderTOC(f.TOC)
	if err != nil {
		// never happens with an in-memory writer, but do not lose it silently
		diag.Add(ParseFailure, f.ID, "unable to render TOC", err)
		tocHTML = ""
	}
	f.TOCHTML = tocHTML
	f.state = StateHeadingsIndexed
}

// EvaluateDirectives replaces directive pre blocks with rendered lists. A
// failed block stays in the document with an explanatory comment ahead of
// it, sibling blocks are unaffected.
func (f *Fragment) EvaluateDirectives(ctx context.Context, ev *DirectiveEvaluator, diag *Diagnostics) {
	if f.state < StateParsed {
		return
	}
	for _, pre := range f.root.FindElements("//pre") {
		parent := pre.Parent()
		idx := pre.Index()

		rendered, err := ev.Evaluate(ctx, textContent(pre), diag)
		if err != nil {
			diag.Add(DirectiveFailure, f.ID, "directive block left unrendered", err)
			parent.InsertChildAt(idx, etree.NewComment(fmt.Sprintf(" directive failed: %v ", err)))
			continue
		}

		sub := etree.NewDocument()
		sub.ReadSettings = etree.ReadSettings{Permissive: true}
		if err := sub.ReadFromString(rendered); err != nil || sub.Root() == nil {
			diag.Add(DirectiveFailure, f.ID, "unable to parse rendered directive output", err)
			parent.InsertChildAt(idx, etree.NewComment(" directive failed: unrenderable output "))
			continue
		}
		parent.InsertChildAt(idx, sub.Root().Copy())
		parent.RemoveChild(pre)
	}
	f.state = StateDirectivesEvaluated
}

// Render serializes the transformed fragment. Fragments that never parsed
// render as the fixed placeholder.
func (f *Fragment) Render() (string, error) {
	if f.state < StateParsed {
		return PlaceholderHTML, nil
	}
	out, err := f.doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("unable to render fragment %s: %w", f.ID, err)
	}
	f.state = StateRendered
	return out, nil
}
