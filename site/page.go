package site

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"go.uber.org/zap"

	"github.com/phtj/webtero/config"
	"github.com/phtj/webtero/zotero"
)

// Builder drives one page build: repository traversal, the per-fragment
// transformation pipeline, asset materialization and shell rendering. It is
// scoped to a single build and not safe for concurrent use.
type Builder struct {
	Cfg       *config.Config
	Client    *zotero.Client
	Log       *zap.Logger
	Diag      *Diagnostics
	Overwrite bool
}

// PageParts are the three rendered slots a shell template may place.
type PageParts struct {
	ButtonsHTML string
	ContentHTML string
	TOCHTML     string
}

// shellValues is the data a shell template executes against.
type shellValues struct {
	Title      string
	TabButtons string
	TabContent string
	TOC        string
}

// BuildResult summarizes a finished page build.
type BuildResult struct {
	OutputPath  string
	TabCount    int
	Assets      *MaterializeReport
	Diagnostics []Diagnostic
}

// tabView is one assembled tab with its rendered content.
type tabView struct {
	tab     *Tab
	content string
	toc     string
}

// SplitGroupPath splits a "<group>/<collection>" reference. Group names never
// contain slashes, collection names may, so the split happens at the first
// separator.
func SplitGroupPath(groupPath string) (string, string, error) {
	group, collection, found := strings.Cut(groupPath, "/")
	if !found || len(group) == 0 || len(collection) == 0 {
		return "", "", fmt.Errorf("%w: %q is not in <group>/<collection> form", ErrBadGroup, groupPath)
	}
	return group, collection, nil
}

// BuildPage generates the website for one repository collection into outDir.
// Content problems degrade the page and are recorded in diagnostics; only
// structural failures (no head item, no shell, no usable tabs) abort the
// build.
func (b *Builder) BuildPage(ctx context.Context, groupPath, outDir string) (*BuildResult, error) {
	groupName, collectionName, err := SplitGroupPath(groupPath)
	if err != nil {
		return nil, err
	}

	group, err := b.Client.GroupByName(ctx, groupName)
	if err != nil {
		return nil, err
	}
	col, err := group.CollectionByName(ctx, collectionName)
	if err != nil {
		return nil, err
	}
	b.Log.Info("Building page", zap.String("group", groupName), zap.String("collection", collectionName))

	catalog := NewCatalog()

	shell, err := b.loadShell(ctx, group, col, catalog)
	if err != nil {
		return nil, err
	}

	records, err := b.collectTabs(ctx, group, col, catalog)
	if err != nil {
		return nil, err
	}
	tabs := AssembleTabs(records, b.Diag)
	if len(tabs) == 0 {
		return nil, fmt.Errorf("%w in collection %q", ErrNoTabs, collectionName)
	}
	b.Log.Debug("Assembled tabs", zap.Int("count", len(tabs)), zap.Int("images", catalog.Len()))

	views, variants := b.renderTabs(ctx, tabs)

	materializer := &Materializer{
		Dir:     filepath.Join(outDir, b.Cfg.Site.Images.Dir),
		Quality: b.Cfg.Site.Images.JPEGQuality,
		Log:     b.Log,
	}
	assets := materializer.Materialize(ctx, variants, catalog, b.Diag)
	b.Log.Info("Materialized image variants", zap.String("result", assets.Summary()))

	page, err := renderShell(shell, col.Name, assembleParts(views))
	if err != nil {
		return nil, err
	}

	outPath, err := b.writePage(outDir, page)
	if err != nil {
		return nil, err
	}

	return &BuildResult{
		OutputPath:  outPath,
		TabCount:    len(tabs),
		Assets:      assets,
		Diagnostics: b.Diag.Entries(),
	}, nil
}

// loadShell finds the head item of the collection and downloads the HTML
// shell template attached to it. Image attachments of both the collection and
// the head item are registered in the catalog on the way.
func (b *Builder) loadShell(ctx context.Context, group *zotero.Group, col *zotero.Collection, catalog *Catalog) ([]byte, error) {
	items, err := group.Items(ctx, col, "", "")
	if err != nil {
		return nil, err
	}

	var head *zotero.Document
	for _, rec := range items {
		switch r := rec.(type) {
		case *zotero.Document:
			if head == nil && r.Title == b.Cfg.Site.HeadTitle {
				head = r
			}
		case *zotero.Attachment:
			catalog.AddAttachment(r, group)
		}
	}
	if head == nil {
		return nil, fmt.Errorf("%w: collection %q has no %q item", ErrNoHead, col.Name, b.Cfg.Site.HeadTitle)
	}

	children, err := group.Children(ctx, head.Key)
	if err != nil {
		return nil, err
	}
	var shell *zotero.Attachment
	for _, rec := range children {
		att, ok := rec.(*zotero.Attachment)
		if !ok {
			continue
		}
		if att.IsHTML() && shell == nil {
			shell = att
			continue
		}
		catalog.AddAttachment(att, group)
	}
	if shell == nil {
		return nil, fmt.Errorf("%w: item %q has no HTML attachment", ErrNoShell, head.Title)
	}
	b.Log.Debug("Found page shell", zap.String("attachment", shell.Title))
	return group.AttachmentBytes(ctx, shell.Key)
}

// collectTabs turns every sub-collection into a raw tab record: its notes
// become content fragments, its image attachments join the catalog.
func (b *Builder) collectTabs(ctx context.Context, group *zotero.Group, col *zotero.Collection, catalog *Catalog) ([]TabRecord, error) {
	subs, err := group.SubCollections(ctx, col)
	if err != nil {
		return nil, err
	}

	records := make([]TabRecord, 0, len(subs))
	for i := range subs {
		sub := &subs[i]
		items, err := group.Items(ctx, sub, "", "")
		if err != nil {
			return nil, err
		}
		var fragments []*Fragment
		for _, rec := range items {
			switch r := rec.(type) {
			case *zotero.Note:
				fragments = append(fragments, NewFragment(r.Key, r.HTML, r.Tags))
			case *zotero.Attachment:
				catalog.AddAttachment(r, group)
			}
		}
		records = append(records, TabRecord{Label: sub.Name, Fragments: fragments})
	}
	return records, nil
}

// renderTabs runs the transformation pipeline on the primary fragment of
// every tab and collects the image variants the page requires.
func (b *Builder) renderTabs(ctx context.Context, tabs []*Tab) ([]tabView, []ImageRef) {
	resolver := &ImageResolver{
		AssetDir:      b.Cfg.Site.Images.Dir,
		FullSizeBound: b.Cfg.Site.Images.FullSizeBound,
	}
	evaluator := &DirectiveEvaluator{Source: b.Client}

	var (
		views    []tabView
		variants []ImageRef
	)
	for _, tab := range tabs {
		views = append(views, b.renderTab(ctx, tab, resolver, evaluator, &variants))
	}
	return views, variants
}

func (b *Builder) renderTab(ctx context.Context, tab *Tab, resolver *ImageResolver, evaluator *DirectiveEvaluator, variants *[]ImageRef) tabView {
	view := tabView{tab: tab, content: PlaceholderHTML}

	fragment := tab.Primary(b.Cfg.Site.MainTextTag, b.Diag)
	if fragment == nil {
		b.Diag.Add(ParseFailure, tab.Name, "tab has no content fragments", nil)
		return view
	}
	if err := fragment.Parse(); err != nil {
		b.Diag.Add(ParseFailure, fragment.ID, "fragment replaced by placeholder", err)
		return view
	}

	fragment.ResolveImages(resolver)
	fragment.IndexHeadings(&HeadingIndexer{Prefix: tab.AnchorID}, b.Diag)
	fragment.EvaluateDirectives(ctx, evaluator, b.Diag)

	content, err := fragment.Render()
	if err != nil {
		b.Diag.Add(ParseFailure, fragment.ID, "fragment replaced by placeholder", err)
		return view
	}

	view.content = content
	view.toc = fragment.TOCHTML
	*variants = append(*variants, fragment.Variants...)
	return view
}

// assembleParts renders the tab strip and per-tab content containers. The
// fragment TOC is embedded ahead of the content and also exposed separately
// for shells with a dedicated TOC slot.
func assembleParts(views []tabView) PageParts {
	var buttons, content, toc strings.Builder
	for _, v := range views {
		fmt.Fprintf(&buttons, "<li><a href='#%s'>%s</a></li>\n", v.tab.AnchorID, html.EscapeString(v.tab.Name))
		fmt.Fprintf(&content, "<div class='tab-content' id='%s'>\n%s%s</div>\n", v.tab.AnchorID, v.toc, v.content)
		toc.WriteString(v.toc)
	}
	return PageParts{
		ButtonsHTML: buttons.String(),
		ContentHTML: content.String(),
		TOCHTML:     toc.String(),
	}
}

// renderShell executes the downloaded shell template against the assembled
// page parts.
func renderShell(shell []byte, title string, parts PageParts) (string, error) {
	tmpl, err := template.New("shell").Funcs(sprig.FuncMap()).Parse(string(shell))
	if err != nil {
		return "", fmt.Errorf("unable to parse page shell: %w", err)
	}
	var out strings.Builder
	err = tmpl.Execute(&out, shellValues{
		Title:      title,
		TabButtons: parts.ButtonsHTML,
		TabContent: parts.ContentHTML,
		TOC:        parts.TOCHTML,
	})
	if err != nil {
		return "", fmt.Errorf("unable to render page shell: %w", err)
	}
	return out.String(), nil
}

func (b *Builder) writePage(outDir, page string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("unable to create output directory: %w", err)
	}
	outPath := filepath.Join(outDir, config.CleanFileName(b.Cfg.Site.OutputName))
	if !b.Overwrite {
		if _, err := os.Stat(outPath); err == nil {
			return "", fmt.Errorf("output file %s already exists, use --ow to overwrite", outPath)
		}
	}
	if err := os.WriteFile(outPath, []byte(page), 0644); err != nil {
		return "", fmt.Errorf("unable to write page: %w", err)
	}
	return outPath, nil
}
