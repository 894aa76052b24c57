package site

import (
	"strings"
	"testing"
)

func TestSplitGroupPath(t *testing.T) {
	tests := []struct {
		path       string
		group      string
		collection string
		wantErr    bool
	}{
		{"Lab Websites/Main Site", "Lab Websites", "Main Site", false},
		{"Group/Nested/Collection", "Group", "Nested/Collection", false},
		{"NoSeparator", "", "", true},
		{"/Collection", "", "", true},
		{"Group/", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			group, collection, err := SplitGroupPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitGroupPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if group != tt.group || collection != tt.collection {
				t.Errorf("SplitGroupPath(%q) = (%q, %q), want (%q, %q)", tt.path, group, collection, tt.group, tt.collection)
			}
		})
	}
}

func TestAssembleParts(t *testing.T) {
	views := []tabView{
		{tab: &Tab{Name: "Home", AnchorID: "home"}, content: "<p>welcome</p>", toc: "<div class='toc'>home toc</div>"},
		{tab: &Tab{Name: "R&D", AnchorID: "r-d"}, content: "<p>research</p>"},
	}

	parts := assembleParts(views)

	for _, want := range []string{`<li><a href='#home'>Home</a></li>`, `<li><a href='#r-d'>R&amp;D</a></li>`} {
		if !strings.Contains(parts.ButtonsHTML, want) {
			t.Errorf("buttons missing %q:\n%s", want, parts.ButtonsHTML)
		}
	}
	for _, want := range []string{`id='home'`, `id='r-d'`, "welcome", "research", "home toc"} {
		if !strings.Contains(parts.ContentHTML, want) {
			t.Errorf("content missing %q:\n%s", want, parts.ContentHTML)
		}
	}
	if !strings.Contains(parts.TOCHTML, "home toc") {
		t.Errorf("TOC slot missing per-tab TOC:\n%s", parts.TOCHTML)
	}
	// tab strip order follows view order
	if strings.Index(parts.ButtonsHTML, "Home") > strings.Index(parts.ButtonsHTML, "R&amp;D") {
		t.Errorf("buttons out of order:\n%s", parts.ButtonsHTML)
	}
}

func TestRenderShell(t *testing.T) {
	shell := []byte(`<html><head><title>{{.Title}}</title></head><body><ul id="tabs">{{.TabButtons}}</ul>{{.TabContent}}</body></html>`)
	parts := PageParts{
		ButtonsHTML: "<li><a href='#home'>Home</a></li>",
		ContentHTML: "<div id='home'><p>welcome</p></div>",
	}

	out, err := renderShell(shell, "My Site", parts)
	if err != nil {
		t.Fatalf("renderShell() error = %v", err)
	}
	for _, want := range []string{"<title>My Site</title>", "#home", "welcome"} {
		if !strings.Contains(out, want) {
			t.Errorf("shell output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderShellTemplateFunctions(t *testing.T) {
	shell := []byte(`<title>{{upper .Title}}</title>`)
	out, err := renderShell(shell, "my site", PageParts{})
	if err != nil {
		t.Fatalf("renderShell() error = %v", err)
	}
	if !strings.Contains(out, "MY SITE") {
		t.Errorf("template function not applied:\n%s", out)
	}
}

func TestRenderShellMalformedTemplate(t *testing.T) {
	if _, err := renderShell([]byte(`{{.Title`), "x", PageParts{}); err == nil {
		t.Error("renderShell() accepted malformed template")
	}
}
