package site

import (
	"testing"

	"go.uber.org/zap"
)

func TestParseTabLabel(t *testing.T) {
	tests := []struct {
		label    string
		wantKey  int
		wantName string
		wantErr  bool
	}{
		{"1_Home", 1, "Home", false},
		{"2_About", 2, "About", false},
		{"10_Publications", 10, "Publications", false},
		{"About", 0, "", true},
		{"x_About", 0, "", true},
		{"1_About_Us", 0, "", true},
		{"_About", 0, "", true},
		{"", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			key, name, err := ParseTabLabel(tt.label)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTabLabel(%q) error = %v, wantErr %v", tt.label, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if key != tt.wantKey || name != tt.wantName {
				t.Errorf("ParseTabLabel(%q) = (%d, %q), want (%d, %q)", tt.label, key, name, tt.wantKey, tt.wantName)
			}
		})
	}
}

func TestAssembleTabs(t *testing.T) {
	diag := NewDiagnostics(zap.NewNop())
	tabs := AssembleTabs([]TabRecord{
		{Label: "2_About"},
		{Label: "1_Home"},
		{Label: "misnamed"},
	}, diag)

	if len(tabs) != 2 {
		t.Fatalf("AssembleTabs() returned %d tabs, want 2", len(tabs))
	}
	if tabs[0].Name != "Home" || tabs[1].Name != "About" {
		t.Errorf("tab order = %s, %s, want Home, About", tabs[0].Name, tabs[1].Name)
	}
	if tabs[0].AnchorID != "home" || tabs[1].AnchorID != "about" {
		t.Errorf("tab anchors = %s, %s, want home, about", tabs[0].AnchorID, tabs[1].AnchorID)
	}
	if got := diag.Count(TabSortKeyFailure); got != 1 {
		t.Errorf("recorded %d sort key failures, want 1", got)
	}
}

func TestAssembleTabsStableOnTies(t *testing.T) {
	diag := NewDiagnostics(zap.NewNop())
	tabs := AssembleTabs([]TabRecord{
		{Label: "1_First"},
		{Label: "1_Second"},
		{Label: "1_Third"},
	}, diag)

	if len(tabs) != 3 {
		t.Fatalf("AssembleTabs() returned %d tabs, want 3", len(tabs))
	}
	for i, want := range []string{"First", "Second", "Third"} {
		if tabs[i].Name != want {
			t.Errorf("tab %d = %s, want %s", i, tabs[i].Name, want)
		}
	}
}

func TestTabPrimary(t *testing.T) {
	main := func(id string) *Fragment { return NewFragment(id, "<p>x</p>", []string{"main-text"}) }
	plain := func(id string) *Fragment { return NewFragment(id, "<p>x</p>", nil) }

	t.Run("no fragments", func(t *testing.T) {
		diag := NewDiagnostics(zap.NewNop())
		tab := &Tab{Name: "Home"}
		if got := tab.Primary("main-text", diag); got != nil {
			t.Errorf("Primary() = %v, want nil", got)
		}
	})

	t.Run("single fragment needs no tag", func(t *testing.T) {
		diag := NewDiagnostics(zap.NewNop())
		tab := &Tab{Name: "Home", Fragments: []*Fragment{plain("only")}}
		if got := tab.Primary("main-text", diag); got == nil || got.ID != "only" {
			t.Errorf("Primary() = %v, want fragment 'only'", got)
		}
		if len(diag.Entries()) != 0 {
			t.Errorf("unexpected diagnostics: %v", diag.Entries())
		}
	})

	t.Run("tagged fragment wins", func(t *testing.T) {
		diag := NewDiagnostics(zap.NewNop())
		tab := &Tab{Name: "Home", Fragments: []*Fragment{plain("a"), main("b"), plain("c")}}
		if got := tab.Primary("main-text", diag); got == nil || got.ID != "b" {
			t.Errorf("Primary() = %v, want fragment 'b'", got)
		}
	})

	t.Run("fallback to first is recorded", func(t *testing.T) {
		diag := NewDiagnostics(zap.NewNop())
		tab := &Tab{Name: "Home", Fragments: []*Fragment{plain("a"), plain("b")}}
		if got := tab.Primary("main-text", diag); got == nil || got.ID != "a" {
			t.Errorf("Primary() = %v, want fragment 'a'", got)
		}
		if len(diag.Entries()) != 1 {
			t.Errorf("recorded %d diagnostics, want 1", len(diag.Entries()))
		}
	})
}
