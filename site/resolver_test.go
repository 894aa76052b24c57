package site

import (
	"strings"
	"testing"
)

func TestImageResolver(t *testing.T) {
	doc := parseTestDoc(t, `<div><p>before</p><img src="files/photo_w300.jpg"/><img src="photo_w300.jpg"/><img src="logo.png"/></div>`)
	root := doc.Root()

	r := &ImageResolver{AssetDir: "img", FullSizeBound: 1200}
	variants := r.Resolve(root)

	// two references to the same variant collapse, each logical image adds a
	// full size variant
	want := []ImageRef{
		{CanonicalTitle: "photo.jpg", Width: 300},
		{CanonicalTitle: "photo.jpg", Width: 1200, Height: 1200},
		{CanonicalTitle: "logo.png"},
		{CanonicalTitle: "logo.png", Width: 1200, Height: 1200},
	}
	if len(variants) != len(want) {
		t.Fatalf("Resolve() returned %d variants, want %d: %+v", len(variants), len(want), variants)
	}
	for i, v := range variants {
		if v != want[i] {
			t.Errorf("variant %d = %+v, want %+v", i, v, want[i])
		}
	}

	out, err := doc.WriteToString()
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	for _, substr := range []string{
		`src="img/photo_w300.jpg"`,
		`href="img/photo_w1200_h1200.jpg"`,
		`src="img/logo.png"`,
		`href="img/logo_w1200_h1200.png"`,
		`class="full-size"`,
	} {
		if !strings.Contains(out, substr) {
			t.Errorf("output does not contain %q:\n%s", substr, out)
		}
	}
	if !strings.Contains(out, "before") {
		t.Errorf("sibling content lost:\n%s", out)
	}
}

func TestImageResolverRemovesSourcelessImages(t *testing.T) {
	root := parseTestDoc(t, `<div><img/><p>kept</p></div>`).Root()

	variants := (&ImageResolver{AssetDir: "img", FullSizeBound: 1200}).Resolve(root)
	if len(variants) != 0 {
		t.Errorf("Resolve() returned %d variants, want 0", len(variants))
	}
	if img := root.FindElement("//img"); img != nil {
		t.Error("sourceless img element was not removed")
	}
	if p := root.FindElement("//p"); p == nil {
		t.Error("sibling element was removed")
	}
}

func TestImageResolverPreservesDocumentOrder(t *testing.T) {
	root := parseTestDoc(t, `<div><p>a</p><img src="one.png"/><p>b</p></div>`).Root()

	(&ImageResolver{AssetDir: "img", FullSizeBound: 800}).Resolve(root)

	var tags []string
	for _, child := range root.ChildElements() {
		tags = append(tags, child.Tag)
	}
	if got, want := strings.Join(tags, ","), "p,a,p"; got != want {
		t.Errorf("child order = %s, want %s", got, want)
	}
}
