package site

import (
	"path"

	"github.com/beevik/etree"
)

// ImageResolver rewrites <img> references to point at materialized local
// variants. Every reference needs two variants: the size the note asked for
// via filename hints, and a large one behind a "view full size" link. Whether
// a variant actually has to be produced is decided later by the materializer,
// the resolver only collects requirements.
type ImageResolver struct {
	// href/src prefix of the asset directory, e.g. "img"
	AssetDir string
	// bound (both axes) of the full-size variant
	FullSizeBound int
}

// Resolve walks all image tags of the parsed fragment in document order,
// rewrites them in place and returns required variants, deduplicated but in
// first-seen order. Image tags without src are removed from the document.
func (r *ImageResolver) Resolve(root *etree.Element) []ImageRef {
	var (
		variants []ImageRef
		seen     = make(map[ImageRef]struct{})
	)
	require := func(ref ImageRef) {
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		variants = append(variants, ref)
	}

	for _, img := range root.FindElements("//img") {
		src := img.SelectAttrValue("src", "")
		if len(src) == 0 {
			// an image we can never resolve has no place in the output
			img.Parent().RemoveChild(img)
			continue
		}

		small := DecodeImageName(path.Base(src))
		big := ImageRef{CanonicalTitle: small.CanonicalTitle, Width: r.FullSizeBound, Height: r.FullSizeBound}
		require(small)
		require(big)

		img.CreateAttr("src", small.TargetPath(r.AssetDir))

		// wrap in a full size link preserving document position
		parent := img.Parent()
		idx := img.Index()
		link := etree.NewElement("a")
		link.CreateAttr("href", big.TargetPath(r.AssetDir))
		link.CreateAttr("class", "full-size")
		parent.InsertChildAt(idx, link)
		parent.RemoveChild(img)
		link.AddChild(img)
	}
	return variants
}
