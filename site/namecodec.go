package site

import (
	"fmt"
	"path"
	"strings"
)

// ImageRef identifies one concrete variant of a logical image. A zero bound
// means "no limit on that axis". The canonical title names the logical image
// regardless of requested size, so "photo_w300.jpg" and "photo_w1200_h1200.jpg"
// both resolve to "photo.jpg".
type ImageRef struct {
	CanonicalTitle string
	Width          int
	Height         int
}

// DecodeImageName parses the filename size-hint convention
// "<base>[_w<digits>][_h<digits>].<ext>". Unrecognized underscore tokens are
// ignored so that future hints do not break older builds.
func DecodeImageName(filename string) ImageRef {
	ext := path.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	tokens := strings.Split(stem, "_")
	ref := ImageRef{CanonicalTitle: tokens[0] + ext}
	for _, tok := range tokens[1:] {
		if len(tok) < 2 {
			continue
		}
		n, ok := digits(tok[1:])
		if !ok {
			continue
		}
		switch tok[0] {
		case 'w':
			ref.Width = n
		case 'h':
			ref.Height = n
		}
	}
	return ref
}

// EncodeImageName is the inverse of DecodeImageName for any name it produces:
// width token first, height token second, hints between base name and
// extension.
func EncodeImageName(ref ImageRef) string {
	ext := path.Ext(ref.CanonicalTitle)
	base := strings.TrimSuffix(ref.CanonicalTitle, ext)

	var b strings.Builder
	b.WriteString(base)
	if ref.Width > 0 {
		fmt.Fprintf(&b, "_w%d", ref.Width)
	}
	if ref.Height > 0 {
		fmt.Fprintf(&b, "_h%d", ref.Height)
	}
	b.WriteString(ext)
	return b.String()
}

// TargetName returns the variant file name on the asset store. SVG sources
// are rasterized during materialization, so their variants live under a .png
// name; everything else keeps its extension. The result is a pure function
// of (title, width, height) - the deduplication key.
func (ref ImageRef) TargetName() string {
	name := EncodeImageName(ref)
	if strings.EqualFold(path.Ext(name), ".svg") {
		name = strings.TrimSuffix(name, path.Ext(name)) + ".png"
	}
	return name
}

// TargetPath returns the variant location under the asset directory using
// forward slashes, suitable both for href/src attributes and, joined by the
// caller, for disk access.
func (ref ImageRef) TargetPath(dir string) string {
	return path.Join(dir, ref.TargetName())
}

func digits(s string) (int, bool) {
	if len(s) == 0 {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return 0, false
	}
	return n, true
}
