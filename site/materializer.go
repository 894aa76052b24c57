package site

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Materializer produces variant files on the asset store. Bytes for one
// canonical asset are fetched at most once per build, a group whose variants
// all exist on disk is skipped without touching the network, and any
// per-variant failure leaves sibling variants unaffected.
type Materializer struct {
	Dir     string // directory variants are written to
	Quality int    // JPEG encode quality
	Log     *zap.Logger
}

// MaterializeReport lists what happened to each requested variant. It feeds
// diagnostics and the debug report, page construction never depends on it.
type MaterializeReport struct {
	Materialized []string
	Skipped      []string
	Failed       []string
}

func (r *MaterializeReport) sorted() {
	for _, l := range [][]string{r.Materialized, r.Skipped, r.Failed} {
		sort.Slice(l, func(i, j int) bool { return natural.Less(l[i], l[j]) })
	}
}

// Summary is a one-line human readable digest for logs.
func (r *MaterializeReport) Summary() string {
	return fmt.Sprintf("%d materialized, %d skipped, %d failed",
		len(r.Materialized), len(r.Skipped), len(r.Failed))
}

type variantGroup struct {
	title    string
	variants []ImageRef
}

// groupByTitle splits variants into per-asset groups keeping first-seen order
// of both groups and members.
func groupByTitle(variants []ImageRef) []variantGroup {
	index := make(map[string]int)
	var groups []variantGroup
	for _, v := range variants {
		i, ok := index[v.CanonicalTitle]
		if !ok {
			i = len(groups)
			index[v.CanonicalTitle] = i
			groups = append(groups, variantGroup{title: v.CanonicalTitle})
		}
		groups[i].variants = append(groups[i].variants, v)
	}
	return groups
}

// Materialize ensures every requested variant exists on disk. Calling it a
// second time with the same variant set performs no fetches and no writes.
func (m *Materializer) Materialize(ctx context.Context, variants []ImageRef, catalog *Catalog, diag *Diagnostics) *MaterializeReport {
	report := &MaterializeReport{}
	defer report.sorted()

	if len(variants) == 0 {
		return report
	}
	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		for _, v := range variants {
			diag.Add(MaterializationFailure, v.TargetName(), "asset directory not accessible", err)
			report.Failed = append(report.Failed, v.TargetName())
		}
		return report
	}

	for _, group := range groupByTitle(variants) {
		var missing []ImageRef
		for _, v := range group.variants {
			if m.exists(v) {
				report.Skipped = append(report.Skipped, v.TargetName())
			} else {
				missing = append(missing, v)
			}
		}
		// the idempotence guarantee: a fully materialized group costs nothing
		if len(missing) == 0 {
			continue
		}

		entry, ok := catalog.Lookup(group.title)
		if !ok {
			for _, v := range group.variants {
				diag.Add(MissingAsset, group.title, fmt.Sprintf("no attachment for variant %s", v.TargetName()), nil)
				report.Failed = append(report.Failed, v.TargetName())
			}
			continue
		}

		data, err := entry.Bytes(ctx)
		if err != nil {
			for _, v := range missing {
				diag.Add(MaterializationFailure, v.TargetName(), "fetch failed", err)
				report.Failed = append(report.Failed, v.TargetName())
			}
			continue
		}

		if isSVG(group.title, data) {
			m.materializeSVG(data, missing, report, diag)
			continue
		}
		m.materializeRaster(group.title, data, missing, report, diag)
	}
	return report
}

func (m *Materializer) exists(ref ImageRef) bool {
	info, err := os.Stat(filepath.Join(m.Dir, ref.TargetName()))
	return err == nil && info.Mode().IsRegular()
}

func (m *Materializer) materializeRaster(title string, data []byte, missing []ImageRef, report *MaterializeReport, diag *Diagnostics) {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		m.Log.Debug("Detected attachment type", zap.String("title", title), zap.String("type", kind.MIME.Value))
	}
	if !filetype.IsImage(data) {
		for _, v := range missing {
			diag.Add(MaterializationFailure, v.TargetName(), "attachment content is not an image", nil)
			report.Failed = append(report.Failed, v.TargetName())
		}
		return
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		for _, v := range missing {
			diag.Add(MaterializationFailure, v.TargetName(), "decode failed", err)
			report.Failed = append(report.Failed, v.TargetName())
		}
		return
	}
	m.Log.Debug("Decoded image", zap.String("title", title), zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))

	for _, v := range missing {
		w, h := fitSize(img.Bounds().Dx(), img.Bounds().Dy(), v.Width, v.Height)
		out := img
		if w != img.Bounds().Dx() || h != img.Bounds().Dy() {
			out = imaging.Resize(img, w, h, imaging.Lanczos)
		}
		if err := m.write(v, out); err != nil {
			diag.Add(MaterializationFailure, v.TargetName(), "write failed", err)
			report.Failed = append(report.Failed, v.TargetName())
			continue
		}
		report.Materialized = append(report.Materialized, v.TargetName())
	}
}

func (m *Materializer) materializeSVG(data []byte, missing []ImageRef, report *MaterializeReport, diag *Diagnostics) {
	for _, v := range missing {
		img, err := rasterizeSVG(data, v.Width, v.Height)
		if err != nil {
			diag.Add(MaterializationFailure, v.TargetName(), "svg rasterization failed", err)
			report.Failed = append(report.Failed, v.TargetName())
			continue
		}
		if err := m.write(v, img); err != nil {
			diag.Add(MaterializationFailure, v.TargetName(), "write failed", err)
			report.Failed = append(report.Failed, v.TargetName())
			continue
		}
		report.Materialized = append(report.Materialized, v.TargetName())
	}
}

func (m *Materializer) write(ref ImageRef, img image.Image) error {
	name := ref.TargetName()
	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		return fmt.Errorf("unsupported output format for %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	err = imaging.Encode(buf, img, format,
		imaging.JPEGQuality(m.Quality),
		imaging.PNGCompressionLevel(png.BestCompression))
	if err != nil {
		return fmt.Errorf("unable to encode %s: %w", name, err)
	}
	return os.WriteFile(filepath.Join(m.Dir, name), buf.Bytes(), 0644)
}

// fitSize computes the output size for native (nw,nh) under optional bounds.
// Scaling is always uniform. With both bounds set the smaller of the two
// candidate scalings wins, which is exactly the candidate with the smaller
// resulting area, so both bounds hold. Images are never upscaled.
func fitSize(nw, nh, bw, bh int) (int, int) {
	if nw <= 0 || nh <= 0 {
		return nw, nh
	}
	scale := 1.0
	switch {
	case bw > 0 && bh > 0:
		scale = math.Min(float64(bw)/float64(nw), float64(bh)/float64(nh))
	case bw > 0:
		scale = float64(bw) / float64(nw)
	case bh > 0:
		scale = float64(bh) / float64(nh)
	}
	if scale >= 1.0 {
		return nw, nh
	}
	w := max(int(math.Round(float64(nw)*scale)), 1)
	h := max(int(math.Round(float64(nh)*scale)), 1)

	// rounding must not break the bounds
	if bw > 0 && w > bw {
		w = bw
	}
	if bh > 0 && h > bh {
		h = bh
	}
	return w, h
}

func isSVG(title string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(title), ".svg") {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}
