package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Create packs all regular files under dir into a zip archive at zipPath,
// with entry names relative to dir. An existing archive at zipPath is
// replaced.
func Create(zipPath, dir string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("unable to create archive: %w", err)
	}
	defer out.Close()

	arc := zip.NewWriter(out)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			// links, sockets, etc. have no place in a published site
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		w, err := arc.CreateHeader(&zip.FileHeader{
			Name:     filepath.ToSlash(rel),
			Method:   zip.Deflate,
			Modified: info.ModTime(),
		})
		if err != nil {
			return err
		}

		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()

		_, err = io.Copy(w, in)
		return err
	})
	if err != nil {
		arc.Close()
		return fmt.Errorf("unable to archive %s: %w", dir, err)
	}
	if err := arc.Close(); err != nil {
		return fmt.Errorf("unable to finalize archive: %w", err)
	}
	return out.Sync()
}
