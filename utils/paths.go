package utils

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// FindPNGs walks root and returns every regular file whose name ends in
// ".png", in lexical order. The suffix match is case sensitive. A non-empty
// skip names a directory below root that is not descended into.
func FindPNGs(root, skip string) ([]string, error) {
	var skipDir string
	if skip != "" {
		skipDir = filepath.Clean(filepath.Join(root, skip))
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir != "" && filepath.Clean(path) == skipDir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), ".png") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// SubfolderPath maps file below root into root/folder, keeping the
// relative directory structure.
func SubfolderPath(root, file, folder string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, folder, rel), nil
}

// SuffixedPath inserts suffix between the stem and the extension of file:
// "a/b.png" with "_processed" gives "a/b_processed.png".
func SuffixedPath(file, suffix string) string {
	ext := filepath.Ext(file)
	return strings.TrimSuffix(file, ext) + suffix + ext
}
