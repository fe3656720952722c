package fonts

import (
	"os"
	"path/filepath"
)

// ListFontFiles returns the immediate entries of every existing directory in
// dirs as full paths. Directories are visited in the given order and entries
// keep os.ReadDir order; missing or unreadable directories are skipped.
func ListFontFiles(dirs []string) []string {
	files := []string{}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files
}
