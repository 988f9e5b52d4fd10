package batch

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hevc-convert/config"
)

// hasCandidateExt reports whether the file name carries one of the
// container extensions the batch considers.
func hasCandidateExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range config.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// collectFiles walks root depth-first and returns every candidate video
// file. Directories and files are visited in case-insensitive name order
// so runs are repeatable across filesystems.
func collectFiles(root string) ([]string, error) {
	var out []string
	err := walkSorted(root, &out)
	return out, err
}

func walkSorted(dir string, out *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToUpper(entries[i].Name()) < strings.ToUpper(entries[j].Name())
	})

	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, filepath.Join(dir, e.Name()))
			continue
		}
		if hasCandidateExt(e.Name()) {
			*out = append(*out, filepath.Join(dir, e.Name()))
		}
	}
	for _, sub := range subdirs {
		if err := walkSorted(sub, out); err != nil {
			return err
		}
	}
	return nil
}
