package normalize

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// csvExt is the extension DiscoverFiles looks for.
const csvExt = ".csv"

// DiscoverFiles returns the paths of every *.csv file directly inside dir,
// sorted by name. Subdirectories and hidden files are ignored.
// A directory without CSV files yields an empty result.
func DiscoverFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), csvExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}

	slices.Sort(paths)
	return paths, nil
}

// CollectHeaderVocabulary reads the header row of each file and returns
// every distinct non-empty header in first-seen order.
func CollectHeaderVocabulary(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	vocab := make([]string, 0)

	for _, p := range paths {
		header, err := ReadHeader(p)
		if err != nil {
			return nil, err
		}
		for _, h := range header {
			if h == "" {
				continue
			}
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			vocab = append(vocab, h)
		}
	}

	return vocab, nil
}

// ValidateHeaders returns the base names, in input order, of the files with
// at least one header that is not a key of mapping. The result is empty
// exactly when every header of every file is mapped. Files are told apart by
// path, so equal base names from different directories each appear once.
func ValidateHeaders(paths []string, mapping *Mapping) ([]string, error) {
	unmapped, err := findUnmapped(paths, mapping)
	if err != nil {
		return nil, err
	}
	if unmapped.empty() {
		return []string{}, nil
	}
	return unmapped.Files(), nil
}

// findUnmapped collects the unmapped headers of every file.
func findUnmapped(paths []string, mapping *Mapping) (*UnmappedColumnsError, error) {
	unmapped := &UnmappedColumnsError{}
	for _, p := range paths {
		header, err := ReadHeader(p)
		if err != nil {
			return nil, err
		}
		checkHeader(unmapped, p, header, mapping)
	}
	return unmapped, nil
}

func checkHeader(unmapped *UnmappedColumnsError, path string, header []string, mapping *Mapping) {
	for _, h := range header {
		if _, ok := mapping.Lookup(h); !ok {
			unmapped.add(path, h)
		}
	}
}
