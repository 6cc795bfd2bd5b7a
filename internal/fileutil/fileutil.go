package fileutil

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CheckDir verifies that path exists and is a directory.
func CheckDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("expected directory %q does not exist", path)
		}
		return fmt.Errorf("stat %q: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("expected directory %q is not a directory", path)
	}
	return nil
}

// MatchingFiles lists regular files in dir whose names carry the given
// prefix and suffix. Hidden files are skipped. Results are full paths
// sorted by name.
func MatchingFiles(dir, prefix, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		if suffix != "" && !strings.HasSuffix(name, suffix) {
			continue
		}
		matches = append(matches, filepath.Join(dir, name))
	}
	sort.Strings(matches)
	return matches, nil
}

// SourceDir selects the raster source directory for a bag working tree.
// A non-empty data/service subdirectory wins over the data directory.
func SourceDir(bagPath string) (string, error) {
	dataDir := filepath.Join(bagPath, "data")
	serviceDir := filepath.Join(dataDir, "service")
	entries, err := os.ReadDir(serviceDir)
	if err == nil && len(entries) > 0 {
		return serviceDir, nil
	}
	if err := CheckDir(dataDir); err != nil {
		return "", err
	}
	return dataDir, nil
}

// SortByPage orders paths by their parsed page number, ascending.
// Paths without a parsable page number produce an error.
func SortByPage(paths []string) error {
	pages := make(map[string]string, len(paths))
	for _, path := range paths {
		page, err := PageNumber(path)
		if err != nil {
			return err
		}
		pages[path] = page
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return pages[paths[i]] < pages[paths[j]]
	})
	return nil
}

// ReplaceFile moves tmp over dst. On failure tmp is removed so a
// half-written rewrite never lingers next to the original.
func ReplaceFile(tmp, dst string) error {
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// ExtractTarGz unpacks a gzipped tarball into dest. Entries escaping dest
// are rejected.
func ExtractTarGz(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	cleanDest := filepath.Clean(dest)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive entry: %w", err)
		}

		target := filepath.Join(cleanDest, hdr.Name)
		if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create parent directory: %w", err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, hdr.FileInfo().Mode().Perm())
			if err != nil {
				return fmt.Errorf("create file: %w", err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("extract %q: %w", hdr.Name, err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("close %q: %w", hdr.Name, err)
			}
		default:
			// Symlinks and specials have no business in a serialized bag.
			return fmt.Errorf("archive entry %q has unsupported type %d", hdr.Name, hdr.Typeflag)
		}
	}
}
