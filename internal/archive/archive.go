// Package archive handles the ZIP container of a BCF file: extraction into
// a scratch directory, enumeration of topic directories, and deterministic
// repacking with an atomic rename.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ErrNotZip reports that the file is not a readable ZIP archive.
var ErrNotZip = errors.New("not a readable zip archive")

// ArchiveError wraps failures of the container layer with the archive path.
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// Extraction is an archive unpacked into a scratch directory. Members
// records the original member order so a repack can preserve it.
type Extraction struct {
	Dir     string
	Members []string
}

// Extract unpacks the archive at path into a fresh directory under the
// system temp root, named after the archive basename.
func Extract(path string) (*Extraction, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, &ArchiveError{Path: path, Err: ErrNotZip}
		}
		return nil, &ArchiveError{Path: path, Err: err}
	}
	defer r.Close()

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir, err := os.MkdirTemp("", "bcfgo-"+base+"-")
	if err != nil {
		return nil, &ArchiveError{Path: path, Err: err}
	}

	ex := &Extraction{Dir: dir}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := extractMember(dir, f); err != nil {
			os.RemoveAll(dir)
			return nil, &ArchiveError{Path: path, Err: err}
		}
		ex.Members = append(ex.Members, filepath.ToSlash(f.Name))
	}
	return ex, nil
}

func extractMember(dir string, f *zip.File) error {
	name := filepath.FromSlash(f.Name)
	dest := filepath.Join(dir, name)
	// reject members that would escape the scratch directory
	if rel, err := filepath.Rel(dir, dest); err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("member %q escapes extraction directory", f.Name)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := f.Open()
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// TopicDirs lists the immediate subdirectories of the scratch dir whose
// name parses as a uuid, sorted lexically.
func TopicDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := uuid.Parse(e.Name()); err != nil {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// FilesByExt lists the files directly inside dir that carry the given
// extension (".bcfv", ".png"), sorted.
func FilesByExt(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ext) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Repack zips the scratch directory back into an archive at out. Members
// that survive keep their original order; new files follow, sorted. The
// zip is written to a sibling temp path, synced and renamed into place, so
// a failing repack never corrupts an existing archive.
func Repack(ex *Extraction, out string) error {
	current, err := scratchFiles(ex.Dir)
	if err != nil {
		return &ArchiveError{Path: out, Err: err}
	}

	ordered := make([]string, 0, len(current))
	seen := make(map[string]bool, len(current))
	for _, m := range ex.Members {
		if current[m] {
			ordered = append(ordered, m)
			seen[m] = true
		}
	}
	var added []string
	for f := range current {
		if !seen[f] {
			added = append(added, f)
		}
	}
	sort.Strings(added)
	ordered = append(ordered, added...)

	tmp := out + ".tmp"
	if err := writeZip(ex.Dir, ordered, tmp); err != nil {
		os.Remove(tmp)
		return &ArchiveError{Path: out, Err: err}
	}
	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return &ArchiveError{Path: out, Err: err}
	}
	ex.Members = ordered
	return nil
}

func scratchFiles(dir string) (map[string]bool, error) {
	out := make(map[string]bool)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = true
		return nil
	})
	return out, err
}

func writeZip(dir string, members []string, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	w := zip.NewWriter(f)
	for _, m := range members {
		// fixed header metadata keeps byte-identical output for
		// unchanged content
		hdr := &zip.FileHeader{Name: m, Method: zip.Deflate}
		entry, err := w.CreateHeader(hdr)
		if err != nil {
			f.Close()
			return err
		}
		src, err := os.Open(filepath.Join(dir, filepath.FromSlash(m)))
		if err != nil {
			f.Close()
			return err
		}
		_, err = io.Copy(entry, src)
		src.Close()
		if err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
