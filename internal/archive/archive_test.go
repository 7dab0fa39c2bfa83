package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTestZip(t *testing.T, path string, members map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for name, content := range members {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestExtractAndTopicDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.bcf")
	writeTestZip(t, path, map[string]string{
		"bcf.version": "<Version/>",
		"4a0e51de-3f3a-4fd5-8775-83c2eea58fca/markup.bcf": "<Markup/>",
		"0c437c1c-5bd3-4f0a-9e58-8958571af4c1/markup.bcf": "<Markup/>",
		"not-a-uuid/readme.txt":                           "x",
	})

	ex, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	defer os.RemoveAll(ex.Dir)

	if len(ex.Members) != 4 {
		t.Errorf("member count = %d, want 4", len(ex.Members))
	}
	dirs, err := TopicDirs(ex.Dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"0c437c1c-5bd3-4f0a-9e58-8958571af4c1",
		"4a0e51de-3f3a-4fd5-8775-83c2eea58fca",
	}
	if len(dirs) != 2 || dirs[0] != want[0] || dirs[1] != want[1] {
		t.Errorf("TopicDirs = %v, want %v", dirs, want)
	}
}

func TestExtractRejectsNonZip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "junk.bcf")
	if err := os.WriteFile(path, []byte("this is not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Extract(path)
	if !errors.Is(err, ErrNotZip) {
		t.Errorf("Extract error = %v, want ErrNotZip", err)
	}
	var ae *ArchiveError
	if !errors.As(err, &ae) || ae.Path != path {
		t.Errorf("error does not carry the archive path: %v", err)
	}
}

func TestRepackPreservesOrderAndIsDeterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a.bcf")
	writeTestZip(t, src, map[string]string{
		"bcf.version":  "<Version/>",
		"project.bcfp": "<ProjectExtension/>",
		"4a0e51de-3f3a-4fd5-8775-83c2eea58fca/markup.bcf": "<Markup/>",
	})
	ex, err := Extract(src)
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(ex.Dir)
	origOrder := append([]string(nil), ex.Members...)

	out1 := filepath.Join(dir, "out1.bcf")
	if err := Repack(ex, out1); err != nil {
		t.Fatalf("Repack: %v", err)
	}
	out2 := filepath.Join(dir, "out2.bcf")
	if err := Repack(ex, out2); err != nil {
		t.Fatalf("Repack: %v", err)
	}

	b1, _ := os.ReadFile(out1)
	b2, _ := os.ReadFile(out2)
	if !bytes.Equal(b1, b2) {
		t.Error("two repacks of unchanged content differ")
	}

	r, err := zip.OpenReader(out1)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	for i, f := range r.File {
		if f.Name != origOrder[i] {
			t.Errorf("member %d = %s, want %s", i, f.Name, origOrder[i])
		}
	}
}

func TestRepackPicksUpNewFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a.bcf")
	writeTestZip(t, src, map[string]string{"bcf.version": "<Version/>"})
	ex, err := Extract(src)
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(ex.Dir)

	topic := "4a0e51de-3f3a-4fd5-8775-83c2eea58fca"
	if err := os.MkdirAll(filepath.Join(ex.Dir, topic), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ex.Dir, topic, "markup.bcf"), []byte("<Markup/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out.bcf")
	if err := Repack(ex, out); err != nil {
		t.Fatal(err)
	}
	r, err := zip.OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if len(r.File) != 2 || r.File[0].Name != "bcf.version" || r.File[1].Name != topic+"/markup.bcf" {
		names := []string{}
		for _, f := range r.File {
			names = append(names, f.Name)
		}
		t.Errorf("members = %v", names)
	}
}

func TestExtractRejectsZipSlip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "evil.bcf")
	writeTestZip(t, path, map[string]string{"../escape.txt": "x"})
	if _, err := Extract(path); err == nil {
		t.Error("archive with escaping member accepted")
	}
}
