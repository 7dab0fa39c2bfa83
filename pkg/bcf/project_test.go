package bcf

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jra3/bcf-go/internal/model"
	"github.com/jra3/bcf-go/internal/testutil"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// multiTopicArchive writes an archive with three topics: indices 2, none
// and 1, so ordering is observable.
func multiTopicArchive(t *testing.T, dir string) string {
	t.Helper()
	topics := []testutil.Markup{
		{
			TopicGuid:      "4a0e51de-3f3a-4fd5-8775-83c2eea58fca",
			Title:          "indexed two",
			Index:          "2",
			CreationDate:   "2024-03-01T10:00:00Z",
			CreationAuthor: "alice@example.com",
			Comments: []testutil.Comment{
				{
					Guid:   "8c8e8f2a-91f5-4dd2-a9f1-67a0f9a62c31",
					Date:   "2024-03-01T10:05:00Z",
					Author: "alice@example.com",
					Text:   "first look",
				},
				{
					Guid:   "0c437c1c-5bd3-4f0a-9e58-8958571af4c1",
					Date:   "2024-03-01T10:06:00Z",
					Author: "bob@example.com",
					Text:   "second look",
				},
			},
		},
		{
			TopicGuid:      "61e1e5c3-0d90-4b2e-9d3e-07be2de0ac75",
			Title:          "unindexed",
			CreationDate:   "2024-03-02T10:00:00Z",
			CreationAuthor: "bob@example.com",
		},
		{
			TopicGuid:      "9d3c2f8f-7cbf-4f2a-8d2a-2b05c437c1c5",
			Title:          "indexed one",
			Index:          "1",
			CreationDate:   "2024-03-03T10:00:00Z",
			CreationAuthor: "carol@example.com",
		},
	}
	members := map[string]string{"bcf.version": testutil.VersionXML}
	for _, m := range topics {
		members[m.TopicGuid+"/markup.bcf"] = m.XML()
	}
	path := filepath.Join(dir, "multi.bcf")
	testutil.WriteArchive(t, path, members)
	return path
}

func open(t *testing.T, path string) *Project {
	t.Helper()
	p, err := Open(path, quiet())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestTopicsCountMatchesTopicDirs(t *testing.T) {
	t.Parallel()

	p := open(t, multiTopicArchive(t, t.TempDir()))
	if got := len(p.Topics()); got != 3 {
		t.Errorf("topic count = %d, want 3", got)
	}
}

func TestTopicsOrderedByIndexUnindexedLast(t *testing.T) {
	t.Parallel()

	p := open(t, multiTopicArchive(t, t.TempDir()))
	topics := p.Topics()
	got := []string{topics[0].Title.Value(), topics[1].Title.Value(), topics[2].Title.Value()}
	want := []string{"indexed one", "indexed two", "unindexed"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("topic order = %v, want %v", got, want)
		}
	}
}

func TestCommentsOrderedByDate(t *testing.T) {
	t.Parallel()

	p := open(t, multiTopicArchive(t, t.TempDir()))
	topic := p.Topics()[1] // "indexed two" carries the comments
	comments, err := p.Comments(topic, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 2 {
		t.Fatalf("comment count = %d", len(comments))
	}
	if !comments[0].Creation.Date.Value().Before(comments[1].Creation.Date.Value()) {
		t.Error("comments not sorted by creation date")
	}
}

func TestAddCommentRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := multiTopicArchive(t, dir)
	p := open(t, src)

	topic := p.Topics()[0]
	author := topic.Creation.Author.Value()
	if err := p.AddComment(topic, "hello this is me mario!", author, nil); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	out := filepath.Join(dir, "out.bcf")
	if err := p.Save(out); err != nil {
		t.Fatalf("Save: %v", err)
	}

	p2 := open(t, out)
	topic2 := p2.Topics()[0]
	comments, err := p2.Comments(topic2, nil)
	if err != nil {
		t.Fatal(err)
	}
	last := comments[len(comments)-1]
	if last.Text.Value() != "hello this is me mario!" {
		t.Errorf("last comment = %q", last.Text.Value())
	}
	if last.Creation.Author.Value() != author {
		t.Errorf("comment author = %q, want %q", last.Creation.Author.Value(), author)
	}
}

func TestAddHeaderFileRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := open(t, multiTopicArchive(t, dir))
	topic := p.Topics()[0]

	args := model.HeaderFileArgs{
		IfcProject: "abcdefghij",
		Filename:   "this is some file name",
		Reference:  "/path/to/the/file",
		External:   false,
	}
	if err := p.AddHeaderFile(topic, args); err != nil {
		t.Fatalf("AddHeaderFile: %v", err)
	}

	p2 := open(t, p.Path())
	topic2 := p2.Topics()[0]
	files, err := p2.RelevantIfcFiles(topic2)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("relevant files = %d, want 1", len(files))
	}
	f := files[0]
	if f.IfcProject.Value() != "abcdefghij" ||
		f.Filename.Value() != "this is some file name" ||
		f.Reference.Value() != "/path/to/the/file" ||
		f.External.Value() != false {
		t.Errorf("header file did not round-trip: %+v", f)
	}
}

func TestSetAssigneeWritesExactlyOneElement(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := open(t, multiTopicArchive(t, dir))
	topic := p.Topics()[0]
	if topic.Assignee.Value() != "" {
		t.Fatal("fixture already has an assignee")
	}

	if err := p.SetAssignee(topic, "a@b.c"); err != nil {
		t.Fatalf("SetAssignee: %v", err)
	}

	// inspect the written markup.bcf directly
	raw := readMarkup(t, p.Path(), topic.Guid.Value().String())
	if n := strings.Count(raw, "<AssignedTo>a@b.c</AssignedTo>"); n != 1 {
		t.Errorf("AssignedTo occurrences = %d, want 1\n%s", n, raw)
	}

	p2 := open(t, p.Path())
	if got := p2.Topics()[0].Assignee.Value(); got != "a@b.c" {
		t.Errorf("reread assignee = %q", got)
	}
}

func TestDeleteCommentKeepsOrder(t *testing.T) {
	t.Parallel()

	p := open(t, multiTopicArchive(t, t.TempDir()))
	topic := p.Topics()[1] // "indexed two" carries the comments
	comments, err := p.Comments(topic, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 2 {
		t.Fatal("fixture mismatch")
	}
	wantRemaining := comments[1].Text.Value()

	if err := p.DeleteEntity(comments[0]); err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}

	p2 := open(t, p.Path())
	got, err := p2.Comments(p2.Topics()[1], nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("comment count = %d, want 1", len(got))
	}
	if got[0].Text.Value() != wantRemaining {
		t.Errorf("remaining comment = %q, want %q", got[0].Text.Value(), wantRemaining)
	}
}

func TestDeleteEntityFromOtherProject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p1 := open(t, multiTopicArchive(t, dir))
	p2 := open(t, testutil.SimpleArchive(t, dir))

	before, err := os.ReadFile(p1.Path())
	if err != nil {
		t.Fatal(err)
	}

	foreign, err := p2.Comments(p2.Topics()[0], nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := p1.DeleteEntity(foreign[0]); !errors.Is(err, ErrNotInProject) {
		t.Errorf("error = %v, want ErrNotInProject", err)
	}

	after, err := os.ReadFile(p1.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("archive changed by rejected delete")
	}
}

func TestClosedProjectRejectsOperations(t *testing.T) {
	t.Parallel()

	p := open(t, multiTopicArchive(t, t.TempDir()))
	topic := p.Topics()[0]
	p.Close()

	if err := p.AddComment(topic, "x", "a@b.c", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("AddComment on closed project = %v, want ErrClosed", err)
	}
	if err := p.Save(p.Path()); !errors.Is(err, ErrClosed) {
		t.Errorf("Save on closed project = %v, want ErrClosed", err)
	}
}

func TestWriteReadEquality(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := multiTopicArchive(t, dir)
	p := open(t, src)

	out := filepath.Join(dir, "copy.bcf")
	if err := p.Save(out); err != nil {
		t.Fatal(err)
	}

	p2 := open(t, out)
	if !p.Model().Equal(p2.Model()) {
		t.Error("write(read(A)) is not structurally equal to read(A)")
	}
}

func TestAddThenDeleteLeavesArchiveIdentical(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := multiTopicArchive(t, dir)
	p := open(t, src)
	topic := p.Topics()[0]

	before, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}

	if err := p.AddComment(topic, "transient", "a@b.c", nil); err != nil {
		t.Fatal(err)
	}
	comments, err := p.Comments(topic, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.DeleteEntity(comments[len(comments)-1]); err != nil {
		t.Fatal(err)
	}

	after, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("add-then-delete did not restore the archive bytes")
	}
}

func TestAddLabelKeepsSiblings(t *testing.T) {
	t.Parallel()

	p := open(t, multiTopicArchive(t, t.TempDir()))
	topic := p.Topics()[0]
	if err := p.AddLabel(topic, "Plumbing"); err != nil {
		t.Fatalf("AddLabel: %v", err)
	}
	if err := p.AddLabel(topic, "Urgent"); err != nil {
		t.Fatalf("AddLabel: %v", err)
	}

	p2 := open(t, p.Path())
	labels := p2.Topics()[0].Labels.Values()
	if len(labels) != 2 || labels[0] != "Plumbing" || labels[1] != "Urgent" {
		t.Errorf("labels = %v", labels)
	}
}

func TestViewpointFilterOnComments(t *testing.T) {
	t.Parallel()

	const topicGuid = "4a0e51de-3f3a-4fd5-8775-83c2eea58fca"
	vp := testutil.Viewpoint{Guid: "61e1e5c3-0d90-4b2e-9d3e-07be2de0ac75", File: "v.bcfv"}
	markup := testutil.Markup{
		TopicGuid:      topicGuid,
		Title:          "t",
		CreationDate:   "2024-03-01T10:00:00Z",
		CreationAuthor: "a@b.c",
		Comments: []testutil.Comment{
			{Guid: "8c8e8f2a-91f5-4dd2-a9f1-67a0f9a62c31", Date: "2024-03-01T10:05:00Z", Author: "a@b.c", Text: "on viewpoint", ViewpointGuid: vp.Guid},
			{Guid: "0c437c1c-5bd3-4f0a-9e58-8958571af4c1", Date: "2024-03-01T10:06:00Z", Author: "a@b.c", Text: "general"},
		},
		Viewpoints: []testutil.Viewpoint{vp},
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "vp.bcf")
	testutil.WriteArchive(t, path, map[string]string{
		"bcf.version": testutil.VersionXML,
		topicGuid + "/markup.bcf": markup.XML(),
		topicGuid + "/v.bcfv": testutil.BcfvXML(vp.Guid),
	})

	p := open(t, path)
	topic := p.Topics()[0]
	ref := p.Model().Markups[0].Viewpoints[0]

	all, err := p.Comments(topic, nil)
	if err != nil {
		t.Fatal(err)
	}
	filtered, err := p.Comments(topic, ref)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || len(filtered) != 1 {
		t.Fatalf("all = %d, filtered = %d", len(all), len(filtered))
	}
	if filtered[0].Text.Value() != "on viewpoint" {
		t.Errorf("filtered comment = %q", filtered[0].Text.Value())
	}

	entries, err := p.Viewpoints(topic)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Filename != "v.bcfv" || entries[0].Viewpoint == nil {
		t.Errorf("viewpoint entries = %+v", entries)
	}
}

func readMarkup(t *testing.T, archivePath, topicGuid string) string {
	t.Helper()
	p := open(t, archivePath)
	for _, m := range p.Model().Markups {
		if m.TopicDir == topicGuid {
			raw, err := os.ReadFile(filepath.Join(p.ex.Dir, m.TopicDir, "markup.bcf"))
			if err != nil {
				t.Fatal(err)
			}
			return string(raw)
		}
	}
	t.Fatalf("topic %s not found in %s", topicGuid, archivePath)
	return ""
}

func TestMutatorsCommitBeforeReturning(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := open(t, multiTopicArchive(t, dir))
	topic := p.Topics()[0]

	if err := p.SetDescription(topic, "written immediately"); err != nil {
		t.Fatal(err)
	}
	// a second independent open of the same file must see the change
	p2 := open(t, p.Path())
	if got := p2.Topics()[0].Description.Value(); got != "written immediately" {
		t.Errorf("description = %q", got)
	}
}
