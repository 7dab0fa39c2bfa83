package writer

import (
	"errors"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/jra3/bcf-go/internal/model"
)

const locateMarkup = `<Markup>
  <Topic Guid="4a0e51de-3f3a-4fd5-8775-83c2eea58fca">
    <Title>t</Title>
    <CreationDate>2024-03-01T10:00:00+00:00</CreationDate>
    <CreationAuthor>alice@example.com</CreationAuthor>
    <DocumentReference isExternal="true">
      <ReferencedDocument>/specs/wall.pdf</ReferencedDocument>
      <Description>wall spec</Description>
    </DocumentReference>
    <DocumentReference isExternal="true">
      <ReferencedDocument>/specs/wall.pdf</ReferencedDocument>
      <Description>wall spdc</Description>
    </DocumentReference>
  </Topic>
  <Comment Guid="8c8e8f2a-91f5-4dd2-a9f1-67a0f9a62c31">
    <Date>2024-03-01T10:05:00Z</Date>
    <Author>alice@example.com</Author>
    <Comment>first</Comment>
  </Comment>
  <Comment Guid="0c437c1c-5bd3-4f0a-9e58-8958571af4c1">
    <Date>2024-03-01T10:06:00Z</Date>
    <Author>bob@example.com</Author>
    <Comment>second</Comment>
  </Comment>
</Markup>`

// buildLocateModel mirrors locateMarkup as an entity graph.
func buildLocateModel(t *testing.T) *model.Markup {
	t.Helper()
	markup := model.NewMarkup("4a0e51de-3f3a-4fd5-8775-83c2eea58fca", nil, model.Original)
	topic := model.NewTopic(model.TopicArgs{
		Guid:           uuid.MustParse("4a0e51de-3f3a-4fd5-8775-83c2eea58fca"),
		Title:          "t",
		CreationAuthor: "alice@example.com",
		CreationDate:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Index:          model.IndexNone,
	}, nil, model.Original)
	markup.SetTopic(topic)
	topic.AddDocRef(model.NewDocumentReference(uuid.Nil, true, "/specs/wall.pdf", "wall spec", topic, model.Original))
	topic.AddDocRef(model.NewDocumentReference(uuid.Nil, true, "/specs/wall.pdf", "wall spdc", topic, model.Original))
	markup.AddComment(model.NewComment(model.CommentArgs{
		Guid:   uuid.MustParse("8c8e8f2a-91f5-4dd2-a9f1-67a0f9a62c31"),
		Author: "alice@example.com",
		Date:   time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC),
		Text:   "first",
	}, markup, model.Original))
	markup.AddComment(model.NewComment(model.CommentArgs{
		Guid:   uuid.MustParse("0c437c1c-5bd3-4f0a-9e58-8958571af4c1"),
		Author: "bob@example.com",
		Date:   time.Date(2024, 3, 1, 10, 6, 0, 0, time.UTC),
		Text:   "second",
	}, markup, model.Original))
	return markup
}

func parseDoc(t *testing.T, xml string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		t.Fatal(err)
	}
	return doc.Root()
}

func TestLocateCommentByGuid(t *testing.T) {
	t.Parallel()

	markup := buildLocateModel(t)
	root := parseDoc(t, locateMarkup)

	el, err := Locate(root, markup.Comments[1])
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got := el.SelectElement("Comment").Text(); got != "second" {
		t.Errorf("located comment text = %q, want %q", got, "second")
	}
}

func TestLocateDisambiguatesByChildText(t *testing.T) {
	t.Parallel()

	// The two document references differ only in one character of their
	// description; neither has a guid.
	markup := buildLocateModel(t)
	root := parseDoc(t, locateMarkup)

	el, err := Locate(root, markup.Topic.DocRefs[1])
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got := el.SelectElement("Description").Text(); got != "wall spdc" {
		t.Errorf("located description = %q, want %q", got, "wall spdc")
	}
}

func TestLocateAmbiguous(t *testing.T) {
	t.Parallel()

	markup := buildLocateModel(t)
	// make the two document references structurally identical
	markup.Topic.DocRefs[1].Description.Set("wall spec")
	markup.Topic.DocRefs[1].Description.SetState(model.Original)
	root := parseDoc(t, `<Markup>
  <Topic Guid="4a0e51de-3f3a-4fd5-8775-83c2eea58fca">
    <Title>t</Title>
    <CreationDate>2024-03-01T10:00:00Z</CreationDate>
    <CreationAuthor>alice@example.com</CreationAuthor>
    <DocumentReference isExternal="true">
      <ReferencedDocument>/specs/wall.pdf</ReferencedDocument>
      <Description>wall spec</Description>
    </DocumentReference>
    <DocumentReference isExternal="true">
      <ReferencedDocument>/specs/wall.pdf</ReferencedDocument>
      <Description>wall spec</Description>
    </DocumentReference>
  </Topic>
</Markup>`)

	_, err := Locate(root, markup.Topic.DocRefs[0])
	if !errors.Is(err, ErrAmbiguous) {
		t.Errorf("error = %v, want ErrAmbiguous", err)
	}
}

func TestLocateNotFound(t *testing.T) {
	t.Parallel()

	markup := buildLocateModel(t)
	stray := model.NewComment(model.CommentArgs{
		Guid:   uuid.New(),
		Author: "x@y.z",
		Date:   time.Now(),
		Text:   "never written",
	}, markup, model.Original)
	root := parseDoc(t, locateMarkup)

	_, err := Locate(root, stray)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	var le *LocateError
	if !errors.As(err, &le) || len(le.Chain) == 0 {
		t.Errorf("locate error carries no element chain: %v", err)
	}
}

func TestLocateToleratesDatetimeSpelling(t *testing.T) {
	t.Parallel()

	// A document may spell a UTC datetime with +00:00 where the model
	// writes Z; textMatches treats the two spellings as equal and still
	// tells apart datetimes that differ by one second.
	if !textMatches("2024-03-01T10:00:00Z", "2024-03-01T10:00:00+00:00") {
		t.Error("equivalent datetimes do not match")
	}
	if textMatches("2024-03-01T10:00:00Z", "2024-03-01T10:00:01Z") {
		t.Error("different datetimes match")
	}
}
