package model

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

func serialize(t *testing.T, fill func(*etree.Element)) string {
	t.Helper()
	doc := etree.NewDocument()
	el := doc.CreateElement("x")
	fill(el)
	s, err := doc.WriteToString()
	if err != nil {
		t.Fatalf("serialising: %v", err)
	}
	return s
}

func TestTopicWriteElementOrder(t *testing.T) {
	t.Parallel()

	topic := NewTopic(TopicArgs{
		Guid:           uuid.MustParse("c2f9e8b4-1f7a-4f5c-8f51-b3a582d2a2b0"),
		Title:          "Leaky pipe",
		CreationAuthor: "alice@example.com",
		CreationDate:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:         "Open",
		Index:          2,
		Labels:         []string{"Plumbing"},
		Assignee:       "bob@example.com",
		Description:    "under the sink",
	}, nil, Original)

	out := serialize(t, topic.WriteElement)

	// children must appear in markup schema order
	order := []string{"<Title>", "<Index>", "<Labels>", "<CreationDate>", "<CreationAuthor>", "<AssignedTo>", "<Description>"}
	last := -1
	for _, tag := range order {
		i := strings.Index(out, tag)
		if i < 0 {
			t.Fatalf("output missing %s: %s", tag, out)
		}
		if i < last {
			t.Errorf("%s out of order in %s", tag, out)
		}
		last = i
	}
	if !strings.Contains(out, `TopicStatus="Open"`) {
		t.Errorf("missing status attribute: %s", out)
	}
	// defaults are omitted
	if strings.Contains(out, "<Priority>") || strings.Contains(out, "<DueDate>") {
		t.Errorf("default-valued cells must be omitted: %s", out)
	}
}

func TestHeaderFileDefaultExternalOmitted(t *testing.T) {
	t.Parallel()

	f := NewHeaderFile(HeaderFileArgs{External: true, Filename: "model.ifc"}, nil, Original)
	out := serialize(t, f.WriteElement)
	if strings.Contains(out, "isExternal") {
		t.Errorf("isExternal=true is the default and must be omitted: %s", out)
	}

	f2 := NewHeaderFile(HeaderFileArgs{External: false, Filename: "model.ifc"}, nil, Original)
	out2 := serialize(t, f2.WriteElement)
	if !strings.Contains(out2, `isExternal="false"`) {
		t.Errorf("non-default isExternal must be written lowercase: %s", out2)
	}
}

func TestCommentWriteElement(t *testing.T) {
	t.Parallel()

	vpGuid := uuid.MustParse("61e1e5c3-0d90-4b2e-9d3e-07be2de0ac75")
	c := NewComment(CommentArgs{
		Guid:          uuid.MustParse("8c8e8f2a-91f5-4dd2-a9f1-67a0f9a62c31"),
		Author:        "alice@example.com",
		Date:          time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC),
		Text:          "hello",
		ViewpointGuid: vpGuid,
	}, nil, Original)

	out := serialize(t, c.WriteElement)
	for _, want := range []string{
		"<Date>2024-03-01T10:05:00Z</Date>",
		"<Author>alice@example.com</Author>",
		"<Comment>hello</Comment>",
		`<Viewpoint Guid="` + vpGuid.String() + `"/>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestRelatedTopicsWriteAsGuidAttr(t *testing.T) {
	t.Parallel()

	rel := uuid.MustParse("4a0e51de-3f3a-4fd5-8775-83c2eea58fca")
	topic := NewTopic(TopicArgs{
		Guid:           uuid.New(),
		Title:          "t",
		CreationAuthor: "a@b.c",
		CreationDate:   time.Now(),
		Index:          IndexNone,
		RelatedTopics:  []uuid.UUID{rel},
	}, nil, Original)

	out := serialize(t, topic.WriteElement)
	if !strings.Contains(out, `<RelatedTopic Guid="`+rel.String()+`"/>`) {
		t.Errorf("related topic not written as guid attribute: %s", out)
	}
}

func TestTopicEqual(t *testing.T) {
	t.Parallel()

	args := TopicArgs{
		Guid:           uuid.MustParse("c2f9e8b4-1f7a-4f5c-8f51-b3a582d2a2b0"),
		Title:          "Leaky pipe",
		CreationAuthor: "alice@example.com",
		CreationDate:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Index:          IndexNone,
		Labels:         []string{"Plumbing"},
	}
	a := NewTopic(args, nil, Original)
	b := NewTopic(args, nil, Added)
	if !a.Equal(b) {
		t.Error("structurally identical topics compare unequal")
	}
	b.Title.Set("Leaky pipe!")
	if a.Equal(b) {
		t.Error("topics with different titles compare equal")
	}
}
