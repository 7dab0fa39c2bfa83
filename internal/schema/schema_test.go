package schema

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
)

func parse(t *testing.T, xml string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return doc.Root()
}

const validMarkup = `<Markup>
  <Topic Guid="4a0e51de-3f3a-4fd5-8775-83c2eea58fca" TopicStatus="Open">
    <Title>Broken wall</Title>
    <CreationDate>2024-03-01T10:00:00Z</CreationDate>
    <CreationAuthor>alice@example.com</CreationAuthor>
  </Topic>
  <Comment Guid="8c8e8f2a-91f5-4dd2-a9f1-67a0f9a62c31">
    <Date>2024-03-01T10:05:00Z</Date>
    <Author>alice@example.com</Author>
    <Comment>first look</Comment>
  </Comment>
</Markup>`

func TestValidateAcceptsValidMarkup(t *testing.T) {
	t.Parallel()
	if diags := Validate(parse(t, validMarkup)); len(diags) != 0 {
		t.Errorf("valid markup rejected: %v", diags)
	}
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		xml  string
		want string // substring of a diagnostic
	}{
		{
			name: "missing topic",
			xml:  `<Markup></Markup>`,
			want: "missing required element Topic",
		},
		{
			name: "missing title",
			xml: `<Markup><Topic Guid="4a0e51de-3f3a-4fd5-8775-83c2eea58fca">
				<CreationDate>2024-03-01T10:00:00Z</CreationDate>
				<CreationAuthor>a@b.c</CreationAuthor>
			</Topic></Markup>`,
			want: "missing required element Title",
		},
		{
			name: "missing topic guid",
			xml: `<Markup><Topic>
				<Title>t</Title>
				<CreationDate>2024-03-01T10:00:00Z</CreationDate>
				<CreationAuthor>a@b.c</CreationAuthor>
			</Topic></Markup>`,
			want: "missing required attribute Guid",
		},
		{
			name: "malformed guid",
			xml: `<Markup><Topic Guid="not-a-guid">
				<Title>t</Title>
				<CreationDate>2024-03-01T10:00:00Z</CreationDate>
				<CreationAuthor>a@b.c</CreationAuthor>
			</Topic></Markup>`,
			want: "not a valid guid",
		},
		{
			name: "malformed datetime",
			xml: `<Markup><Topic Guid="4a0e51de-3f3a-4fd5-8775-83c2eea58fca">
				<Title>t</Title>
				<CreationDate>yesterday</CreationDate>
				<CreationAuthor>a@b.c</CreationAuthor>
			</Topic></Markup>`,
			want: "not a valid ISO-8601 datetime",
		},
		{
			name: "element out of sequence",
			xml: `<Markup><Topic Guid="4a0e51de-3f3a-4fd5-8775-83c2eea58fca">
				<CreationDate>2024-03-01T10:00:00Z</CreationDate>
				<Title>t</Title>
				<CreationAuthor>a@b.c</CreationAuthor>
			</Topic></Markup>`,
			want: "out of sequence",
		},
		{
			name: "unknown element",
			xml: `<Markup><Topic Guid="4a0e51de-3f3a-4fd5-8775-83c2eea58fca">
				<Title>t</Title>
				<CreationDate>2024-03-01T10:00:00Z</CreationDate>
				<CreationAuthor>a@b.c</CreationAuthor>
				<Severity>high</Severity>
			</Topic></Markup>`,
			want: "unexpected element Severity",
		},
		{
			name: "duplicate singleton",
			xml: `<Markup><Topic Guid="4a0e51de-3f3a-4fd5-8775-83c2eea58fca">
				<Title>t</Title>
				<Title>t2</Title>
				<CreationDate>2024-03-01T10:00:00Z</CreationDate>
				<CreationAuthor>a@b.c</CreationAuthor>
			</Topic></Markup>`,
			want: "occurs more than once",
		},
		{
			name: "unknown root",
			xml:  `<Issues/>`,
			want: "unknown document root",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			diags := Validate(parse(t, tc.xml))
			if len(diags) == 0 {
				t.Fatal("invalid document accepted")
			}
			found := false
			for _, d := range diags {
				if strings.Contains(d.String(), tc.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("diagnostics %v do not mention %q", diags, tc.want)
			}
		})
	}
}

func TestValidateVersion(t *testing.T) {
	t.Parallel()

	ok := `<Version VersionId="2.1" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><DetailedVersion>2.1</DetailedVersion></Version>`
	if diags := Validate(parse(t, ok)); len(diags) != 0 {
		t.Errorf("valid version rejected: %v", diags)
	}
	bad := `<Version><DetailedVersion>2.1</DetailedVersion></Version>`
	if diags := Validate(parse(t, bad)); len(diags) == 0 {
		t.Error("version without VersionId accepted")
	}
}

func TestValidateVisualizationInfo(t *testing.T) {
	t.Parallel()

	ok := `<VisualizationInfo Guid="61e1e5c3-0d90-4b2e-9d3e-07be2de0ac75">
		<PerspectiveCamera>
			<CameraViewPoint><X>1</X><Y>2</Y><Z>3</Z></CameraViewPoint>
			<CameraDirection><X>0</X><Y>0</Y><Z>-1</Z></CameraDirection>
			<CameraUpVector><X>0</X><Y>1</Y><Z>0</Z></CameraUpVector>
			<FieldOfView>60</FieldOfView>
		</PerspectiveCamera>
	</VisualizationInfo>`
	if diags := Validate(parse(t, ok)); len(diags) != 0 {
		t.Errorf("valid visinfo rejected: %v", diags)
	}

	bad := `<VisualizationInfo>
		<PerspectiveCamera>
			<CameraViewPoint><X>one</X><Y>2</Y><Z>3</Z></CameraViewPoint>
			<CameraDirection><X>0</X><Y>0</Y><Z>-1</Z></CameraDirection>
			<CameraUpVector><X>0</X><Y>1</Y><Z>0</Z></CameraUpVector>
			<FieldOfView>60</FieldOfView>
		</PerspectiveCamera>
	</VisualizationInfo>`
	if diags := Validate(parse(t, bad)); len(diags) == 0 {
		t.Error("non-numeric camera coordinate accepted")
	}
}

func TestChildOrderLookups(t *testing.T) {
	t.Parallel()

	topic := Markup.Child("Topic")
	if topic == nil {
		t.Fatal("Markup has no Topic child definition")
	}
	seq := topic.Sequence()
	idx := func(name string) int {
		for i, n := range seq {
			if n == name {
				return i
			}
		}
		t.Fatalf("%s missing from Topic sequence", name)
		return -1
	}
	if !(idx("Title") < idx("CreationDate") && idx("CreationDate") < idx("AssignedTo") && idx("AssignedTo") < idx("DocumentReference")) {
		t.Errorf("Topic sequence out of order: %v", seq)
	}
}
