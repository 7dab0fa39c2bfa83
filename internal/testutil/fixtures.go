// Package testutil builds throwaway BCF archives for tests.
package testutil

import (
	"archive/zip"
	"fmt"
	"os"
	"strings"
	"testing"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// VersionXML is a minimal, valid bcf.version document.
const VersionXML = xmlHeader +
	`<Version VersionId="2.1" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
	`<DetailedVersion>2.1</DetailedVersion></Version>`

// ProjectXML renders a project.bcfp document.
func ProjectXML(id, name string) string {
	return xmlHeader + fmt.Sprintf(
		`<ProjectExtension><Project ProjectId=%q><Name>%s</Name></Project><ExtensionSchema>extensions.xsd</ExtensionSchema></ProjectExtension>`,
		id, name)
}

// Comment describes one comment of a fixture markup.
type Comment struct {
	Guid          string
	Date          string
	Author        string
	Text          string
	ViewpointGuid string
}

// Viewpoint describes one viewpoint reference of a fixture markup.
type Viewpoint struct {
	Guid     string
	File     string
	Snapshot string
}

// HeaderFile describes one header file entry of a fixture markup.
type HeaderFile struct {
	IfcProject string
	IsExternal string // empty to omit the attribute
	Filename   string
	Reference  string
}

// Markup describes a fixture markup.bcf document.
type Markup struct {
	TopicGuid      string
	Title          string
	CreationDate   string
	CreationAuthor string

	TopicType   string
	TopicStatus string
	Priority    string
	Index       string // empty to omit
	AssignedTo  string
	Description string
	Labels      []string

	HeaderFiles []HeaderFile
	Comments    []Comment
	Viewpoints  []Viewpoint
}

// XML renders the markup document with children in schema order.
func (m Markup) XML() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString("<Markup>\n")

	if len(m.HeaderFiles) > 0 {
		b.WriteString("  <Header>\n")
		for _, f := range m.HeaderFiles {
			b.WriteString("    <File")
			if f.IfcProject != "" {
				fmt.Fprintf(&b, " IfcProject=%q", f.IfcProject)
			}
			if f.IsExternal != "" {
				fmt.Fprintf(&b, " isExternal=%q", f.IsExternal)
			}
			b.WriteString(">")
			if f.Filename != "" {
				fmt.Fprintf(&b, "<Filename>%s</Filename>", f.Filename)
			}
			if f.Reference != "" {
				fmt.Fprintf(&b, "<Reference>%s</Reference>", f.Reference)
			}
			b.WriteString("</File>\n")
		}
		b.WriteString("  </Header>\n")
	}

	fmt.Fprintf(&b, "  <Topic Guid=%q", m.TopicGuid)
	if m.TopicType != "" {
		fmt.Fprintf(&b, " TopicType=%q", m.TopicType)
	}
	if m.TopicStatus != "" {
		fmt.Fprintf(&b, " TopicStatus=%q", m.TopicStatus)
	}
	b.WriteString(">\n")
	fmt.Fprintf(&b, "    <Title>%s</Title>\n", m.Title)
	if m.Priority != "" {
		fmt.Fprintf(&b, "    <Priority>%s</Priority>\n", m.Priority)
	}
	if m.Index != "" {
		fmt.Fprintf(&b, "    <Index>%s</Index>\n", m.Index)
	}
	for _, l := range m.Labels {
		fmt.Fprintf(&b, "    <Labels>%s</Labels>\n", l)
	}
	fmt.Fprintf(&b, "    <CreationDate>%s</CreationDate>\n", m.CreationDate)
	fmt.Fprintf(&b, "    <CreationAuthor>%s</CreationAuthor>\n", m.CreationAuthor)
	if m.AssignedTo != "" {
		fmt.Fprintf(&b, "    <AssignedTo>%s</AssignedTo>\n", m.AssignedTo)
	}
	if m.Description != "" {
		fmt.Fprintf(&b, "    <Description>%s</Description>\n", m.Description)
	}
	b.WriteString("  </Topic>\n")

	for _, c := range m.Comments {
		fmt.Fprintf(&b, "  <Comment Guid=%q>\n", c.Guid)
		fmt.Fprintf(&b, "    <Date>%s</Date>\n", c.Date)
		fmt.Fprintf(&b, "    <Author>%s</Author>\n", c.Author)
		fmt.Fprintf(&b, "    <Comment>%s</Comment>\n", c.Text)
		if c.ViewpointGuid != "" {
			fmt.Fprintf(&b, "    <Viewpoint Guid=%q/>\n", c.ViewpointGuid)
		}
		b.WriteString("  </Comment>\n")
	}

	for _, v := range m.Viewpoints {
		fmt.Fprintf(&b, "  <Viewpoints Guid=%q>\n", v.Guid)
		if v.File != "" {
			fmt.Fprintf(&b, "    <Viewpoint>%s</Viewpoint>\n", v.File)
		}
		if v.Snapshot != "" {
			fmt.Fprintf(&b, "    <Snapshot>%s</Snapshot>\n", v.Snapshot)
		}
		b.WriteString("  </Viewpoints>\n")
	}

	b.WriteString("</Markup>\n")
	return b.String()
}

// BcfvXML renders a minimal valid viewpoint document.
func BcfvXML(guid string) string {
	return xmlHeader + fmt.Sprintf(`<VisualizationInfo Guid=%q>
  <PerspectiveCamera>
    <CameraViewPoint><X>1</X><Y>2</Y><Z>3</Z></CameraViewPoint>
    <CameraDirection><X>0</X><Y>0</Y><Z>-1</Z></CameraDirection>
    <CameraUpVector><X>0</X><Y>1</Y><Z>0</Z></CameraUpVector>
    <FieldOfView>60</FieldOfView>
  </PerspectiveCamera>
</VisualizationInfo>
`, guid)
}

// WriteArchive zips the given members (path → content) into a new archive
// at path.
func WriteArchive(t *testing.T, path string, members map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating archive: %v", err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for name, content := range members {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("adding member %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("writing member %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
}

// SimpleArchive writes a one-topic archive and returns its path. The
// topic carries two comments dated a minute apart.
func SimpleArchive(t *testing.T, dir string) string {
	t.Helper()
	const topicGuid = "4a0e51de-3f3a-4fd5-8775-83c2eea58fca"
	markup := Markup{
		TopicGuid:      topicGuid,
		Title:          "Broken wall",
		TopicStatus:    "Open",
		CreationDate:   "2024-03-01T10:00:00Z",
		CreationAuthor: "alice@example.com",
		Comments: []Comment{
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
	}
	path := dir + "/simple.bcf"
	WriteArchive(t, path, map[string]string{
		"bcf.version":              VersionXML,
		"project.bcfp":             ProjectXML("7f9b1a34-9c3f-4a5e-9d3c-2f8f7cbf15f2", "Test project"),
		topicGuid + "/markup.bcf":  markup.XML(),
	})
	return path
}
