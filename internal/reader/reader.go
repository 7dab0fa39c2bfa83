// Package reader materialises the entity model from an extracted BCF
// archive. Every document is validated before it is lifted into the model;
// any reader error aborts the read, a partial project is never returned.
package reader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/jra3/bcf-go/internal/archive"
	"github.com/jra3/bcf-go/internal/model"
	"github.com/jra3/bcf-go/internal/schema"
)

const versionFile = "bcf.version"

// ReadProject builds the full entity graph from an extracted archive.
// Every cell of the result is in state Original.
func ReadProject(ex *archive.Extraction, logger *slog.Logger) (*model.Project, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := checkVersion(ex.Dir); err != nil {
		return nil, err
	}

	project, err := buildProject(ex.Dir)
	if err != nil {
		return nil, err
	}

	topicDirs, err := archive.TopicDirs(ex.Dir)
	if err != nil {
		return nil, err
	}
	for _, dir := range topicDirs {
		markup, err := readTopicDir(ex.Dir, dir, logger)
		if err != nil {
			return nil, err
		}
		project.AddMarkup(markup)
	}
	return project, nil
}

func checkVersion(dir string) error {
	path := filepath.Join(dir, versionFile)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s: %w", dir, ErrMissingVersion)
	}
	doc, err := schema.ValidateFile(path)
	if err != nil {
		return err
	}
	id := doc.Root().SelectAttrValue("VersionId", "")
	if id != "2.1" {
		return &UnsupportedVersionError{Found: id}
	}
	return nil
}

func buildProject(dir string) (*model.Project, error) {
	path := filepath.Join(dir, "project.bcfp")
	if _, err := os.Stat(path); err != nil {
		// project.bcfp is optional; fall back to an empty project
		return model.NewProject(uuid.Nil, "", "", model.Original), nil
	}
	doc, err := schema.ValidateFile(path)
	if err != nil {
		return nil, err
	}
	root := doc.Root()

	id := uuid.Nil
	name := ""
	if proj := root.SelectElement("Project"); proj != nil {
		id, err = uuid.Parse(proj.SelectAttrValue("ProjectId", ""))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		name = childText(proj, "Name")
	}
	ext := childText(root, "ExtensionSchema")
	return model.NewProject(id, name, ext, model.Original), nil
}

func readTopicDir(scratch, dir string, logger *slog.Logger) (*model.Markup, error) {
	topicPath := filepath.Join(scratch, dir)

	// Viewpoint files first: one broken .bcfv skips that viewpoint only.
	viewpoints := make(map[string]*etree.Element)
	bcfvFiles, err := archive.FilesByExt(topicPath, ".bcfv")
	if err != nil {
		return nil, err
	}
	for _, name := range bcfvFiles {
		doc, err := schema.ValidateFile(filepath.Join(topicPath, name))
		if err != nil {
			logger.Error("skipping invalid viewpoint file", "topic", dir, "file", name, "err", err)
			continue
		}
		viewpoints[name] = doc.Root()
	}

	snapshots, err := archive.FilesByExt(topicPath, ".png")
	if err != nil {
		return nil, err
	}

	markupPath := filepath.Join(topicPath, "markup.bcf")
	doc, err := schema.ValidateFile(markupPath)
	if err != nil {
		return nil, &InvalidMarkupError{TopicDir: dir, Err: err}
	}

	markup, err := buildMarkup(doc.Root(), dir)
	if err != nil {
		return nil, &InvalidMarkupError{TopicDir: dir, Err: err}
	}
	markup.Snapshots = snapshots

	// Attach parsed visualization trees by file name.
	for _, ref := range markup.Viewpoints {
		root, ok := viewpoints[ref.File.Value()]
		if !ok {
			continue
		}
		vi, err := model.ParseVisualizationInfo(root, ref, model.Original)
		if err != nil {
			logger.Error("skipping viewpoint with bad guid", "topic", dir, "file", ref.File.Value(), "err", err)
			continue
		}
		ref.Viewpoint = vi
	}

	// Resolve comment viewpoint links within the markup.
	for _, c := range markup.Comments {
		if c.Viewpoint == nil {
			continue
		}
		ref := markup.ViewpointByGuid(c.Viewpoint.Guid.Value())
		if ref == nil {
			logger.Warn("comment references unknown viewpoint",
				"topic", dir, "comment", c.Guid.Value(), "viewpoint", c.Viewpoint.Guid.Value())
			continue
		}
		c.Viewpoint.Ref = ref
	}
	return markup, nil
}

func buildMarkup(root *etree.Element, dir string) (*model.Markup, error) {
	markup := model.NewMarkup(dir, nil, model.Original)

	if headerEl := root.SelectElement("Header"); headerEl != nil {
		header := model.NewHeader(markup, model.Original)
		for _, fileEl := range headerEl.SelectElements("File") {
			header.AddFile(buildHeaderFile(fileEl, header))
		}
		// some producers write an empty <Header/>; drop it from the model
		if len(header.Files) > 0 {
			markup.SetHeader(header)
		}
	}

	topicEl := root.SelectElement("Topic")
	if topicEl == nil {
		return nil, &MissingFieldError{Path: "Markup/Topic"}
	}
	topic, err := buildTopic(topicEl)
	if err != nil {
		return nil, err
	}
	markup.SetTopic(topic)

	for _, commentEl := range root.SelectElements("Comment") {
		comment, err := buildComment(commentEl)
		if err != nil {
			return nil, err
		}
		markup.AddComment(comment)
	}

	for _, vpEl := range root.SelectElements("Viewpoints") {
		ref, err := buildViewpointReference(vpEl)
		if err != nil {
			return nil, err
		}
		markup.AddViewpoint(ref)
	}
	return markup, nil
}

func buildHeaderFile(el *etree.Element, parent model.Entity) *model.HeaderFile {
	args := model.HeaderFileArgs{
		IfcProject: el.SelectAttrValue("IfcProject", ""),
		IfcSpatial: el.SelectAttrValue("IfcSpatialStructureElement", ""),
		External:   parseBool(el.SelectAttrValue("isExternal", "true")),
		Filename:   childText(el, "Filename"),
		Reference:  childText(el, "Reference"),
	}
	if d, ok := childTime(el, "Date"); ok {
		args.Date = d
	}
	return model.NewHeaderFile(args, parent, model.Original)
}

func buildTopic(el *etree.Element) (*model.Topic, error) {
	guid, err := uuid.Parse(el.SelectAttrValue("Guid", ""))
	if err != nil {
		return nil, fmt.Errorf("Markup/Topic/@Guid: %w", err)
	}
	title, ok := optChildText(el, "Title")
	if !ok {
		return nil, &MissingFieldError{Path: "Markup/Topic/Title"}
	}
	creationDate, ok := childTime(el, "CreationDate")
	if !ok {
		return nil, &MissingFieldError{Path: "Markup/Topic/CreationDate"}
	}
	creationAuthor, ok := optChildText(el, "CreationAuthor")
	if !ok {
		return nil, &MissingFieldError{Path: "Markup/Topic/CreationAuthor"}
	}

	args := model.TopicArgs{
		Guid:           guid,
		Title:          title,
		CreationAuthor: creationAuthor,
		CreationDate:   creationDate,
		Type:           el.SelectAttrValue("TopicType", ""),
		Status:         el.SelectAttrValue("TopicStatus", ""),
		Priority:       childText(el, "Priority"),
		Index:          model.IndexNone,
		Assignee:       childText(el, "AssignedTo"),
		Stage:          childText(el, "Stage"),
		Description:    childText(el, "Description"),
	}
	if idx, ok := optChildText(el, "Index"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, fmt.Errorf("Markup/Topic/Index: %w", err)
		}
		args.Index = n
	}
	for _, l := range el.SelectElements("Labels") {
		args.Labels = append(args.Labels, l.Text())
	}
	for _, r := range el.SelectElements("ReferenceLink") {
		args.ReferenceLinks = append(args.ReferenceLinks, r.Text())
	}
	for _, rel := range el.SelectElements("RelatedTopic") {
		id, err := uuid.Parse(rel.SelectAttrValue("Guid", ""))
		if err != nil {
			return nil, fmt.Errorf("Markup/Topic/RelatedTopic/@Guid: %w", err)
		}
		args.RelatedTopics = append(args.RelatedTopics, id)
	}
	if d, ok := childTime(el, "DueDate"); ok {
		args.DueDate = d
	}
	if d, ok := childTime(el, "ModifiedDate"); ok {
		args.ModifiedDate = d
		args.ModifiedAuthor = childText(el, "ModifiedAuthor")
	}

	topic := model.NewTopic(args, nil, model.Original)

	if snippetEl := el.SelectElement("BimSnippet"); snippetEl != nil {
		topic.SetSnippet(model.NewBimSnippet(
			snippetEl.SelectAttrValue("SnippetType", ""),
			parseBool(snippetEl.SelectAttrValue("isExternal", "false")),
			childText(snippetEl, "Reference"),
			childText(snippetEl, "ReferenceSchema"),
			topic, model.Original))
	}
	for _, docEl := range el.SelectElements("DocumentReference") {
		docGuid := uuid.Nil
		if g := docEl.SelectAttrValue("Guid", ""); g != "" {
			docGuid, err = uuid.Parse(g)
			if err != nil {
				return nil, fmt.Errorf("Markup/Topic/DocumentReference/@Guid: %w", err)
			}
		}
		topic.AddDocRef(model.NewDocumentReference(
			docGuid,
			parseBool(docEl.SelectAttrValue("isExternal", "false")),
			childText(docEl, "ReferencedDocument"),
			childText(docEl, "Description"),
			topic, model.Original))
	}
	return topic, nil
}

func buildComment(el *etree.Element) (*model.Comment, error) {
	guid, err := uuid.Parse(el.SelectAttrValue("Guid", ""))
	if err != nil {
		return nil, fmt.Errorf("Markup/Comment/@Guid: %w", err)
	}
	date, ok := childTime(el, "Date")
	if !ok {
		return nil, &MissingFieldError{Path: "Markup/Comment/Date"}
	}
	author, ok := optChildText(el, "Author")
	if !ok {
		return nil, &MissingFieldError{Path: "Markup/Comment/Author"}
	}
	text, ok := optChildText(el, "Comment")
	if !ok {
		return nil, &MissingFieldError{Path: "Markup/Comment/Comment"}
	}

	args := model.CommentArgs{Guid: guid, Author: author, Date: date, Text: text}
	if vpEl := el.SelectElement("Viewpoint"); vpEl != nil {
		vpGuid, err := uuid.Parse(vpEl.SelectAttrValue("Guid", ""))
		if err != nil {
			return nil, fmt.Errorf("Markup/Comment/Viewpoint/@Guid: %w", err)
		}
		args.ViewpointGuid = vpGuid
	}
	if d, ok := childTime(el, "ModifiedDate"); ok {
		args.ModifiedDate = d
		args.ModifiedAuthor = childText(el, "ModifiedAuthor")
	}
	return model.NewComment(args, nil, model.Original), nil
}

func buildViewpointReference(el *etree.Element) (*model.ViewpointReference, error) {
	guid, err := uuid.Parse(el.SelectAttrValue("Guid", ""))
	if err != nil {
		return nil, fmt.Errorf("Markup/Viewpoints/@Guid: %w", err)
	}
	index := model.IndexNone
	if idx, ok := optChildText(el, "Index"); ok {
		index, err = strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, fmt.Errorf("Markup/Viewpoints/Index: %w", err)
		}
	}
	return model.NewViewpointReference(
		guid,
		childText(el, "Viewpoint"),
		childText(el, "Snapshot"),
		index, nil, model.Original), nil
}

func childText(el *etree.Element, name string) string {
	s, _ := optChildText(el, name)
	return s
}

func optChildText(el *etree.Element, name string) (string, bool) {
	child := el.SelectElement(name)
	if child == nil {
		return "", false
	}
	return child.Text(), true
}

func childTime(el *etree.Element, name string) (time.Time, bool) {
	s, ok := optChildText(el, name)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}
