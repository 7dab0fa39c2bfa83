package writer

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/jra3/bcf-go/internal/archive"
	"github.com/jra3/bcf-go/internal/model"
	"github.com/jra3/bcf-go/internal/schema"
)

// Update is one queued change: the entity or cell whose state machine says
// what has to happen, plus the previous value for the caller's benefit
// when the update fails.
type Update struct {
	Target any // model.Entity or model.Cell
	Prev   any
}

// Queue collects updates and flushes them to the extracted archive in one
// transaction. A failing update rolls back everything staged, keeps the
// queue intact and is returned to the caller for inspection.
type Queue struct {
	updates []Update
	logger  *slog.Logger
}

func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{logger: logger}
}

// Add appends an update record. prev carries the value the target held
// before the mutation.
func (q *Queue) Add(target, prev any) {
	q.updates = append(q.updates, Update{Target: target, Prev: prev})
}

// Len reports the number of pending updates.
func (q *Queue) Len() int { return len(q.updates) }

// Clear drops all pending updates without applying them.
func (q *Queue) Clear() { q.updates = nil }

// Process drains the queue. Updates apply in arrival order except that
// deletions run before additions; every touched document is re-validated
// before the archive is repacked atomically. On success the queue is
// cleared and every state in the project resets to Original. On failure
// the offending update is returned, nothing is written, and the queue is
// preserved so the caller can fix the model and retry.
func (q *Queue) Process(project *model.Project, ex *archive.Extraction, archivePath string) (*Update, error) {
	if len(q.updates) == 0 {
		return nil, nil
	}
	st := &staging{dir: ex.Dir, docs: map[string]*etree.Document{}}

	for _, u := range orderUpdates(q.updates) {
		rels, err := st.apply(u)
		if err != nil {
			return &u, err
		}
		for _, rel := range rels {
			doc := st.docs[rel]
			if doc == nil || doc.Root() == nil {
				continue
			}
			if diags := schema.Validate(doc.Root()); len(diags) > 0 {
				return &u, &schema.ValidationError{File: rel, Diags: diags}
			}
			q.logger.Debug("staged update", "file", rel, "target", fmt.Sprintf("%T", u.Target))
		}
	}

	if err := st.commit(); err != nil {
		return nil, err
	}
	if err := archive.Repack(ex, archivePath); err != nil {
		return nil, err
	}

	model.Prune(project)
	model.ResetStates(project)
	q.updates = nil
	return nil, nil
}

// orderUpdates moves deletions ahead of everything else, keeping arrival
// order within each group, so that a delete-then-add on one parent never
// sees the stale sibling.
func orderUpdates(updates []Update) []Update {
	out := make([]Update, 0, len(updates))
	for _, u := range updates {
		if targetState(u.Target) == model.Deleted {
			out = append(out, u)
		}
	}
	for _, u := range updates {
		if targetState(u.Target) != model.Deleted {
			out = append(out, u)
		}
	}
	return out
}

func targetState(target any) model.State {
	switch t := target.(type) {
	case model.Cell:
		return t.State()
	case model.Entity:
		return t.State()
	}
	return model.Original
}

type staging struct {
	dir         string
	docs        map[string]*etree.Document
	removeDirs  []string
	removeFiles []string
}

// doc returns the staged document for rel, loading it from the scratch
// directory on first use. createRoot, when non-empty, allows synthesising
// a missing document with that root element.
func (s *staging) doc(rel, createRoot string) (*etree.Document, error) {
	if d, ok := s.docs[rel]; ok {
		return d, nil
	}
	full := filepath.Join(s.dir, filepath.FromSlash(rel))
	d := etree.NewDocument()
	if err := d.ReadFromFile(full); err != nil {
		if !os.IsNotExist(err) || createRoot == "" {
			return nil, fmt.Errorf("loading %s: %w", rel, err)
		}
		d = etree.NewDocument()
		d.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
		d.CreateElement(createRoot)
	}
	s.docs[rel] = d
	return d, nil
}

func (s *staging) apply(u Update) ([]string, error) {
	var ent model.Entity
	var cell model.Cell
	switch t := u.Target.(type) {
	case model.Cell:
		cell = t
		ent = t.Owner()
	case model.Entity:
		ent = t
	default:
		return nil, fmt.Errorf("unsupported update target %T", u.Target)
	}

	var markup *model.Markup
	var proj *model.Project
	for e := ent; e != nil; e = e.Parent() {
		switch v := e.(type) {
		case *model.Markup:
			if markup == nil {
				markup = v
			}
		case *model.Project:
			proj = v
		}
	}

	if markup != nil {
		return s.applyMarkup(u, markup, cell)
	}
	if proj != nil {
		return s.applyProject(u, proj, cell)
	}
	return nil, fmt.Errorf("target %T is not attached to a project", u.Target)
}

func (s *staging) applyMarkup(u Update, markup *model.Markup, cell model.Cell) ([]string, error) {
	markupRel := path.Join(markup.TopicDir, "markup.bcf")

	// Whole-markup lifecycle first: a new topic directory or its removal.
	if m, ok := u.Target.(*model.Markup); ok {
		switch m.State() {
		case model.Added:
			doc := etree.NewDocument()
			doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
			m.WriteElement(doc.CreateElement("Markup"))
			s.docs[markupRel] = doc
			rels := []string{markupRel}
			for _, ref := range m.Viewpoints {
				if ref.Viewpoint == nil || ref.File.Value() == "" {
					continue
				}
				rels = append(rels, s.stageViewpointFile(m, ref))
			}
			return rels, nil
		case model.Deleted:
			s.removeDirs = append(s.removeDirs, markup.TopicDir)
			for rel := range s.docs {
				if strings.HasPrefix(rel, markup.TopicDir+"/") {
					delete(s.docs, rel)
				}
			}
			return nil, nil
		default:
			return nil, nil
		}
	}

	// A fresh viewpoint file next to its markup entry.
	if ref, ok := u.Target.(*model.ViewpointReference); ok && ref.State() == model.Added {
		doc, err := s.doc(markupRel, "")
		if err != nil {
			return nil, err
		}
		if err := AddEntity(doc.Root(), ref); err != nil {
			return nil, err
		}
		rels := []string{markupRel}
		if ref.Viewpoint != nil && ref.File.Value() != "" {
			rels = append(rels, s.stageViewpointFile(markup, ref))
		}
		return rels, nil
	}
	if ref, ok := u.Target.(*model.ViewpointReference); ok && ref.State() == model.Deleted {
		if f := ref.File.Value(); f != "" {
			s.removeFiles = append(s.removeFiles, path.Join(markup.TopicDir, f))
		}
		if f := ref.Snapshot.Value(); f != "" {
			s.removeFiles = append(s.removeFiles, path.Join(markup.TopicDir, f))
		}
		// fall through to the generic entity delete below
	}
	if vi, ok := u.Target.(*model.VisualizationInfo); ok {
		ref, refOK := vi.Parent().(*model.ViewpointReference)
		if !refOK || ref.File.Value() == "" {
			return nil, fmt.Errorf("viewpoint has no file reference")
		}
		switch vi.State() {
		case model.Added:
			return []string{s.stageViewpointFile(markup, ref)}, nil
		case model.Deleted:
			s.removeFiles = append(s.removeFiles, path.Join(markup.TopicDir, ref.File.Value()))
		}
		return nil, nil
	}

	doc, err := s.doc(markupRel, "")
	if err != nil {
		return nil, err
	}
	root := doc.Root()

	if cell != nil {
		switch cell.State() {
		case model.Added, model.Modified:
			err = UpsertCell(root, cell)
		case model.Deleted:
			err = DeleteCell(root, cell)
		}
		if err != nil {
			return nil, err
		}
		return []string{markupRel}, nil
	}

	ent := u.Target.(model.Entity)
	switch ent.State() {
	case model.Added:
		err = AddEntity(root, ent)
	case model.Deleted:
		err = DeleteEntity(root, ent)
	case model.Modified:
		// entity-level modifications arrive as cell updates
	}
	if err != nil {
		return nil, err
	}
	return []string{markupRel}, nil
}

func (s *staging) stageViewpointFile(markup *model.Markup, ref *model.ViewpointReference) string {
	rel := path.Join(markup.TopicDir, ref.File.Value())
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	ref.Viewpoint.WriteElement(doc.CreateElement("VisualizationInfo"))
	s.docs[rel] = doc
	return rel
}

func (s *staging) applyProject(u Update, proj *model.Project, cell model.Cell) ([]string, error) {
	const rel = "project.bcfp"
	doc, err := s.doc(rel, "ProjectExtension")
	if err != nil {
		return nil, err
	}
	root := doc.Root()

	if cell == nil {
		// the Project entity itself never moves; only its cells do
		return nil, nil
	}

	ensureProject := func() *etree.Element {
		el := root.SelectElement("Project")
		if el == nil {
			el = etree.NewElement("Project")
			el.CreateAttr("ProjectId", proj.ID.StringValue())
			insertOrdered(root, schema.ProjectExtension, el)
		}
		return el
	}

	switch cell.XMLName() {
	case "ProjectId":
		if cell.State() == model.Deleted {
			return nil, fmt.Errorf("project id cannot be deleted")
		}
		ensureProject().CreateAttr("ProjectId", cell.StringValue())
	case "Name":
		el := ensureProject()
		switch cell.State() {
		case model.Deleted:
			if child := el.SelectElement("Name"); child != nil {
				el.RemoveChild(child)
			}
		default:
			if child := el.SelectElement("Name"); child != nil {
				child.SetText(cell.StringValue())
			} else {
				name := etree.NewElement("Name")
				name.SetText(cell.StringValue())
				el.AddChild(name)
			}
		}
	case "ExtensionSchema":
		switch cell.State() {
		case model.Deleted:
			if child := root.SelectElement("ExtensionSchema"); child != nil {
				root.RemoveChild(child)
			}
		default:
			if child := root.SelectElement("ExtensionSchema"); child != nil {
				child.SetText(cell.StringValue())
			} else {
				ext := etree.NewElement("ExtensionSchema")
				ext.SetText(cell.StringValue())
				insertOrdered(root, schema.ProjectExtension, ext)
			}
		}
	default:
		return nil, fmt.Errorf("unknown project field %s", cell.XMLName())
	}
	return []string{rel}, nil
}

// commit writes staged documents into the scratch tree and applies file
// and directory removals. Nothing touches the archive itself; the repack
// that follows is what publishes the change, atomically.
func (s *staging) commit() error {
	for rel, doc := range s.docs {
		if s.underRemovedDir(rel) {
			continue
		}
		full := filepath.Join(s.dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := doc.WriteToFile(full); err != nil {
			return err
		}
	}
	for _, rel := range s.removeFiles {
		if s.underRemovedDir(rel) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	for _, dir := range s.removeDirs {
		if err := os.RemoveAll(filepath.Join(s.dir, dir)); err != nil {
			return err
		}
	}
	return nil
}

func (s *staging) underRemovedDir(rel string) bool {
	for _, dir := range s.removeDirs {
		if strings.HasPrefix(rel, dir+"/") {
			return true
		}
	}
	return false
}
