// Package bcf is the programmatic surface of the library: opening and
// saving BCF 2.1 archives, reading topics, comments and viewpoints, and
// mutating the project with changes that are committed to the archive
// through the differential writer.
package bcf

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jra3/bcf-go/internal/archive"
	"github.com/jra3/bcf-go/internal/model"
	"github.com/jra3/bcf-go/internal/reader"
	"github.com/jra3/bcf-go/internal/writer"
)

// Project is an open BCF archive: the entity graph plus the scratch
// directory it was extracted to. It is not safe for concurrent mutation.
type Project struct {
	path   string
	ex     *archive.Extraction
	root   *model.Project
	queue  *writer.Queue
	logger *slog.Logger
	closed bool
}

// Option configures Open.
type Option func(*Project)

// WithLogger routes reader warnings and writer traces to the given
// logger instead of slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Project) { p.logger = l }
}

// Open extracts and reads the archive at path. All reader errors are
// fatal: a partial project is never returned.
func Open(path string, opts ...Option) (*Project, error) {
	p := &Project{path: path}
	for _, o := range opts {
		o(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	ex, err := archive.Extract(path)
	if err != nil {
		return nil, err
	}
	root, err := reader.ReadProject(ex, p.logger)
	if err != nil {
		os.RemoveAll(ex.Dir)
		return nil, err
	}
	p.ex = ex
	p.root = root
	p.queue = writer.NewQueue(p.logger)
	return p, nil
}

// Close removes the scratch directory. Pending updates are discarded.
func (p *Project) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.queue.Clear()
	return os.RemoveAll(p.ex.Dir)
}

// Path returns the archive path this project was opened from.
func (p *Project) Path() string { return p.path }

// Model exposes the underlying entity graph.
func (p *Project) Model() *model.Project { return p.root }

// Save commits pending updates to the current archive, then writes the
// archive to out (which may equal the original path).
func (p *Project) Save(out string) error {
	if p.closed {
		return ErrClosed
	}
	if err := p.processUpdates(); err != nil {
		return err
	}
	if out == p.path {
		return nil
	}
	return archive.Repack(p.ex, out)
}

// Topics returns the topics ordered by index; topics without an index
// trail, stable among themselves.
func (p *Project) Topics() []*model.Topic {
	var topics []*model.Topic
	for _, m := range p.root.Markups {
		if m.State() != model.Deleted && m.Topic != nil {
			topics = append(topics, m.Topic)
		}
	}
	sort.SliceStable(topics, func(i, j int) bool {
		a, b := topics[i], topics[j]
		switch {
		case a.HasIndex() && b.HasIndex():
			return a.Index.Value() < b.Index.Value()
		case a.HasIndex():
			return true
		default:
			return false
		}
	})
	return topics
}

// Comments returns the topic's comments ordered by creation date,
// ascending. When viewpoint is non-nil, only comments referencing it are
// returned.
func (p *Project) Comments(topic *model.Topic, viewpoint *model.ViewpointReference) ([]*model.Comment, error) {
	markup, err := p.markupOf(topic)
	if err != nil {
		return nil, err
	}
	var comments []*model.Comment
	for _, c := range markup.Comments {
		if c.State() == model.Deleted {
			continue
		}
		if viewpoint != nil {
			if c.Viewpoint == nil || c.Viewpoint.Guid.Value() != viewpoint.Guid.Value() {
				continue
			}
		}
		comments = append(comments, c)
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Creation.Date.Value().Before(comments[j].Creation.Date.Value())
	})
	return comments, nil
}

// ViewpointEntry pairs a viewpoint file name with its parsed content.
type ViewpointEntry struct {
	Filename  string
	Viewpoint *model.VisualizationInfo
}

// Viewpoints returns the topic's viewpoints with their file names. Entries
// whose .bcfv failed to load carry a nil Viewpoint.
func (p *Project) Viewpoints(topic *model.Topic) ([]ViewpointEntry, error) {
	markup, err := p.markupOf(topic)
	if err != nil {
		return nil, err
	}
	var out []ViewpointEntry
	for _, ref := range markup.Viewpoints {
		if ref.State() == model.Deleted {
			continue
		}
		out = append(out, ViewpointEntry{Filename: ref.File.Value(), Viewpoint: ref.Viewpoint})
	}
	return out, nil
}

// Snapshots returns the paths of the topic's snapshot images inside the
// scratch directory.
func (p *Project) Snapshots(topic *model.Topic) ([]string, error) {
	markup, err := p.markupOf(topic)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(markup.Snapshots))
	for i, name := range markup.Snapshots {
		out[i] = filepath.Join(p.ex.Dir, markup.TopicDir, name)
	}
	return out, nil
}

// RelevantIfcFiles returns the header files that carry both an IFC
// project id and a reference path.
func (p *Project) RelevantIfcFiles(topic *model.Topic) ([]*model.HeaderFile, error) {
	markup, err := p.markupOf(topic)
	if err != nil {
		return nil, err
	}
	if markup.Header == nil {
		return nil, nil
	}
	var out []*model.HeaderFile
	for _, f := range markup.Header.Files {
		if f.State() == model.Deleted {
			continue
		}
		if !f.IfcProject.IsDefault() && !f.Reference.IsDefault() {
			out = append(out, f)
		}
	}
	return out, nil
}

// AddComment appends a comment to the topic, authored now. When viewpoint
// is non-nil the comment references it. The archive is committed before
// AddComment returns.
func (p *Project) AddComment(topic *model.Topic, text, author string, viewpoint *model.ViewpointReference) error {
	markup, err := p.markupOf(topic)
	if err != nil {
		return err
	}
	args := model.CommentArgs{
		Guid:   uuid.New(),
		Author: author,
		Date:   time.Now().UTC().Truncate(time.Second),
		Text:   text,
	}
	if viewpoint != nil {
		args.ViewpointGuid = viewpoint.Guid.Value()
	}
	comment := model.NewComment(args, markup, model.Added)
	if viewpoint != nil {
		comment.Viewpoint.Ref = viewpoint
	}
	markup.AddComment(comment)
	p.queue.Add(comment, nil)
	return p.processUpdates()
}

// AddHeaderFile attaches a model-file reference to the topic's markup,
// creating the header when the markup has none.
func (p *Project) AddHeaderFile(topic *model.Topic, args model.HeaderFileArgs) error {
	markup, err := p.markupOf(topic)
	if err != nil {
		return err
	}
	if markup.Header == nil {
		header := model.NewHeader(markup, model.Added)
		header.AddFile(model.NewHeaderFile(args, header, model.Added))
		markup.SetHeader(header)
		p.queue.Add(header, nil)
	} else {
		file := model.NewHeaderFile(args, markup.Header, model.Added)
		markup.Header.AddFile(file)
		p.queue.Add(file, nil)
	}
	return p.processUpdates()
}

// AddLabel appends one label to the topic without rewriting the others.
func (p *Project) AddLabel(topic *model.Topic, label string) error {
	if _, err := p.markupOf(topic); err != nil {
		return err
	}
	topic.Labels.Add(label)
	p.queue.Add(topic.Labels, nil)
	return p.processUpdates()
}

// AddDocumentReference attaches a document reference to the topic.
func (p *Project) AddDocumentReference(topic *model.Topic, guid uuid.UUID, external bool, reference, description string) error {
	if _, err := p.markupOf(topic); err != nil {
		return err
	}
	doc := model.NewDocumentReference(guid, external, reference, description, topic, model.Added)
	topic.AddDocRef(doc)
	p.queue.Add(doc, nil)
	return p.processUpdates()
}

// SetAssignee sets or replaces the topic's assignee.
func (p *Project) SetAssignee(topic *model.Topic, assignee string) error {
	return p.setString(topic, topic.Assignee, assignee)
}

// SetTitle replaces the topic's title.
func (p *Project) SetTitle(topic *model.Topic, title string) error {
	return p.setString(topic, topic.Title, title)
}

// SetDescription sets or replaces the topic's description.
func (p *Project) SetDescription(topic *model.Topic, description string) error {
	return p.setString(topic, topic.Description, description)
}

func (p *Project) setString(topic *model.Topic, cell *model.SimpleElement[string], v string) error {
	if _, err := p.markupOf(topic); err != nil {
		return err
	}
	prev := cell.Value()
	cell.Set(v)
	p.queue.Add(cell, prev)
	return p.processUpdates()
}

// CommitCell flushes a cell the caller has already mutated through its
// setter. prev is the value the cell held before.
func (p *Project) CommitCell(cell model.Cell, prev any) error {
	if p.closed {
		return ErrClosed
	}
	if model.Root(cell.Owner()) != model.Entity(p.root) {
		return ErrNotInProject
	}
	p.queue.Add(cell, prev)
	return p.processUpdates()
}

// DeleteEntity removes an entity and everything it owns from the model
// and the archive. Deleting the last entity of an optional container
// removes the container element; deleting a whole markup removes its
// directory.
func (p *Project) DeleteEntity(ent model.Entity) error {
	if p.closed {
		return ErrClosed
	}
	if model.Root(ent) != model.Entity(p.root) {
		return ErrNotInProject
	}
	model.MarkDeleted(ent)
	p.queue.Add(ent, nil)
	return p.processUpdates()
}

func (p *Project) markupOf(topic *model.Topic) (*model.Markup, error) {
	if p.closed {
		return nil, ErrClosed
	}
	if topic == nil {
		return nil, ErrNotInProject
	}
	markup, ok := topic.Parent().(*model.Markup)
	if !ok || model.Root(markup) != model.Entity(p.root) {
		return nil, ErrNotInProject
	}
	return markup, nil
}

func (p *Project) processUpdates() error {
	failed, err := p.queue.Process(p.root, p.ex, p.path)
	if err != nil {
		if failed != nil {
			return &UpdateError{Update: failed, Err: err}
		}
		return err
	}
	return nil
}
