package model

// Prune drops every Deleted entity from the graph after the writer has
// flushed the corresponding removals.
func Prune(p *Project) {
	markups := p.Markups[:0]
	for _, m := range p.Markups {
		if m.State() == Deleted {
			continue
		}
		pruneMarkup(m)
		markups = append(markups, m)
	}
	p.Markups = markups
}

func pruneMarkup(m *Markup) {
	if m.Header != nil {
		if m.Header.State() == Deleted {
			m.Header = nil
		} else {
			files := m.Header.Files[:0]
			for _, f := range m.Header.Files {
				if f.State() != Deleted {
					files = append(files, f)
				}
			}
			m.Header.Files = files
		}
	}
	if t := m.Topic; t != nil {
		if t.LastModification != nil && t.LastModification.State() == Deleted {
			t.LastModification = nil
		}
		if t.Snippet != nil && t.Snippet.State() == Deleted {
			t.Snippet = nil
		}
		docRefs := t.DocRefs[:0]
		for _, d := range t.DocRefs {
			if d.State() != Deleted {
				docRefs = append(docRefs, d)
			}
		}
		t.DocRefs = docRefs
	}
	comments := m.Comments[:0]
	for _, c := range m.Comments {
		if c.State() == Deleted {
			continue
		}
		if c.Viewpoint != nil && c.Viewpoint.State() == Deleted {
			c.Viewpoint = nil
		}
		if c.LastModification != nil && c.LastModification.State() == Deleted {
			c.LastModification = nil
		}
		comments = append(comments, c)
	}
	m.Comments = comments

	viewpoints := m.Viewpoints[:0]
	for _, v := range m.Viewpoints {
		if v.State() != Deleted {
			viewpoints = append(viewpoints, v)
		}
	}
	m.Viewpoints = viewpoints
}
