package marshal

import (
	"fmt"
	"strings"
	"time"

	"github.com/jra3/bcf-go/internal/model"
)

// TopicToMarkdown renders a topic and its comment thread as markdown with
// YAML frontmatter.
func TopicToMarkdown(topic *model.Topic, comments []*model.Comment) ([]byte, error) {
	fm := make(map[string]any)

	fm["guid"] = topic.Guid.Value().String()
	fm["title"] = topic.Title.Value()
	fm["created"] = topic.Creation.Date.Value().Format(time.RFC3339)
	fm["author"] = topic.Creation.Author.Value()

	if v := topic.Type.Value(); v != "" {
		fm["type"] = v
	}
	if v := topic.Status.Value(); v != "" {
		fm["status"] = v
	}
	if v := topic.Priority.Value(); v != "" {
		fm["priority"] = v
	}
	if topic.HasIndex() {
		fm["index"] = topic.Index.Value()
	}
	if v := topic.Assignee.Value(); v != "" {
		fm["assignee"] = v
	}
	if v := topic.Stage.Value(); v != "" {
		fm["stage"] = v
	}
	if !topic.DueDate.IsDefault() {
		fm["due"] = topic.DueDate.Value().Format(time.RFC3339)
	}
	if labels := topic.Labels.Values(); len(labels) > 0 {
		fm["labels"] = labels
	}

	var body strings.Builder
	if desc := topic.Description.Value(); desc != "" {
		body.WriteString(desc)
		body.WriteString("\n")
	} else {
		fmt.Fprintf(&body, "# %s\n", topic.Title.Value())
	}
	for _, c := range comments {
		fmt.Fprintf(&body, "\n---\n%s (%s):\n\n%s\n",
			c.Creation.Author.Value(),
			c.Creation.Date.Value().Format(time.RFC3339),
			c.Text.Value())
	}

	return Render(&Document{Frontmatter: fm, Body: body.String()})
}
