package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jra3/bcf-go/pkg/bcf"
)

var commentsCmd = &cobra.Command{
	Use:   "comments <archive> <topic-index>",
	Short: "Print the comment thread of a topic",
	Args:  cobra.ExactArgs(2),
	RunE:  runComments,
}

var addCommentCmd = &cobra.Command{
	Use:   "add-comment <archive> <topic-index> <text>",
	Short: "Append a comment to a topic and commit the archive",
	Args:  cobra.ExactArgs(3),
	RunE:  runAddComment,
}

func init() {
	rootCmd.AddCommand(commentsCmd)
	rootCmd.AddCommand(addCommentCmd)
	addCommentCmd.Flags().StringP("author", "a", "", "comment author (required)")
	addCommentCmd.MarkFlagRequired("author")
}

func topicByIndex(project *bcf.Project, arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("topic index must be a number: %w", err)
	}
	if n < 0 || n >= len(project.Topics()) {
		return 0, fmt.Errorf("topic index %d out of range (%d topics)", n, len(project.Topics()))
	}
	return n, nil
}

func runComments(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	project, err := bcf.Open(args[0], bcf.WithLogger(logger))
	if err != nil {
		return err
	}
	defer project.Close()

	n, err := topicByIndex(project, args[1])
	if err != nil {
		return err
	}
	topic := project.Topics()[n]
	comments, err := project.Comments(topic, nil)
	if err != nil {
		return err
	}
	fmt.Printf("%s — %d comment(s)\n", topic.Title.Value(), len(comments))
	for _, c := range comments {
		fmt.Printf("\n[%s] %s\n%s\n",
			c.Creation.Date.Value().Format(time.RFC3339),
			c.Creation.Author.Value(),
			c.Text.Value())
	}
	return nil
}

func runAddComment(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	project, err := bcf.Open(args[0], bcf.WithLogger(logger))
	if err != nil {
		return err
	}
	defer project.Close()

	n, err := topicByIndex(project, args[1])
	if err != nil {
		return err
	}
	author, _ := cmd.Flags().GetString("author")
	if err := project.AddComment(project.Topics()[n], args[2], author, nil); err != nil {
		return err
	}
	fmt.Println("comment added")
	return nil
}
