package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jra3/bcf-go/internal/marshal"
	"github.com/jra3/bcf-go/pkg/bcf"
)

var showCmd = &cobra.Command{
	Use:   "show <archive> <topic-index>",
	Short: "Print a topic with its comment thread as markdown",
	Args:  cobra.ExactArgs(2),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
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
	out, err := marshal.TopicToMarkdown(topic, comments)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
