package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jra3/bcf-go/pkg/bcf"
)

var topicsCmd = &cobra.Command{
	Use:   "topics <archive>",
	Short: "List the topics of an archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runTopics,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}

func runTopics(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	project, err := bcf.Open(args[0], bcf.WithLogger(logger))
	if err != nil {
		return err
	}
	defer project.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tGUID\tSTATUS\tTITLE")
	for i, t := range project.Topics() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, t.Guid.Value(), t.Status.Value(), t.Title.Value())
	}
	return w.Flush()
}
