package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"examgrader/src/core/exam"
	"examgrader/src/fsutil"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the course material of an exam and query it",
	Long: `The index command loads slides and lecture transcripts of an exam into the
configured retrieval backend. With --query it prints the chunks retrieved for
the query, which is useful to check retrieval before solving.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, map[string]string{
			"course-material-path": "course_material.path",
			"backend":              "retrieval.backend",
			"similarity-top-k":     "retrieval.top_k",
		})
	},
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().String("exam-json-path", "", "exam file <root>/<exam>/<exam>_<lang>.json")
	indexCmd.MarkFlagRequired("exam-json-path")
	indexCmd.Flags().String("course-material-path", "", "directory holding <exam>_<lang> course material")
	indexCmd.Flags().String("backend", "", "weaviate or elastic")
	indexCmd.Flags().Int("similarity-top-k", 0, "number of chunks to print for --query")
	indexCmd.Flags().String("query", "", "retrieve chunks for this text after indexing")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	examPath, _ := cmd.Flags().GetString("exam-json-path")
	query, _ := cmd.Flags().GetString("query")

	fs := fsutil.NewLocalFileStore()
	e, err := exam.Load(fs, examPath)
	if err != nil {
		return err
	}

	retriever, err := indexCourseMaterial(ctx, fs, e)
	if err != nil {
		return err
	}
	if query == "" {
		return nil
	}

	chunks, err := retriever.Retrieve(ctx, query, viper.GetInt("retrieval.top_k"))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, c := range chunks {
		fmt.Fprintf(out, "--- %d ---\n%s\n", i+1, strings.TrimSpace(c))
	}
	return nil
}
