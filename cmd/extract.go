package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"examgrader/src/core/answer"
	"examgrader/src/core/exam"
	"examgrader/src/fsutil"
	"examgrader/src/log"
)

var extractCmd = &cobra.Command{
	Use:   "extract <transcript> [question-id...]",
	Short: "Print answers from a solve transcript",
	Long: `The extract command prints the answer block of each given question. With
--exam-json-path and no question ids, every question of the exam is printed and
missing answers are reported without stopping.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("exam-json-path", "", "take question ids from this exam")
	extractCmd.Flags().Bool("raw", false, "print answers without trimming surrounding whitespace")
}

func runExtract(cmd *cobra.Command, args []string) error {
	examPath, _ := cmd.Flags().GetString("exam-json-path")
	raw, _ := cmd.Flags().GetBool("raw")

	fs := fsutil.NewLocalFileStore()
	data, err := fs.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read transcript %s: %w", args[0], err)
	}
	transcript := string(data)

	ids := args[1:]
	strict := true
	if len(ids) == 0 {
		if examPath == "" {
			return fmt.Errorf("either question ids or --exam-json-path is required")
		}
		e, err := exam.Load(fs, examPath)
		if err != nil {
			return err
		}
		for _, q := range e.Questions {
			ids = append(ids, q.Index.String())
		}
		strict = false
	}

	out := cmd.OutOrStdout()
	for _, id := range ids {
		text, err := answer.ExtractAnswer(id, transcript)
		if err != nil {
			if strict {
				return err
			}
			log.Error(err, "skipping question")
			continue
		}
		if !raw {
			text = strings.TrimSpace(text)
		}
		fmt.Fprintf(out, "%s%s\n%s\n\n", answer.StartMarkerPrefix, id, text)
	}
	return nil
}
