package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"examgrader/src/core/exam"
	"examgrader/src/core/examflow"
	"examgrader/src/core/figure"
	"examgrader/src/fsutil"
	"examgrader/src/jobctrl"
	"examgrader/src/log"
	"examgrader/src/storage/minioctrl"
	"examgrader/src/storage/postgres/gradectrl"
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Grade a solve transcript against the exam rubric",
	Long: `The grade command extracts the answer of every exam question from a
transcript, asks the grading model for a score, and prints a JSON summary.
Questions whose answer is missing, or whose grade cannot be read, are flagged
for manual review. The transcript may be a local path or a minio:// URL.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, modelFlagKeys)
		bindFlags(cmd, map[string]string{
			"shots":         "grading.shots",
			"with-ref":      "grading.with_ref",
			"stack-figures": "figures.stack",
		})
	},
	RunE: runGrade,
}

func init() {
	rootCmd.AddCommand(gradeCmd)

	gradeCmd.Flags().String("exam-json-path", "", "exam file with the rubric")
	gradeCmd.MarkFlagRequired("exam-json-path")
	gradeCmd.Flags().String("transcript", "", "transcript path or minio:// URL")
	gradeCmd.MarkFlagRequired("transcript")
	gradeCmd.Flags().String("answered-by", "", "name of the model that wrote the transcript")
	gradeCmd.Flags().Bool("figures", false, "send question figures to the grading model")
	gradeCmd.Flags().Bool("store", false, "store the grades in postgres")
	gradeCmd.Flags().StringP("output", "o", "", "write the summary to this file instead of stdout")

	addModelFlags(gradeCmd)
	gradeCmd.Flags().String("shots", "", "JSON file with worked grading examples")
	gradeCmd.Flags().Bool("with-ref", true, "include reference answers in the prompt")
	gradeCmd.Flags().Bool("stack-figures", false, "send all figures of a question as one image")
}

func runGrade(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	examPath, _ := cmd.Flags().GetString("exam-json-path")
	location, _ := cmd.Flags().GetString("transcript")
	answeredBy, _ := cmd.Flags().GetString("answered-by")
	withFigures, _ := cmd.Flags().GetBool("figures")
	store, _ := cmd.Flags().GetBool("store")
	output, _ := cmd.Flags().GetString("output")

	fs := fsutil.NewLocalFileStore()
	e, err := exam.Load(fs, examPath)
	if err != nil {
		return err
	}

	var objects jobctrl.ObjectGetter
	if strings.HasPrefix(location, minioctrl.URLScheme) {
		svc, err := newMinioService()
		if err != nil {
			return err
		}
		objects = svc
	}
	transcript, err := jobctrl.ReadTranscript(ctx, fs, objects, location)
	if err != nil {
		return err
	}

	llm, err := newLLMProvider()
	if err != nil {
		return err
	}
	bar := progressbar.Default(int64(len(e.Questions)), "grading "+e.Name)
	opts := []examflow.GradeOption{examflow.WithGradeProgress(bar)}
	if withFigures {
		stack := viper.GetBool("figures.stack")
		opts = append(opts, examflow.WithGradeFigures(figure.NewProcessor(fs, examsRoot(examPath), stack), stack))
	}
	flow, err := newGradeFlow(fs, llm, opts...)
	if err != nil {
		return err
	}

	results, err := flow.GradeTranscript(ctx, e, string(transcript))
	if err != nil {
		return err
	}
	summary := jobctrl.Summarize(results)

	if store {
		db, closeDB, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB()

		grades, err := gradectrl.NewGradeService(db)
		if err != nil {
			return err
		}
		if err := grades.AutoMigrate(); err != nil {
			return err
		}
		runID, _, err := grades.CreateRun(ctx, gradectrl.RunInfo{Exam: e.Name, Lang: e.Lang, LLMName: answeredBy}, results)
		if err != nil {
			return err
		}
		summary.RunID = runID
	}

	log.Info("graded transcript",
		"exam", e.Name,
		"earned", summary.Earned,
		"possible", summary.Possible,
		"needs_review", summary.NeedsReview)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if output != "" {
		return fs.WriteFile(output, data)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
