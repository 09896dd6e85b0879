package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"examgrader/src/core/exam"
	"examgrader/src/core/examflow"
	"examgrader/src/core/figure"
	"examgrader/src/fsutil"
	"examgrader/src/log"
	"examgrader/src/storage/minioctrl"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Answer every question of an exam with a language model",
	Long: `The solve command sends each question of an exam, with its figures and
optionally retrieved course material, to the configured model and writes the
answers to <out_dir>/<exam>/<exam>_<lang>_<llm_name>.txt. An existing report
is left untouched.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, modelFlagKeys)
		bindFlags(cmd, map[string]string{
			"course-material-path": "course_material.path",
			"embedding-model-name": "embedding.model",
			"similarity-top-k":     "retrieval.top_k",
			"stack-figures":        "figures.stack",
			"upload":               "minio.upload",
		})
	},
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)

	solveCmd.Flags().String("exam-json-path", "", "exam file <root>/<exam>/<exam>_<lang>.json")
	solveCmd.MarkFlagRequired("exam-json-path")
	solveCmd.Flags().Bool("use-course-material", false, "add retrieved course material to each question")

	addModelFlags(solveCmd)
	solveCmd.Flags().String("course-material-path", "", "directory holding <exam>_<lang> course material")
	solveCmd.Flags().String("embedding-model-name", "", "embedding model for vector retrieval")
	solveCmd.Flags().Int("similarity-top-k", 0, "number of course material chunks per question")
	solveCmd.Flags().Bool("stack-figures", false, "send all figures of a question as one image")
	solveCmd.Flags().Bool("upload", false, "upload the report to MinIO")
}

// reportPath returns where the transcript of e answered by llmName is stored.
func reportPath(outDir string, e *exam.Exam, llmName string) string {
	return filepath.Join(outDir, e.Name, fmt.Sprintf("%s_%s_%s.txt", e.Name, e.Lang, llmName))
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	examPath, _ := cmd.Flags().GetString("exam-json-path")
	useCourseMaterial, _ := cmd.Flags().GetBool("use-course-material")
	llmName := viper.GetString("llm.name")
	stack := viper.GetBool("figures.stack")

	fs := fsutil.NewLocalFileStore()
	e, err := exam.Load(fs, examPath)
	if err != nil {
		return err
	}

	outDir := viper.GetString("output.dir")
	if useCourseMaterial {
		outDir = viper.GetString("output.dir_cm")
	}
	out := reportPath(outDir, e, llmName)
	exists, err := fs.Exists(out)
	if err != nil {
		return err
	}
	if exists {
		log.Info("report already exists, skipping", "path", out)
		return nil
	}

	llm, err := newLLMProvider()
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(e.Questions)), "solving "+e.Name)
	opts := []examflow.SolveOption{
		examflow.WithFigures(figure.NewProcessor(fs, examsRoot(examPath), stack)),
		examflow.WithStackedFigures(stack),
		examflow.WithSolveProgress(bar),
	}
	if useCourseMaterial {
		retriever, err := indexCourseMaterial(ctx, fs, e)
		if err != nil {
			return err
		}
		opts = append(opts, examflow.WithRetriever(retriever, viper.GetInt("retrieval.top_k")))
	}

	transcript, err := examflow.NewSolveFlow(llm, opts...).Solve(ctx, e)
	if err != nil {
		return err
	}

	if err := fs.WriteFile(out, []byte(transcript)); err != nil {
		return fmt.Errorf("failed to write report %s: %w", out, err)
	}
	log.Info("wrote report", "path", out, "questions", len(e.Questions))

	if viper.GetBool("minio.upload") {
		svc, err := newMinioService()
		if err != nil {
			return err
		}
		url, err := svc.UploadReport(ctx, minioctrl.ReportKey(outDir, e.Name, e.Lang, llmName), []byte(transcript))
		if err != nil {
			return err
		}
		log.Info("uploaded report", "url", url)
	}
	return nil
}
