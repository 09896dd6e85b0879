package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"examgrader/src/log"
	"examgrader/src/storage/postgres/gradectrl"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Inspect stored grades and resolve the ones needing manual review",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List grades of a run, or the open reviews of an exam",
	RunE:  runReviewList,
}

var reviewSetCmd = &cobra.Command{
	Use:   "set <record-id> <grade>",
	Short: "Set a manual grade on a stored record",
	Args:  cobra.ExactArgs(2),
	RunE:  runReviewSet,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.AddCommand(reviewListCmd, reviewSetCmd)

	reviewListCmd.Flags().String("run", "", "list every record of this run")
	reviewListCmd.Flags().String("exam", "", "list records of this exam that need review")
}

func withGradeService(fn func(*gradectrl.GradeService) error) error {
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
	return fn(grades)
}

func runReviewList(cmd *cobra.Command, args []string) error {
	runID, _ := cmd.Flags().GetString("run")
	examName, _ := cmd.Flags().GetString("exam")
	if (runID == "") == (examName == "") {
		return fmt.Errorf("exactly one of --run or --exam is required")
	}

	return withGradeService(func(grades *gradectrl.GradeService) error {
		ctx := context.Background()
		var (
			records []gradectrl.GradeRecord
			err     error
		)
		if runID != "" {
			records, err = grades.GetByRunID(ctx, runID)
		} else {
			records, err = grades.ListNeedsReview(ctx, examName)
		}
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	})
}

func runReviewSet(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record id %q: %w", args[0], err)
	}
	grade, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid grade %q: %w", args[1], err)
	}

	return withGradeService(func(grades *gradectrl.GradeService) error {
		if err := grades.SetManualGrade(context.Background(), id, grade); err != nil {
			return err
		}
		log.Info("set manual grade", "record", id, "grade", grade)
		return nil
	})
}
