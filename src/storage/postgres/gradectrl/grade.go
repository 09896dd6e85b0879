package gradectrl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"examgrader/src/core/examflow"
)

var ErrOutOfRange = errors.New("grade outside [0, max score]")

// GradeRecord is the persisted result of grading one answer. Grade is nil when
// the model output contained no usable grade.
type GradeRecord struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	RunID       string    `gorm:"not null;index" json:"run_id"`
	Exam        string    `gorm:"not null;index" json:"exam"`
	Lang        string    `gorm:"not null" json:"lang"`
	LLMName     string    `gorm:"not null;column:llm_name" json:"llm_name"`
	QuestionID  string    `gorm:"not null" json:"question_id"`
	MaxScore    float64   `gorm:"not null" json:"max_score"`
	Grade       *float64  `json:"grade"`
	Source      string    `gorm:"not null" json:"source"`
	NeedsReview bool      `gorm:"not null;index" json:"needs_review"`
	Skipped     bool      `gorm:"not null" json:"skipped"`
	RawOutput   string    `gorm:"type:text" json:"raw_output"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RunInfo struct {
	Exam    string
	Lang    string
	LLMName string
}

type GradeService struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

func NewGradeService(db *gorm.DB) (*GradeService, error) {
	node, err := snowflake.NewNode(3)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}

	return &GradeService{
		db:        db,
		snowflake: node,
	}, nil
}

func (s *GradeService) AutoMigrate() error {
	return s.db.AutoMigrate(&GradeRecord{})
}

// Records converts grading results into records of one run. IDs are left
// zero.
func Records(runID string, info RunInfo, results []examflow.GradeResult) []GradeRecord {
	records := make([]GradeRecord, 0, len(results))
	for _, r := range results {
		rec := GradeRecord{
			RunID:       runID,
			Exam:        info.Exam,
			Lang:        info.Lang,
			LLMName:     info.LLMName,
			QuestionID:  r.QuestionID,
			MaxScore:    r.MaxScore,
			Source:      string(r.Source),
			NeedsReview: r.NeedsReview,
			Skipped:     r.Skipped,
			RawOutput:   r.RawOutput,
		}
		if r.Found {
			g := r.Grade
			rec.Grade = &g
		}
		records = append(records, rec)
	}
	return records
}

// CreateRun stores the results of one grading run in a single transaction and
// returns the generated run ID.
func (s *GradeService) CreateRun(ctx context.Context, info RunInfo, results []examflow.GradeResult) (string, []GradeRecord, error) {
	runID := uuid.NewString()
	records := Records(runID, info, results)
	for i := range records {
		records[i].ID = s.snowflake.Generate().Int64()
	}
	if len(records) == 0 {
		return runID, records, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&records).Error
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to create grade records: %w", err)
	}
	return runID, records, nil
}

func (s *GradeService) GetByRunID(ctx context.Context, runID string) ([]GradeRecord, error) {
	var records []GradeRecord
	result := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get grade records: %w", result.Error)
	}
	return records, nil
}

// ListNeedsReview returns the records of an exam waiting for a manual grade.
func (s *GradeService) ListNeedsReview(ctx context.Context, exam string) ([]GradeRecord, error) {
	var records []GradeRecord
	result := s.db.WithContext(ctx).Where("exam = ? AND needs_review = ?", exam, true).Order("id").Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list records needing review: %w", result.Error)
	}
	return records, nil
}

// SetManualGrade resolves a record after manual review.
func (s *GradeService) SetManualGrade(ctx context.Context, id int64, grade float64) error {
	var rec GradeRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return fmt.Errorf("failed to get grade record %d: %w", id, err)
	}
	if grade < 0 || grade > rec.MaxScore {
		return fmt.Errorf("%w: %v for max %v", ErrOutOfRange, grade, rec.MaxScore)
	}

	result := s.db.WithContext(ctx).Model(&rec).Updates(map[string]interface{}{
		"grade":        grade,
		"source":       "manual",
		"needs_review": false,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update grade record %d: %w", id, result.Error)
	}
	return nil
}
