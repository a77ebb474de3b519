package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/teachkit/correction-service/internal/events"
	"github.com/teachkit/correction-service/internal/grading"
	"github.com/teachkit/correction-service/internal/models"
	"github.com/teachkit/correction-service/internal/repositories"
)

type exportService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewExportService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger) ExportService {
	return &exportService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportActivityCorrections writes one xlsx sheet with a row per correction:
// student, one column per score part, then penalty, bonus, status and grades.
func (s *exportService) ExportActivityCorrections(ctx context.Context, activityID uint, actorID string) (*ExportResult, error) {
	activity, err := s.repo.Activity().GetByID(ctx, activityID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	model, err := grading.ModelFromActivity(activity)
	if err != nil {
		return nil, fmt.Errorf("failed to load score model: %w", err)
	}

	corrections, _, err := s.repo.Correction().ListByActivity(ctx, activityID, repositories.CorrectionFilters{
		SortBy:    "student_id",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Corrections"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Student"}
	for _, part := range model.Parts {
		headers = append(headers, fmt.Sprintf("%s (/%g)", part.Name, part.MaxPoints))
	}
	headers = append(headers, "Penalty", "Bonus", "Status", "Grade", "Final Grade", "Submitted")

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build cell name: %w", err)
		}
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, c := range corrections {
		row := s.correctionToRow(c, model)
		for colIndex, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell name: %w", err)
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported activity corrections", "activity_id", activityID, "rows", len(corrections), "actor_id", actorID)
	s.audit(activity, actorID, len(corrections))

	return &ExportResult{
		FileName:    fmt.Sprintf("corrections_activity_%d_%s.xlsx", activityID, time.Now().Format("2006-01-02")),
		ContentType: xlsxContentType,
		Content:     buf.Bytes(),
	}, nil
}

func (s *exportService) correctionToRow(c *models.Correction, model grading.ScoreModel) []interface{} {
	row := []interface{}{c.StudentID}

	points, err := c.Points()
	if err != nil {
		s.logger.Error("Corrupt earned points", "correction_id", c.ID, "error", err)
	}
	for i := range model.Parts {
		if i < len(points) {
			row = append(row, points[i])
		} else {
			row = append(row, "")
		}
	}

	row = append(row,
		floatCell(c.Penalty),
		floatCell(c.Bonus),
		string(c.Status),
		floatCell(c.Grade),
		floatCell(c.FinalGrade),
		dateCell(c.SubmissionDate),
	)
	return row
}

func floatCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func dateCell(t *time.Time) interface{} {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func (s *exportService) audit(activity *models.Activity, actorID string, rows int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		entry := &models.AuditLog{
			ActionType: models.AuditDataExported,
			UserID:     actorID,
			EntityType: "activity",
			EntityID:   activity.ID,
		}
		if raw, err := json.Marshal(map[string]interface{}{"rows": rows}); err == nil {
			entry.Metadata = raw
		}
		if err := s.repo.AuditLog().Create(ctx, entry); err != nil {
			s.logger.Error("Failed to write audit log", "action", models.AuditDataExported, "activity_id", activity.ID, "error", err)
		}

		if s.publisher != nil {
			event := events.NewAuditEvent(events.EventDataExported, &events.ActivityChangedEvent{
				ActivityID: activity.ID,
				Title:      activity.Title,
				ActionType: models.AuditDataExported,
				ActorID:    actorID,
				ChangedAt:  time.Now(),
			}, map[string]interface{}{"actor_id": actorID})
			if err := s.publisher.PublishAuditEvent(ctx, event); err != nil {
				s.logger.Error("Failed to publish audit event", "action", models.AuditDataExported, "activity_id", activity.ID, "error", err)
			}
		}
	}()
}
