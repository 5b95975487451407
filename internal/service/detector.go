package service

import (
	"fmt"

	"github.com/noah-isme/uwm-api/internal/models"
)

// EventDetector evaluates the detection rules against a freshly written survey
// response. It is pure: the repository gathers the transactional state and
// performs the writes, so two evaluations over the same inputs always agree.
type EventDetector struct {
	threshold int
}

// NewEventDetector constructs a detector with the configured stress threshold.
func NewEventDetector(threshold int) *EventDetector {
	if threshold < 1 || threshold > 5 {
		threshold = 4
	}
	return &EventDetector{threshold: threshold}
}

// Threshold exposes the active cutoff for diagnostics.
func (d *EventDetector) Threshold() int {
	return d.threshold
}

// Evaluate applies the stress rule and the consecutive-week rule. Returned
// records carry no IDs; the repository assigns them on insert.
func (d *EventDetector) Evaluate(resp models.SurveyResponse, prior *models.SurveyResponse, hasOpenAlert bool) models.DetectionResult {
	var result models.DetectionResult

	if resp.StressLevel >= d.threshold {
		responseID := resp.ID
		result.StressEvent = &models.StressEvent{
			StudentID:        resp.StudentID,
			ModuleID:         resp.ModuleID,
			SurveyResponseID: &responseID,
			WeekNumber:       resp.WeekNumber,
			StressLevel:      resp.StressLevel,
			CauseCategory:    models.DefaultCauseCategory,
			Source:           models.StressSourceSurvey,
		}
	}

	if resp.StressLevel >= d.threshold && prior != nil && prior.StressLevel >= d.threshold && !hasOpenAlert {
		result.Alert = &models.Alert{
			StudentID:  resp.StudentID,
			ModuleID:   resp.ModuleID,
			WeekNumber: resp.WeekNumber,
			Reason: fmt.Sprintf("Elevated stress for two consecutive weeks (week %d and week %d)",
				resp.WeekNumber-1, resp.WeekNumber),
		}
	}

	return result
}
