package service

import (
	"context"

	"surveypulse/internal/model"
)

// StatsPublisher delivers fresh stats to live viewers (avoids import cycle)
type StatsPublisher interface {
	PublishStats(ctx context.Context, surveyID string, stats *model.SurveyStats) error
}
