package service

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"surveypulse/internal/model"
	"surveypulse/internal/repository"
)

const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
)

// StatsService computes survey statistics from stored responses
type StatsService struct {
	responseRepo repository.ResponseRepo
	now          func() time.Time
}

func NewStatsService(responseRepo repository.ResponseRepo) *StatsService {
	return &StatsService{
		responseRepo: responseRepo,
		now:          time.Now,
	}
}

// GetStats scans every response of the survey. The survey itself need not exist.
func (s *StatsService) GetStats(ctx context.Context, surveyID string) (*model.SurveyStats, error) {
	oid, err := primitive.ObjectIDFromHex(surveyID)
	if err != nil {
		return nil, invalid("surveyId", "objectid", "surveyId is not a valid id")
	}
	return s.statsFor(ctx, oid)
}

func (s *StatsService) statsFor(ctx context.Context, surveyID primitive.ObjectID) (*model.SurveyStats, error) {
	responses, err := s.responseRepo.GetBySurveyID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	stats := ComputeStats(responses, s.now())
	return &stats, nil
}

// ComputeStats aggregates responses relative to now
func ComputeStats(responses []*model.Response, now time.Time) model.SurveyStats {
	stats := model.SurveyStats{QuestionStats: model.QuestionStats{}}
	if len(responses) == 0 {
		return stats
	}

	var total float64
	dayAgo, weekAgo, monthAgo := now.Add(-day), now.Add(-week), now.Add(-month)
	for _, r := range responses {
		total += r.TimeSpent

		if !r.CreatedAt.Before(dayAgo) {
			stats.FillsByPeriod.Day++
		}
		if !r.CreatedAt.Before(weekAgo) {
			stats.FillsByPeriod.Week++
		}
		if !r.CreatedAt.Before(monthAgo) {
			stats.FillsByPeriod.Month++
		}

		for _, a := range r.Answers {
			if a.Value.Kind() == model.AnswerMultiple {
				if _, ok := stats.QuestionStats[a.Question]; !ok {
					stats.QuestionStats[a.Question] = map[string]int{}
				}
				for _, v := range a.Value.Values() {
					stats.QuestionStats.Add(a.Question, v)
				}
				continue
			}
			stats.QuestionStats.Add(a.Question, a.Value.StatsKey())
		}
	}
	stats.AvgTime = total / float64(len(responses))
	return stats
}
