package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"surveypulse/internal/model"
	"surveypulse/internal/repository/repotest"
)

func TestComputeStatsWithoutResponses(t *testing.T) {
	stats := ComputeStats(nil, time.Now())
	assert.Zero(t, stats.AvgTime)
	assert.Equal(t, model.FillsByPeriod{}, stats.FillsByPeriod)
	assert.Empty(t, stats.QuestionStats)
	assert.NotNil(t, stats.QuestionStats)
}

func TestComputeStatsCountsEachSelectedValue(t *testing.T) {
	now := time.Now()
	responses := []*model.Response{
		{Answers: []model.Answer{{Question: "Colors", Value: model.Multiple("red", "blue", "green")}}, CreatedAt: now},
		{Answers: []model.Answer{{Question: "Colors", Value: model.Multiple("red")}}, CreatedAt: now},
	}

	stats := ComputeStats(responses, now)
	assert.Equal(t, map[string]int{"red": 2, "blue": 1, "green": 1}, stats.QuestionStats["Colors"])
}

func TestComputeStatsKeys(t *testing.T) {
	now := time.Now()
	responses := []*model.Response{{
		CreatedAt: now,
		Answers: []model.Answer{
			{Question: "Comment", Value: model.Scalar("")},
			{Question: "Photo", Value: model.FileRef("/uploads/1.png")},
			{Question: "Skipped"},
			{Question: "Empty pick", Value: model.Multiple()},
		},
	}}

	stats := ComputeStats(responses, now)
	assert.Equal(t, map[string]int{"": 1}, stats.QuestionStats["Comment"])
	assert.Equal(t, map[string]int{"/uploads/1.png": 1}, stats.QuestionStats["Photo"])
	assert.Equal(t, map[string]int{"": 1}, stats.QuestionStats["Skipped"])
	assert.Equal(t, map[string]int{}, stats.QuestionStats["Empty pick"])
	assert.NotContains(t, stats.QuestionStats, "Never answered")
}

func TestComputeStatsPeriods(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(ago time.Duration) *model.Response {
		return &model.Response{CreatedAt: now.Add(-ago), TimeSpent: 10}
	}
	responses := []*model.Response{
		at(time.Hour),
		at(day),
		at(3 * day),
		at(week + time.Minute),
		at(20 * day),
		at(40 * day),
	}

	stats := ComputeStats(responses, now)
	assert.Equal(t, model.FillsByPeriod{Day: 2, Week: 3, Month: 5}, stats.FillsByPeriod)
	assert.Equal(t, 10.0, stats.AvgTime)
}

func TestGetStatsIsIdempotent(t *testing.T) {
	repo := repotest.NewResponseRepo()
	surveyID := primitive.NewObjectID()
	repo.Add(
		model.Response{SurveyID: surveyID, TimeSpent: 5, CreatedAt: time.Now(), Answers: []model.Answer{{Question: "Q", Value: model.Scalar("A")}}},
		model.Response{SurveyID: primitive.NewObjectID(), TimeSpent: 100, CreatedAt: time.Now()},
	)

	svc := NewStatsService(repo)
	fixed := time.Now()
	svc.now = func() time.Time { return fixed }

	first, err := svc.GetStats(context.Background(), surveyID.Hex())
	require.NoError(t, err)
	second, err := svc.GetStats(context.Background(), surveyID.Hex())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 5.0, first.AvgTime, "other surveys are ignored")
}

func TestGetStatsRejectsInvalidID(t *testing.T) {
	svc := NewStatsService(repotest.NewResponseRepo())
	_, err := svc.GetStats(context.Background(), "not-an-id")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "surveyId", verr.Details[0].Field)
}
