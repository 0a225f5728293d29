package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"surveypulse/internal/log"
	"surveypulse/internal/model"
	"surveypulse/internal/repository"
	"surveypulse/internal/storage"
)

// Submission is one respondent form post
type Submission struct {
	SurveyID  string
	Answers   string // JSON-encoded answer list
	TimeSpent string // seconds, empty means 0
	Files     []*multipart.FileHeader
}

// FileStore persists uploaded files and returns their public paths
type FileStore interface {
	CheckSizes(files []*multipart.FileHeader) error
	SaveAll(files []*multipart.FileHeader) ([]string, error)
}

// ResponseService stores submissions and returns fresh stats
type ResponseService struct {
	responseRepo repository.ResponseRepo
	surveyRepo   repository.SurveyRepo
	files        FileStore
	stats        *StatsService
	publisher    StatsPublisher
}

func NewResponseService(
	responseRepo repository.ResponseRepo,
	surveyRepo repository.SurveyRepo,
	files FileStore,
	stats *StatsService,
	publisher StatsPublisher,
) *ResponseService {
	return &ResponseService{
		responseRepo: responseRepo,
		surveyRepo:   surveyRepo,
		files:        files,
		stats:        stats,
		publisher:    publisher,
	}
}

// Submit validates the submission, attaches uploaded files to image
// placeholders in order, stores the response, bumps the survey counter and
// returns the recomputed stats.
func (s *ResponseService) Submit(ctx context.Context, sub Submission) (*model.SubmitResponseResult, error) {
	answers, err := model.ParseAnswers(sub.Answers)
	if err != nil {
		return nil, invalid("answers", "format", err.Error())
	}
	surveyID, err := primitive.ObjectIDFromHex(strings.TrimSpace(sub.SurveyID))
	if err != nil {
		return nil, invalid("surveyId", "objectid", "surveyId is not a valid id")
	}
	timeSpent, err := parseTimeSpent(sub.TimeSpent)
	if err != nil {
		return nil, err
	}
	if err := s.files.CheckSizes(sub.Files); err != nil {
		return nil, invalid("images", "size", err.Error())
	}

	if len(sub.Files) > 0 {
		paths, err := s.files.SaveAll(sub.Files)
		if errors.Is(err, storage.ErrFileTooLarge) {
			return nil, invalid("images", "size", err.Error())
		}
		if err != nil {
			return nil, fmt.Errorf("save uploads: %w", err)
		}
		model.AttachFiles(answers, paths)
	}

	response := &model.Response{
		SurveyID:  surveyID,
		Answers:   answers,
		TimeSpent: timeSpent,
	}
	if err := s.responseRepo.Create(ctx, response); err != nil {
		return nil, fmt.Errorf("store response: %w", err)
	}
	if err := s.surveyRepo.IncrementResponseCount(ctx, surveyID); err != nil {
		return nil, fmt.Errorf("increment response count: %w", err)
	}

	stats, err := s.stats.statsFor(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishStats(ctx, surveyID.Hex(), stats); err != nil {
			log.WithFields(log.Fields{"surveyId": surveyID.Hex()}).WithError(err).Warn("publish stats")
		}
	}

	return &model.SubmitResponseResult{Success: true, Stats: stats}, nil
}

func parseTimeSpent(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid("timeSpent", "gte=0", "timeSpent must be a non-negative number")
	}
	return v, nil
}
