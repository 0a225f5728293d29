package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"surveypulse/internal/model"
	"surveypulse/internal/repository"
)

// SurveyService handles survey CRUD operations
type SurveyService struct {
	surveyRepo repository.SurveyRepo
}

// NewSurveyService creates a new survey service
func NewSurveyService(surveyRepo repository.SurveyRepo) *SurveyService {
	return &SurveyService{
		surveyRepo: surveyRepo,
	}
}

// List returns one page of surveys. Unknown sort keys leave the order unspecified.
func (s *SurveyService) List(ctx context.Context, opts model.ListOptions) ([]*model.Survey, error) {
	if opts.Page < 1 {
		opts.Page = model.DefaultPage
	}
	if opts.Limit < 1 {
		opts.Limit = model.DefaultLimit
	}
	switch opts.SortBy {
	case model.SortByTitle, model.SortByQuestions, model.SortByResponseCount:
	default:
		opts.SortBy = ""
	}
	// skip+limit must fit in an int64
	if opts.Page-1 > (math.MaxInt64-opts.Limit)/opts.Limit {
		return []*model.Survey{}, nil
	}

	surveys, err := s.surveyRepo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	return surveys, nil
}

// GetByID retrieves a survey by ID
func (s *SurveyService) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrInvalidID) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	return survey, nil
}

// Create validates the payload and stores a new survey with a zero counter
func (s *SurveyService) Create(ctx context.Context, payload model.SurveyPayload) (*model.Survey, error) {
	survey := &model.Survey{}
	if err := applyPayload(survey, payload); err != nil {
		return nil, err
	}
	survey.ResponseCount = 0

	if err := validateStruct(survey, "survey validation failed"); err != nil {
		return nil, err
	}
	if err := s.surveyRepo.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	return survey, nil
}

// Update merges the provided fields into the stored survey. The id and the
// response counter cannot be changed through the payload.
func (s *SurveyService) Update(ctx context.Context, id string, payload model.SurveyPayload) (*model.Survey, error) {
	survey, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyPayload(survey, payload); err != nil {
		return nil, err
	}
	if err := validateStruct(survey, "survey validation failed"); err != nil {
		return nil, err
	}

	found, err := s.surveyRepo.Update(ctx, survey)
	if err != nil {
		return nil, fmt.Errorf("update survey: %w", err)
	}
	if !found {
		return nil, ErrSurveyNotFound
	}
	return survey, nil
}

// Delete removes the survey only. Its responses are kept.
func (s *SurveyService) Delete(ctx context.Context, id string) error {
	found, err := s.surveyRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrInvalidID) {
		return ErrSurveyNotFound
	}
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	if !found {
		return ErrSurveyNotFound
	}
	return nil
}

func applyPayload(survey *model.Survey, payload model.SurveyPayload) error {
	if payload.Title != nil {
		survey.Title = *payload.Title
	}
	if payload.Description != nil {
		survey.Description = *payload.Description
	}
	if model.QuestionsProvided(payload.Questions) {
		questions, err := model.DecodeQuestions(payload.Questions)
		if err != nil {
			return invalid("questions", "format", err.Error())
		}
		survey.Questions = questions
	}
	if survey.Questions == nil {
		survey.Questions = []model.Question{}
	}
	return nil
}
