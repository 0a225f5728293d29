// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"surveypulse/internal/model"
	"surveypulse/internal/repository"
)

// SurveyRepo is an in-memory repository.SurveyRepo
type SurveyRepo struct {
	mu      sync.Mutex
	surveys map[string]model.Survey
	order   []string

	Err error // returned by every call when set
}

func NewSurveyRepo() *SurveyRepo {
	return &SurveyRepo{surveys: make(map[string]model.Survey)}
}

var _ repository.SurveyRepo = (*SurveyRepo)(nil)

func (r *SurveyRepo) Create(_ context.Context, survey *model.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	survey.ID = primitive.NewObjectID().Hex()
	if survey.Questions == nil {
		survey.Questions = []model.Question{}
	}
	r.surveys[survey.ID] = *survey
	r.order = append(r.order, survey.ID)
	return nil
}

func (r *SurveyRepo) GetByID(_ context.Context, id string) (*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	s, ok := r.surveys[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *SurveyRepo) List(_ context.Context, opts model.ListOptions) ([]*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	all := make([]*model.Survey, 0, len(r.order))
	for _, id := range r.order {
		s := r.surveys[id]
		all = append(all, &s)
	}

	switch opts.SortBy {
	case model.SortByTitle:
		sort.SliceStable(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	case model.SortByQuestions:
		sort.SliceStable(all, func(i, j int) bool { return len(all[i].Questions) < len(all[j].Questions) })
	case model.SortByResponseCount:
		sort.SliceStable(all, func(i, j int) bool { return all[i].ResponseCount < all[j].ResponseCount })
	}

	start := (opts.Page - 1) * opts.Limit
	if start >= int64(len(all)) {
		return []*model.Survey{}, nil
	}
	end := start + opts.Limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[start:end], nil
}

func (r *SurveyRepo) Update(_ context.Context, survey *model.Survey) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	if _, err := primitive.ObjectIDFromHex(survey.ID); err != nil {
		return false, repository.ErrInvalidID
	}
	stored, ok := r.surveys[survey.ID]
	if !ok {
		return false, nil
	}
	stored.Title = survey.Title
	stored.Description = survey.Description
	stored.Questions = survey.Questions
	r.surveys[survey.ID] = stored
	return true, nil
}

func (r *SurveyRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return false, repository.ErrInvalidID
	}
	if _, ok := r.surveys[id]; !ok {
		return false, nil
	}
	delete(r.surveys, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *SurveyRepo) IncrementResponseCount(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if s, ok := r.surveys[id.Hex()]; ok {
		s.ResponseCount++
		r.surveys[id.Hex()] = s
	}
	return nil
}

// ResponseRepo is an in-memory repository.ResponseRepo
type ResponseRepo struct {
	mu        sync.Mutex
	responses []model.Response

	Err error
}

func NewResponseRepo() *ResponseRepo {
	return &ResponseRepo{}
}

var _ repository.ResponseRepo = (*ResponseRepo)(nil)

func (r *ResponseRepo) Create(_ context.Context, response *model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now()
	}
	response.ID = primitive.NewObjectID().Hex()
	r.responses = append(r.responses, *response)
	return nil
}

// Add stores a response as-is, keeping its CreatedAt
func (r *ResponseRepo) Add(responses ...model.Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, responses...)
}

func (r *ResponseRepo) GetBySurveyID(_ context.Context, surveyID primitive.ObjectID) ([]*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []*model.Response{}
	for i := range r.responses {
		if r.responses[i].SurveyID == surveyID {
			resp := r.responses[i]
			out = append(out, &resp)
		}
	}
	return out, nil
}

func (r *ResponseRepo) EnsureIndexes(context.Context) error { return nil }

// Count returns the number of stored responses
func (r *ResponseRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.responses)
}
