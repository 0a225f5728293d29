package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"surveypulse/internal/model"
	"surveypulse/internal/repository/repotest"
	"surveypulse/internal/storage"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published map[string]*model.SurveyStats
	err       error
}

func (p *recordingPublisher) PublishStats(_ context.Context, surveyID string, stats *model.SurveyStats) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.published == nil {
		p.published = map[string]*model.SurveyStats{}
	}
	p.published[surveyID] = stats
	return p.err
}

type responseFixture struct {
	svc       *ResponseService
	surveys   *SurveyService
	responses *repotest.ResponseRepo
	publisher *recordingPublisher
	uploads   *storage.UploadStore
}

func newResponseFixture(t *testing.T, maxBytes int64) *responseFixture {
	t.Helper()
	surveyRepo := repotest.NewSurveyRepo()
	responseRepo := repotest.NewResponseRepo()
	uploads, err := storage.NewUploadStore(t.TempDir(), maxBytes)
	require.NoError(t, err)
	pub := &recordingPublisher{}

	return &responseFixture{
		svc:       NewResponseService(responseRepo, surveyRepo, uploads, NewStatsService(responseRepo), pub),
		surveys:   NewSurveyService(surveyRepo),
		responses: responseRepo,
		publisher: pub,
		uploads:   uploads,
	}
}

func uploadedFiles(t *testing.T, contents ...string) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for i, c := range contents {
		part, err := w.CreateFormFile("images", string(rune('a'+i))+".png")
		require.NoError(t, err)
		_, err = part.Write([]byte(c))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["images"]
}

func TestSubmitEndToEnd(t *testing.T) {
	f := newResponseFixture(t, 1<<20)
	ctx := context.Background()

	survey, err := f.surveys.Create(ctx, model.SurveyPayload{
		Title:       strPtr("Letters"),
		Description: strPtr("Pick one"),
		Questions:   []byte(`[{"type":"single","question":"Favourite","options":["A","B"]}]`),
	})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, Submission{SurveyID: survey.ID, Answers: `[{"question":"Favourite","answer":"A"}]`, TimeSpent: "10"})
	require.NoError(t, err)
	result, err := f.svc.Submit(ctx, Submission{SurveyID: survey.ID, Answers: `[{"question":"Favourite","answer":"B"}]`, TimeSpent: "20"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 15.0, result.Stats.AvgTime)
	assert.Equal(t, map[string]int{"A": 1, "B": 1}, result.Stats.QuestionStats["Favourite"])
	assert.Equal(t, 2, result.Stats.FillsByPeriod.Day)

	stored, err := f.surveys.GetByID(ctx, survey.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ResponseCount)

	assert.Equal(t, result.Stats, f.publisher.published[survey.ID])
}

func TestSubmitAttachesFilesInOrder(t *testing.T) {
	f := newResponseFixture(t, 1<<20)
	surveyID := primitive.NewObjectID()

	result, err := f.svc.Submit(context.Background(), Submission{
		SurveyID: surveyID.Hex(),
		Answers: `[{"question":"Q1","answer":"image_pending"},
			{"question":"Q2","answer":"yes"},
			{"question":"Q3","answer":"image_pending"}]`,
		Files: uploadedFiles(t, "first", "second"),
	})
	require.NoError(t, err)

	q1 := result.Stats.QuestionStats["Q1"]
	q3 := result.Stats.QuestionStats["Q3"]
	require.Len(t, q1, 1)
	require.Len(t, q3, 1)
	assert.Equal(t, "first", uploadedContent(t, f.uploads, q1))
	assert.Equal(t, "second", uploadedContent(t, f.uploads, q3))
	assert.Equal(t, map[string]int{"yes": 1}, result.Stats.QuestionStats["Q2"])
}

func uploadedContent(t *testing.T, uploads *storage.UploadStore, counts map[string]int) string {
	t.Helper()
	for path := range counts {
		require.Regexp(t, `^/uploads/\d+-\d+\.png$`, path)
		data, err := os.ReadFile(filepath.Join(uploads.Dir(), strings.TrimPrefix(path, storage.PublicPrefix)))
		require.NoError(t, err)
		return string(data)
	}
	return ""
}

func TestSubmitForMissingSurveyStillStores(t *testing.T) {
	f := newResponseFixture(t, 1<<20)

	result, err := f.svc.Submit(context.Background(), Submission{
		SurveyID: primitive.NewObjectID().Hex(),
		Answers:  `[]`,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, f.responses.Count())
}

func TestSubmitValidation(t *testing.T) {
	f := newResponseFixture(t, 4)
	valid := primitive.NewObjectID().Hex()

	cases := map[string]struct {
		sub   Submission
		field string
	}{
		"bad answers":     {Submission{SurveyID: valid, Answers: "{"}, "answers"},
		"number answer":   {Submission{SurveyID: valid, Answers: `[{"question":"Q","answer":1}]`}, "answers"},
		"bad survey id":   {Submission{SurveyID: "123", Answers: "[]"}, "surveyId"},
		"negative time":   {Submission{SurveyID: valid, Answers: "[]", TimeSpent: "-1"}, "timeSpent"},
		"non-number time": {Submission{SurveyID: valid, Answers: "[]", TimeSpent: "soon"}, "timeSpent"},
		"file too large":  {Submission{SurveyID: valid, Answers: "[]", Files: uploadedFiles(t, "way too big")}, "images"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Submit(context.Background(), tc.sub)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Details[0].Field)
		})
	}
	assert.Zero(t, f.responses.Count(), "nothing is stored for invalid submissions")
}

func TestSubmitStorageFailure(t *testing.T) {
	f := newResponseFixture(t, 1<<20)
	f.responses.Err = errors.New("write concern failed")

	_, err := f.svc.Submit(context.Background(), Submission{SurveyID: primitive.NewObjectID().Hex(), Answers: "[]"})
	require.Error(t, err)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestSubmitIgnoresPublishFailure(t *testing.T) {
	f := newResponseFixture(t, 1<<20)
	f.publisher.err = errors.New("redis down")

	result, err := f.svc.Submit(context.Background(), Submission{SurveyID: primitive.NewObjectID().Hex(), Answers: "[]"})
	require.NoError(t, err)
	assert.True(t, result.Success)
}
