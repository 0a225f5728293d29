package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveypulse/internal/model"
)

type RepositoryTestSuite struct {
	suite.Suite
	connURI      string
	testDBName   string
	mongoClient  *mongo.Client
	testDatabase *mongo.Database

	surveys   SurveyRepo
	responses ResponseRepo
}

func TestRepositoryTestSuite(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	suite.Run(t, &RepositoryTestSuite{connURI: uri, testDBName: "surveypulse_test"})
}

func (s *RepositoryTestSuite) SetupSuite() {
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.connURI))
	if err != nil {
		s.T().Fatalf("connect mongo database with error: %s", err)
	}
	s.mongoClient = client
	s.testDatabase = client.Database(s.testDBName)
	s.surveys = NewSurveyRepo(s.testDatabase)
	s.responses = NewResponseRepo(s.testDatabase)
}

func (s *RepositoryTestSuite) SetupTest() {
	s.Require().NoError(s.testDatabase.Drop(context.Background()))
	s.Require().NoError(s.responses.EnsureIndexes(context.Background()))
}

func (s *RepositoryTestSuite) TearDownSuite() {
	ctx := context.Background()
	_ = s.testDatabase.Drop(ctx)
	_ = s.mongoClient.Disconnect(ctx)
}

func (s *RepositoryTestSuite) createSurvey(title string, questions int) *model.Survey {
	survey := &model.Survey{Title: title, Description: "d"}
	for i := 0; i < questions; i++ {
		survey.Questions = append(survey.Questions, model.Question{Type: model.QuestionTypeText, Question: "Q"})
	}
	s.Require().NoError(s.surveys.Create(context.Background(), survey))
	return survey
}

func (s *RepositoryTestSuite) TestCreateAndGet() {
	created := s.createSurvey("Coffee", 2)
	s.NotEmpty(created.ID)

	got, err := s.surveys.GetByID(context.Background(), created.ID)
	s.NoError(err)
	s.Equal("Coffee", got.Title)
	s.Len(got.Questions, 2)
	s.Equal(0, got.ResponseCount)

	missing, err := s.surveys.GetByID(context.Background(), primitive.NewObjectID().Hex())
	s.NoError(err)
	s.Nil(missing)

	_, err = s.surveys.GetByID(context.Background(), "nope")
	s.ErrorIs(err, ErrInvalidID)
}

func (s *RepositoryTestSuite) TestListSortsByQuestionCount() {
	s.createSurvey("B", 3)
	s.createSurvey("A", 1)
	s.createSurvey("C", 2)

	list, err := s.surveys.List(context.Background(), model.ListOptions{SortBy: model.SortByQuestions, Page: 1, Limit: 10})
	s.NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]string{"A", "C", "B"}, []string{list[0].Title, list[1].Title, list[2].Title})
	s.NotEmpty(list[0].ID)

	page, err := s.surveys.List(context.Background(), model.ListOptions{SortBy: model.SortByTitle, Page: 2, Limit: 2})
	s.NoError(err)
	s.Require().Len(page, 1)
	s.Equal("C", page[0].Title)
}

func (s *RepositoryTestSuite) TestIncrementUpdateDelete() {
	created := s.createSurvey("Count", 1)
	oid, _ := primitive.ObjectIDFromHex(created.ID)

	s.NoError(s.surveys.IncrementResponseCount(context.Background(), oid))
	s.NoError(s.surveys.IncrementResponseCount(context.Background(), primitive.NewObjectID()))

	created.Title = "Renamed"
	ok, err := s.surveys.Update(context.Background(), created)
	s.NoError(err)
	s.True(ok)

	got, err := s.surveys.GetByID(context.Background(), created.ID)
	s.NoError(err)
	s.Equal(1, got.ResponseCount)
	s.Equal("Renamed", got.Title)

	ok, err = s.surveys.Delete(context.Background(), created.ID)
	s.NoError(err)
	s.True(ok)

	ok, err = s.surveys.Delete(context.Background(), created.ID)
	s.NoError(err)
	s.False(ok)
}

func (s *RepositoryTestSuite) TestResponsesRoundTrip() {
	surveyID := primitive.NewObjectID()
	resp := &model.Response{
		SurveyID: surveyID,
		Answers: []model.Answer{
			{Question: "Q1", Value: model.Scalar("A")},
			{Question: "Q2", Value: model.Multiple("x", "y")},
			{Question: "Q3", Value: model.FileRef("/uploads/1.png")},
		},
		TimeSpent: 12.5,
	}
	s.NoError(s.responses.Create(context.Background(), resp))
	s.NotEmpty(resp.ID)
	s.WithinDuration(time.Now(), resp.CreatedAt, time.Minute)

	got, err := s.responses.GetBySurveyID(context.Background(), surveyID)
	s.NoError(err)
	s.Require().Len(got, 1)
	s.Equal(resp.Answers, got[0].Answers)
	s.Equal(12.5, got[0].TimeSpent)

	none, err := s.responses.GetBySurveyID(context.Background(), primitive.NewObjectID())
	s.NoError(err)
	s.Empty(none)
}
