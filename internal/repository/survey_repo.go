package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"surveypulse/internal/model"
)

const (
	SurveyCollection   = "surveys"
	ResponseCollection = "responses"
)

// ErrInvalidID is returned when an id is not a valid ObjectID hex string
var ErrInvalidID = errors.New("invalid id")

// SurveyRepo handles MongoDB operations for surveys
type SurveyRepo interface {
	Create(ctx context.Context, survey *model.Survey) error
	GetByID(ctx context.Context, id string) (*model.Survey, error)
	List(ctx context.Context, opts model.ListOptions) ([]*model.Survey, error)
	Update(ctx context.Context, survey *model.Survey) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	IncrementResponseCount(ctx context.Context, id primitive.ObjectID) error
}

type surveyRepo struct {
	collection *mongo.Collection
}

// NewSurveyRepo creates a new survey repository
func NewSurveyRepo(db *mongo.Database) SurveyRepo {
	return &surveyRepo{
		collection: db.Collection(SurveyCollection),
	}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func (r *surveyRepo) Create(ctx context.Context, survey *model.Survey) error {
	survey.ID = ""
	if survey.Questions == nil {
		survey.Questions = []model.Question{}
	}

	result, err := r.collection.InsertOne(ctx, survey)
	if err != nil {
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		survey.ID = oid.Hex()
	}
	return nil
}

// GetByID returns nil without error when no survey has the id
func (r *surveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var survey model.Survey
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&survey)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	survey.ID = id
	return &survey, nil
}

// List pages through surveys. Sorting by questions orders by the number of
// questions, computed server side.
func (r *surveyRepo) List(ctx context.Context, opts model.ListOptions) ([]*model.Survey, error) {
	pipeline := mongo.Pipeline{}

	switch opts.SortBy {
	case model.SortByTitle:
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}}}})
	case model.SortByResponseCount:
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "responseCount", Value: 1}, {Key: "_id", Value: 1}}}})
	case model.SortByQuestions:
		pipeline = append(pipeline,
			bson.D{{Key: "$addFields", Value: bson.M{
				"questionCount": bson.M{"$size": bson.M{"$ifNull": bson.A{"$questions", bson.A{}}}},
			}}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "questionCount", Value: 1}, {Key: "_id", Value: 1}}}},
			bson.D{{Key: "$project", Value: bson.M{"questionCount": 0}}},
		)
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$skip", Value: (opts.Page - 1) * opts.Limit}},
		bson.D{{Key: "$limit", Value: opts.Limit}},
	)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	surveys := []*model.Survey{}
	if err := cursor.All(ctx, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

// Update overwrites title, description and questions. It reports false when
// the survey does not exist.
func (r *surveyRepo) Update(ctx context.Context, survey *model.Survey) (bool, error) {
	oid, err := parseID(survey.ID)
	if err != nil {
		return false, err
	}

	update := bson.M{"$set": bson.M{
		"title":       survey.Title,
		"description": survey.Description,
		"questions":   survey.Questions,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

func (r *surveyRepo) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

// IncrementResponseCount adds one to the survey counter. A missing survey is
// not an error.
func (r *surveyRepo) IncrementResponseCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"responseCount": 1}})
	return err
}
