package main

import (
	"context"
	"flag"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveypulse/internal/config"
	"surveypulse/internal/log"
	"surveypulse/internal/model"
	"surveypulse/internal/repository"
)

func main() {
	withResponses := flag.Int("responses", 3, "number of sample responses to insert")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Init(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB)
	surveys := repository.NewSurveyRepo(db)
	responses := repository.NewResponseRepo(db)

	survey := &model.Survey{
		Title:       "Office Coffee Corner",
		Description: "Help us decide what goes into the new coffee corner.",
		Questions: []model.Question{
			{
				Type:     model.QuestionTypeSingle,
				Question: "How often do you drink coffee at work?",
				Options:  []string{"Never", "Once a day", "Several times a day"},
			},
			{
				Type:     model.QuestionTypeMultiple,
				Question: "Which drinks should we offer?",
				Options:  []string{"Espresso", "Cappuccino", "Tea", "Hot chocolate"},
			},
			{
				Type:     model.QuestionTypeText,
				Question: "Anything else we should know?",
			},
			{
				Type:     model.QuestionTypePhoto,
				Question: "Show us your favourite mug",
			},
		},
	}

	if err := surveys.Create(ctx, survey); err != nil {
		log.Fatalf("Failed to insert survey: %v", err)
	}
	log.WithFields(log.Fields{"surveyId": survey.ID}).Info("Inserted survey")

	if err := responses.EnsureIndexes(ctx); err != nil {
		log.Warnf("Failed to create response indexes: %v", err)
	}

	surveyID, err := primitive.ObjectIDFromHex(survey.ID)
	if err != nil {
		log.Fatalf("Unexpected survey id %q: %v", survey.ID, err)
	}

	frequency := survey.Questions[0].Options
	drinks := survey.Questions[1].Options
	for i := 0; i < *withResponses; i++ {
		resp := &model.Response{
			SurveyID: surveyID,
			Answers: []model.Answer{
				{Question: survey.Questions[0].Question, Value: model.Scalar(frequency[i%len(frequency)])},
				{Question: survey.Questions[1].Question, Value: model.Multiple(drinks[i%len(drinks)], drinks[(i+1)%len(drinks)])},
				{Question: survey.Questions[2].Question, Value: model.Scalar("")},
				{Question: survey.Questions[3].Question},
			},
			TimeSpent: float64(30 + 15*i),
			CreatedAt: time.Now().Add(-time.Duration(i) * 36 * time.Hour),
		}
		if err := responses.Create(ctx, resp); err != nil {
			log.Fatalf("Failed to insert response: %v", err)
		}
		if err := surveys.IncrementResponseCount(ctx, surveyID); err != nil {
			log.Fatalf("Failed to bump response count: %v", err)
		}
	}

	log.Infof("Seeded survey %s with %d responses", survey.ID, *withResponses)
}
