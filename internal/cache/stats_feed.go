package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"surveypulse/internal/log"
	"surveypulse/internal/model"
)

const statsChannelPattern = "survey:*:stats"

// StatsFeed fans stats updates out to every server instance through Redis pub/sub
type StatsFeed struct {
	client *redis.Client
}

// NewStatsFeed creates a new stats feed
func NewStatsFeed(client *redis.Client) *StatsFeed {
	return &StatsFeed{client: client}
}

// ParseRedisURI builds client options from a redis:// or rediss:// URI.
// A bare host:port is accepted as redis://host:port.
func ParseRedisURI(uri string) (*redis.Options, error) {
	if !strings.Contains(uri, "://") {
		uri = "redis://" + uri
	}
	return redis.ParseURL(uri)
}

// Key helpers
func statsChannel(surveyID string) string {
	return fmt.Sprintf("survey:%s:stats", surveyID)
}

func surveyFromChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, "survey:") || !strings.HasSuffix(channel, ":stats") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(channel, "survey:"), ":stats")
	return id, id != ""
}

// PublishStats implements service.StatsPublisher
func (f *StatsFeed) PublishStats(ctx context.Context, surveyID string, stats *model.SurveyStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, statsChannel(surveyID), data).Err()
}

// Run delivers every published update until ctx is done
func (f *StatsFeed) Run(ctx context.Context, deliver func(surveyID string, stats *model.SurveyStats)) error {
	sub := f.client.PSubscribe(ctx, statsChannelPattern)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", statsChannelPattern, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			surveyID, ok := surveyFromChannel(msg.Channel)
			if !ok {
				continue
			}
			var stats model.SurveyStats
			if err := json.Unmarshal([]byte(msg.Payload), &stats); err != nil {
				log.WithFields(log.Fields{"channel": msg.Channel}).WithError(err).Warn("drop stats update")
				continue
			}
			deliver(surveyID, &stats)
		}
	}
}
