package repository

import (
	"context"

	"WikiSeer/internal/domain/models"
	"WikiSeer/internal/domain/repository"
	"WikiSeer/pkg/util"

	pkgkafka "WikiSeer/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, sp *models.SeriesPoint) error {
	return p.producer.Publish(ctx, p.topic, []byte(sp.Title), map[string]interface{}{
		"title":      sp.Title,
		"date":       util.FormatDate(sp.Date),
		"page_views": sp.Views,
	})
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, points []models.SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(points))
	for i, sp := range points {
		msgs[i] = pkgkafka.Message{
			Key: []byte(sp.Title),
			Value: map[string]interface{}{
				"title":      sp.Title,
				"date":       util.FormatDate(sp.Date),
				"page_views": sp.Views,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
