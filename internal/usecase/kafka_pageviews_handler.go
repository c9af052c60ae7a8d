package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"WikiSeer/internal/domain/models"
	drepo "WikiSeer/internal/domain/repository"
	applogger "WikiSeer/pkg/logger"
	"WikiSeer/pkg/util"
)

// pageViewMessage is the wire format published by KafkaPublisher.
type pageViewMessage struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	PageViews int64  `json:"page_views"`
}

// KafkaPageViewsHandler consumes page-view messages and upserts them into the
// series store. It backs the kafka ingestion path; the clickhouse path writes
// directly from the processor.
type KafkaPageViewsHandler struct {
	store   drepo.SeriesStore
	metrics drepo.Metrics
	topic   string
	l       *applogger.Logger
}

func NewKafkaPageViewsHandler(store drepo.SeriesStore, metrics drepo.Metrics, topic string) *KafkaPageViewsHandler {
	return &KafkaPageViewsHandler{
		store:   store,
		metrics: metrics,
		topic:   topic,
	}
}

// SetLogger injects a structured logger.
func (h *KafkaPageViewsHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *KafkaPageViewsHandler) Topic() string { return h.topic }

func (h *KafkaPageViewsHandler) Handle(ctx context.Context, value []byte) error {
	var msg pageViewMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		h.metrics.RecordError("kafka_decode")
		// malformed payloads are not retryable
		if h.l != nil {
			h.l.Warn("dropping malformed message", applogger.Error(err))
		}
		return nil
	}

	date, ok := util.ParseDate(msg.Date)
	if !ok || msg.Title == "" || msg.PageViews < 0 {
		h.metrics.RecordError("kafka_invalid")
		return nil
	}

	point := models.SeriesPoint{
		Title: msg.Title,
		Date:  date,
		Views: msg.PageViews,
	}
	if err := h.store.Upsert(ctx, []models.SeriesPoint{point}); err != nil {
		h.metrics.RecordError("kafka_upsert")
		return fmt.Errorf("upsert page view: %w", err)
	}

	h.metrics.RecordPointsIngested("kafka_consumer", msg.Title, 1)
	return nil
}
