package kafkapub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"PaperScout/internal/domain"
	"PaperScout/internal/ports"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher emits one message per new paper, keyed by its link.
type Publisher struct {
	writer messageWriter
	now    func() time.Time
}

var _ ports.Notifier = (*Publisher)(nil)

// paperMessage is the JSON value of a published paper.
type paperMessage struct {
	Title           string   `json:"title"`
	Authors         string   `json:"authors"`
	Link            string   `json:"link"`
	PDFLink         string   `json:"pdf_link"`
	MatchType       string   `json:"match_type"`
	MatchPriority   int      `json:"match_priority"`
	MatchedTerms    []string `json:"matched_terms"`
	PublicationDate string   `json:"publication_date"`
}

// NewPublisher writes to topic on the given brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			MaxAttempts:  3,
			RequiredAcks: kafka.RequireOne,
		},
		now: time.Now,
	}
}

// NotifyNewPapers publishes the batch in a single write.
func (p *Publisher) NotifyNewPapers(ctx context.Context, papers []domain.MatchResult) error {
	if len(papers) == 0 {
		return nil
	}

	sentAt := []byte(p.now().UTC().Format(time.RFC3339))
	msgs := make([]kafka.Message, 0, len(papers))
	for _, paper := range papers {
		value, err := json.Marshal(paperMessage{
			Title:           paper.Title,
			Authors:         paper.Authors,
			Link:            paper.Link,
			PDFLink:         paper.PDFLink,
			MatchType:       paper.MatchType,
			MatchPriority:   paper.MatchPriority,
			MatchedTerms:    paper.MatchedTerms,
			PublicationDate: paper.PublicationDate,
		})
		if err != nil {
			return fmt.Errorf("encode paper %s: %w", paper.Link, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(paper.Link),
			Value:   value,
			Headers: []kafka.Header{{Key: "sent_at", Value: sentAt}},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write messages: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
