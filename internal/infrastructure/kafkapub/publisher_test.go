package kafkapub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"PaperScout/internal/domain"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (r *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	r.msgs = append(r.msgs, msgs...)
	return r.err
}

func (r *recordingWriter) Close() error { return nil }

func TestNotifyNewPapersWritesOneMessagePerPaper(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{}
	p := &Publisher{writer: w, now: func() time.Time { return time.Date(2025, 10, 21, 8, 0, 0, 0, time.UTC) }}

	err := p.NotifyNewPapers(context.Background(), []domain.MatchResult{
		{Title: "A", Link: "https://arxiv.org/abs/1", MatchType: "Author", MatchPriority: 1, MatchedTerms: []string{"Hinton"}},
		{Title: "B", Link: "https://arxiv.org/abs/2", MatchType: "Title", MatchPriority: 3},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	require.Equal(t, "https://arxiv.org/abs/1", string(w.msgs[0].Key))
	require.Equal(t, "2025-10-21T08:00:00Z", string(w.msgs[0].Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	require.Equal(t, "Author", decoded["match_type"])
	require.EqualValues(t, 1, decoded["match_priority"])
}

func TestNotifyNewPapersWrapsWriteError(t *testing.T) {
	t.Parallel()

	p := &Publisher{writer: &recordingWriter{err: errors.New("leader not available")}, now: time.Now}
	err := p.NotifyNewPapers(context.Background(), []domain.MatchResult{{Link: "x"}})
	require.ErrorContains(t, err, "write messages: leader not available")

	require.NoError(t, p.NotifyNewPapers(context.Background(), nil))
}
