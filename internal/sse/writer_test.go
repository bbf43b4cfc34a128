package sse

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterSend(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w, err := NewWriter(rec, 0)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Send("feed", map[string]int{"total": 3}))
	require.NoError(t, w.Send("done", struct {
		NewPapers int `json:"new_papers"`
	}{NewPapers: 2}))

	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	require.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
	require.Equal(t,
		"event: feed\ndata: {\"total\":3}\n\nevent: done\ndata: {\"new_papers\":2}\n\n",
		rec.Body.String())
	require.True(t, rec.Flushed)
}

func TestWriterRejectsUnencodable(t *testing.T) {
	t.Parallel()

	w, err := NewWriter(httptest.NewRecorder(), 0)
	require.NoError(t, err)
	w.Close()
	w.Close()

	require.ErrorContains(t, w.Send("bad", make(chan int)), "encode bad event")
}
