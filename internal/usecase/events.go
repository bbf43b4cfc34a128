package usecase

import (
	"fmt"

	"PaperScout/internal/domain"
)

// EventName is the type of a progress event.
type EventName string

const (
	EventStatus   EventName = "status"
	EventFeed     EventName = "feed"
	EventMatch    EventName = "match"
	EventProgress EventName = "progress"
	EventDone     EventName = "done"
)

// Phase is the run stage announced by status events.
type Phase string

const (
	PhaseFetching   Phase = "feed"
	PhaseProcessing Phase = "processing"
	PhaseSaving     Phase = "saving"
)

// Event is one step of a run. Data holds the payload matching Name:
// StatusPayload, FeedPayload, MatchPayload, ProgressPayload or
// domain.RunSummary for done.
type Event struct {
	Name EventName
	Data any
}

// StatusPayload announces a phase change.
type StatusPayload struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`
}

// FeedPayload carries the number of entries fetched from the feed.
type FeedPayload struct {
	Total int `json:"total"`
}

// ProgressPayload reports counters after an entry finished without a match.
type ProgressPayload struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
	Matched   int `json:"matched"`
}

// MatchPayload reports counters after an entry matched.
type MatchPayload struct {
	ProgressPayload
	Paper PaperBrief `json:"paper"`
}

// PaperBrief is the part of a match shown while a run is in progress.
type PaperBrief struct {
	Title        string   `json:"title"`
	MatchType    string   `json:"match_type"`
	MatchedTerms []string `json:"matched_terms"`
}

func statusEvent(phase Phase, message string) Event {
	return Event{Name: EventStatus, Data: StatusPayload{Phase: phase, Message: message}}
}

func feedEvent(total int) Event {
	return Event{Name: EventFeed, Data: FeedPayload{Total: total}}
}

func completionEvent(c completion, total int) Event {
	progress := ProgressPayload{Processed: c.processed, Total: total, Matched: c.matched}
	if c.result == nil {
		return Event{Name: EventProgress, Data: progress}
	}
	return Event{Name: EventMatch, Data: MatchPayload{
		ProgressPayload: progress,
		Paper: PaperBrief{
			Title:        c.result.Title,
			MatchType:    c.result.MatchType,
			MatchedTerms: c.result.MatchedTerms,
		},
	}}
}

func doneEvent(summary domain.RunSummary) Event {
	return Event{Name: EventDone, Data: summary}
}

const fetchingMessage = "Fetching paper feed..."

func processingMessage(total int) string {
	return fmt.Sprintf("Processing %d papers...", total)
}
