package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"PaperScout/internal/domain"
)

func TestPrintSummaryAndPaper(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printSummary(&buf, domain.RunSummary{NewPapers: 2, DuplicatesSkipped: 1, TotalMatched: 3, TotalInFeed: 120})
	printPaper(&buf, 1, domain.StoredPaper{
		Title:        "Zero-Shot Detection",
		MatchType:    "Author + Title",
		MatchedTerms: []string{"Hinton", "Zero Shot"},
	})

	out := buf.String()
	require.Contains(t, out, "New: 2 | Duplicates skipped: 1 | Total matched: 3 / 120\n")
	require.Contains(t, out, "1. MATCHED PAPER\nMatch Type: Author + Title\nTitle: Zero-Shot Detection\n")
	require.Contains(t, out, "Matched Terms:\n  - Hinton\n  - Zero Shot\n")
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := run(context.Background(), []string{"explode"}, &buf)
	require.ErrorContains(t, err, `unknown command "explode"`)
	require.Contains(t, buf.String(), "usage: paperscout")

	buf.Reset()
	require.NoError(t, run(context.Background(), []string{"help"}, &buf))
	require.Contains(t, buf.String(), "commands:")
}
