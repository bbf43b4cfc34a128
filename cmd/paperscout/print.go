package main

import (
	"fmt"
	"io"
	"strings"

	"PaperScout/internal/domain"
)

var rule = strings.Repeat("=", 50)

func printSummary(w io.Writer, s domain.RunSummary) {
	fmt.Fprintln(w, "\n===== Matched Articles =====")
	fmt.Fprintf(w, "New: %d | Duplicates skipped: %d | Total matched: %d / %d\n",
		s.NewPapers, s.DuplicatesSkipped, s.TotalMatched, s.TotalInFeed)
	fmt.Fprintln(w, rule)
}

func printPaper(w io.Writer, index int, p domain.StoredPaper) {
	fmt.Fprintf(w, "\n%d. MATCHED PAPER\n", index)
	fmt.Fprintf(w, "Match Type: %s\n", p.MatchType)
	fmt.Fprintf(w, "Title: %s\n", p.Title)
	fmt.Fprintf(w, "Authors: %s\n", p.Authors)
	fmt.Fprintf(w, "ArXiv Link: %s\n", p.Link)
	fmt.Fprintf(w, "PDF Link: %s\n", p.PDFLink)
	fmt.Fprintf(w, "Publication Date: %s\n", p.PublicationDate)
	fmt.Fprintln(w, "Matched Terms:")
	for _, term := range p.MatchedTerms {
		fmt.Fprintf(w, "  - %s\n", term)
	}
	fmt.Fprintln(w, strings.Repeat("-", 50))
}
