package report

import (
	"fmt"
	"time"

	"github.com/gingfrederik/docx"

	"PaperScout/internal/domain"
)

const separator = "--------------------------------------------------"

// WritePapers saves stored papers as a DOCX report at path.
func WritePapers(path string, papers []domain.StoredPaper, generated time.Time) error {
	f := docx.NewFile()

	run := f.AddParagraph().AddText("Matched Papers Report")
	run.Size(20)

	counts := domain.TypeCounts(papers)
	run = f.AddParagraph().AddText(fmt.Sprintf("Generated %s | Papers: %d | Author: %d | Affiliation: %d | Title: %d",
		generated.Format("2006-01-02 15:04"), len(papers),
		counts[domain.MatchAuthor], counts[domain.MatchAffiliation], counts[domain.MatchTitle]))
	run.Size(10)
	run.Color("808080")
	f.AddParagraph()

	for i, p := range papers {
		run = f.AddParagraph().AddText(fmt.Sprintf("%d. %s", i+1, p.Title))
		run.Size(14)

		f.AddParagraph().AddText("Authors: " + p.Authors)

		run = f.AddParagraph().AddText(fmt.Sprintf("Match: %s | Published: %s | Scraped: %s",
			p.MatchType, p.PublicationDate, p.ScrapedDate))
		run.Size(10)
		run.Color("008000")

		run = f.AddParagraph().AddText(p.Link)
		run.Size(10)
		run.Color("0000FF")

		run = f.AddParagraph().AddText(p.PDFLink)
		run.Size(10)
		run.Color("0000FF")

		for _, term := range p.MatchedTerms {
			f.AddParagraph().AddText("  - " + term)
		}
		f.AddParagraph().AddText(separator)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}
