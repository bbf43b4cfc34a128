package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PaperScout/internal/domain"
	"PaperScout/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	maxDigestItems = 20
)

// Notifier sends digests to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// NotifyNewPapers posts one digest message for the newly saved papers.
func (n *Notifier) NotifyNewPapers(ctx context.Context, papers []domain.MatchResult) error {
	if len(papers) == 0 {
		return nil
	}
	return n.PublishDigest(ctx, Digest(papers))
}

// PublishDigest posts a Markdown message to Telegram.
func (n *Notifier) PublishDigest(ctx context.Context, digest string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(n.apiBase, "/"), n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", digest)
	form.Set("parse_mode", "Markdown")
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// Digest renders papers as a Markdown list, capped at maxDigestItems.
func Digest(papers []domain.MatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d new matched papers*\n", len(papers))
	for i, p := range papers {
		if i == maxDigestItems {
			fmt.Fprintf(&b, "\n...and %d more", len(papers)-maxDigestItems)
			break
		}
		fmt.Fprintf(&b, "\n%d. [%s](%s)\n   %s: %s", i+1, escape(p.Title), p.Link, p.MatchType, escape(strings.Join(p.MatchedTerms, ", ")))
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "[", `\[`, "`", "\\`")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
