package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Notifier delivers alerts to an external channel.
type Notifier interface {
	Notify(ctx context.Context, alerts []Alert) error
}

type slackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a Notifier posting to a Slack incoming webhook.
func NewSlackNotifier(webhookURL string) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts alerts as a single message. An empty slice sends nothing.
func (s *slackNotifier) Notify(ctx context.Context, alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	body, err := json.Marshal(buildSlackMessage(alerts))
	if err != nil {
		return fmt.Errorf("marshalling slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildSlackMessage(alerts []Alert) slackMessage {
	noun := "alert"
	if len(alerts) != 1 {
		noun = "alerts"
	}
	summary := fmt.Sprintf("doer: %d %s", len(alerts), noun)

	blocks := []slackBlock{{
		Type: "header",
		Text: &slackText{Type: "plain_text", Text: summary},
	}}
	for i, alert := range alerts {
		if i > 0 {
			blocks = append(blocks, slackBlock{Type: "divider"})
		}
		text := fmt.Sprintf("%s *[%s]* %s\n_%s_",
			severityEmoji(alert.Severity),
			strings.ToUpper(string(alert.Severity)),
			alert.Message,
			alert.TriggeredAt.UTC().Format("2006-01-02 15:04 UTC"),
		)
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: text},
		})
	}
	return slackMessage{Text: summary, Blocks: blocks}
}

func severityEmoji(severity AlertSeverity) string {
	switch severity {
	case SeverityHigh:
		return "\U0001f534"
	case SeverityMedium:
		return "\U0001f7e1"
	case SeverityLow:
		return "\U0001f535"
	default:
		return "❓"
	}
}
