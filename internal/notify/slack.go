// Package notify forwards help-request events to Slack so supervisors hear
// about escalations without watching the dashboard.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/tinkerloft/frontdesk/internal/bus"
)

// Poster is the subset of the Slack client used by the notifier.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts a message to a channel for every escalation and
// resolution event on the bus. Delivery is best effort: a failed post is
// logged and dropped.
type SlackNotifier struct {
	client  Poster
	channel string
}

// NewSlackNotifier creates a notifier using a real Slack client.
func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{client: slack.New(token), channel: channel}
}

// NewSlackNotifierWithClient creates a notifier with an injected Poster.
func NewSlackNotifierWithClient(client Poster, channel string) *SlackNotifier {
	return &SlackNotifier{client: client, channel: channel}
}

// Run consumes events from sub until ctx is cancelled or the subscriber is
// closed. It blocks; callers run it in a goroutine.
func (n *SlackNotifier) Run(ctx context.Context, sub *bus.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			n.post(ctx, ev)
		}
	}
}

func (n *SlackNotifier) post(ctx context.Context, ev bus.Event) {
	text := FormatEvent(ev)
	if text == "" {
		return
	}
	_, _, err := n.client.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		slog.WarnContext(ctx, "slack notification failed", "request_id", ev.RequestID, "err", err)
		return
	}
	slog.InfoContext(ctx, "slack notification sent", "request_id", ev.RequestID, "type", ev.Type)
}

// FormatEvent renders the Slack message for one bus event. Unknown event
// types render as empty and are not posted.
func FormatEvent(ev bus.Event) string {
	switch ev.Type {
	case bus.EventNewHelpRequest:
		return fmt.Sprintf(":rotating_light: New help request `%s` from customer %s:\n> %s",
			ev.RequestID, ev.CustomerID, ev.Question)
	case bus.EventRequestResolved:
		return fmt.Sprintf(":white_check_mark: Help request `%s` resolved.", ev.RequestID)
	default:
		return ""
	}
}
