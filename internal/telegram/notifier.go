package telegram

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/steemfans/wallet-engine/internal/curation"
	"github.com/steemfans/wallet-engine/internal/events"
)

// Notifier forwards scan completion and error events to Telegram. Delivery
// runs in its own goroutine so publishing never blocks the scan, and a failed
// send is logged rather than surfaced.
type Notifier struct {
	client *Client
	logger *zap.Logger
}

// NewNotifier wraps a Telegram client as an event sink.
func NewNotifier(client *Client, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{client: client, logger: logger}
}

// Publish implements events.Sink.
func (n *Notifier) Publish(event events.Event) {
	var text string
	switch event.Type {
	case events.CurationCompleted:
		data, ok := event.Data.(events.ScanCompletedEvent)
		if !ok {
			return
		}
		text = formatCompleted(data)
	case events.CurationError:
		data, ok := event.Data.(events.ScanErrorEvent)
		if !ok {
			return
		}
		text = fmt.Sprintf("⚠️ Curation scan for <b>%s</b> failed: %s", data.Account, data.Reason)
	default:
		return
	}

	go func() {
		if err := n.client.SendMessage(text); err != nil {
			n.logger.Warn("failed to send telegram notification", zap.Error(err))
		}
	}()
}

func formatCompleted(data events.ScanCompletedEvent) string {
	summary, ok := data.Summary.(curation.Summary)
	if !ok {
		return fmt.Sprintf("Curation scan for <b>%s</b> finished with no rewards in the window.", data.Account)
	}

	text := fmt.Sprintf(
		"Curation report for <b>%s</b> (%dd window)\nVotes: %d\nTotal reward: %s\nMean efficiency: %s%%\nAPR: %s%%",
		summary.Account,
		summary.WindowDays,
		summary.TotalVotes,
		summary.TotalReward,
		summary.MeanEfficiency.StringFixed(2),
		summary.APR.StringFixed(2),
	)
	if data.Truncated {
		text += "\n(partial: scan hit its safety ceiling)"
	}
	return text
}
