package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// WebhookEvent is the JSON body POSTed for each alert. Trade is present for
// ledger entries so receivers need not parse Message.
type WebhookEvent struct {
	Event   string     `json:"event"` // "trade.buy", "trade.sell" or "alert"
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	TxID    string     `json:"tx_id,omitempty"`
	Link    string     `json:"link,omitempty"`
	Trade   *TradeInfo `json:"trade,omitempty"`
	SentAt  time.Time  `json:"sent_at"`
}

func webhookEvent(alert Alert, now time.Time) WebhookEvent {
	ev := WebhookEvent{
		Event:   "alert",
		Level:   alert.Level,
		Title:   alert.Title,
		Message: alert.Message,
		TxID:    alert.TxID,
		Link:    alert.Link,
		Trade:   alert.Trade,
		SentAt:  now.UTC(),
	}
	if alert.Trade != nil {
		ev.Event = "trade." + strings.ToLower(string(alert.Trade.Action))
	}
	return ev
}

// WebhookNotifier POSTs trade events to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
	now    func() time.Time
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(webhookEvent(alert, w.now()))
	if err != nil {
		return fmt.Errorf("webhook: marshal %s: %w", alert.TxID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if alert.TxID != "" {
		req.Header.Set("Idempotency-Key", alert.TxID)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send %s: %w", alert.TxID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: %s rejected with status %d", alert.TxID, resp.StatusCode)
	}

	log.Printf("[notify] webhook delivered %s", alert.Title)
	return nil
}
