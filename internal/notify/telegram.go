package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/steph2502/oohlalaa-shop-go/pkg/contracts"
)

// Telegram delivers notifications straight to the Bot API. Used by the
// notification worker, and by the storefront when Kafka is disabled.
type Telegram struct {
	botToken string
	client   *http.Client
}

func NewTelegram(botToken string) *Telegram {
	return &Telegram{
		botToken: botToken,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Send(ctx context.Context, n contracts.Notification) error {
	body, err := json.Marshal(map[string]any{
		"chat_id": n.Recipient,
		"text":    n.Text,
	})
	if err != nil {
		return err
	}

	url := "https://api.telegram.org/bot" + t.botToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram sendMessage: status %d", resp.StatusCode)
	}
	return nil
}
