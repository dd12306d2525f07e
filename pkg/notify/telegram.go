// Package notify relays contact form submissions to a Telegram chat.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/oladoye/sitesync/pkg/model"
)

const defaultEndpoint = "https://api.telegram.org"

// Submission is a contact form entry
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Telegram delivers submissions via the Bot API's sendMessage call.
type Telegram struct {
	token    string
	chatID   string
	endpoint string
	client   *http.Client
	clock    func() time.Time
}

func NewTelegram(token, chatID string) (*Telegram, error) {
	if token == "" || chatID == "" {
		return nil, errors.Wrap(model.ErrConfigurationMissing, "telegram bot token and chat id are not set")
	}

	return &Telegram{
		token:    token,
		chatID:   chatID,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		clock:    time.Now,
	}, nil
}

// Notify sends the submission to the configured chat.
func (t *Telegram) Notify(ctx context.Context, sub Submission) error {
	body := sendMessageRequest{
		ChatID:                t.chatID,
		Text:                  t.formatMessage(sub),
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to serialize telegram request")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.endpoint, t.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "failed to create telegram request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrapf(model.ErrSourceUnavailable, "telegram request failed: %v", err)
	}

	defer resp.Body.Close()

	var out sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return errors.Wrap(err, "failed to parse telegram response")
	}

	if resp.StatusCode != http.StatusOK || !out.OK {
		return errors.Wrapf(model.ErrSourceUnavailable, "telegram returned status %d: %s", resp.StatusCode, out.Description)
	}

	return nil
}

func (t *Telegram) formatMessage(sub Submission) string {
	return fmt.Sprintf(
		"🔔 *New Contact Form Submission*\n\n"+
			"📅 *Date:* %s\n"+
			"👤 *Name:* %s\n"+
			"📧 *Email:* %s\n"+
			"💬 *Message:*\n%s",
		t.clock().Format(time.RFC1123),
		sub.Name,
		sub.Email,
		sub.Message,
	)
}
