// Package notify announces newly created listings outside the board.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/grovetools/board/config"
	"github.com/grovetools/board/errors"
	"github.com/grovetools/board/pkg/models"
	"github.com/sirupsen/logrus"
)

// DefaultTelegramAPI is the Telegram Bot API base address.
const DefaultTelegramAPI = "https://api.telegram.org"

// Notifier announces a created item.
type Notifier interface {
	Notify(ctx context.Context, item models.Item) error
	Name() string
}

// Message renders the announcement text for item.
func Message(item models.Item) string {
	return fmt.Sprintf("New listing: %s\nPrice: %s", item.Title, item.FormatPrice())
}

// FromConfig returns a Telegram notifier when both credentials are set, and a
// LogNotifier otherwise.
func FromConfig(cfg config.TelegramConfig, logger *logrus.Entry) Notifier {
	if !cfg.Enabled() {
		logger.Warn("Telegram token or chat id not set; creation notices go to the log only")
		return NewLogNotifier(logger)
	}
	return NewTelegramNotifier(cfg.Token, cfg.ChatID, logger)
}

// LogNotifier writes announcements to the log.
type LogNotifier struct {
	logger *logrus.Entry
}

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier(logger *logrus.Entry) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(ctx context.Context, item models.Item) error {
	n.logger.WithFields(logrus.Fields{
		"id":    item.ID,
		"title": item.Title,
		"price": item.Price,
	}).Info("New listing")
	return nil
}

// TelegramNotifier posts announcements to a Telegram chat through the Bot API.
type TelegramNotifier struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
	logger  *logrus.Entry
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
func NewTelegramNotifier(token, chatID string, logger *logrus.Entry) *TelegramNotifier {
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		baseURL: DefaultTelegramAPI,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// WithBaseURL points the notifier at another Bot API server.
func (n *TelegramNotifier) WithBaseURL(base string) *TelegramNotifier {
	n.baseURL = base
	return n
}

func (n *TelegramNotifier) Name() string { return "telegram" }

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify sends one message. Failures are returned; the caller decides whether
// to log them.
func (n *TelegramNotifier) Notify(ctx context.Context, item models.Item) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	body, err := json.Marshal(sendMessageRequest{ChatID: n.chatID, Text: Message(item)})
	if err != nil {
		return fmt.Errorf("failed to encode telegram message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of the error.
		return errors.Transport("telegram sendMessage", n.baseURL, stripURL(err))
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var result sendMessageResponse
	_ = json.Unmarshal(data, &result)
	if resp.StatusCode != http.StatusOK || !result.OK {
		return errors.UnexpectedStatus("telegram sendMessage", n.baseURL, resp.StatusCode).
			WithDetail("description", result.Description)
	}

	n.logger.WithField("id", item.ID).Debug("Telegram notification sent")
	return nil
}
