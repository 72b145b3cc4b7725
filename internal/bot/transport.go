// Package bot holds the conversation logic: routing of messages and
// callback taps into search, browsing, torrent and download flows.
package bot

import (
	"context"
	"io"
)

// Button is one inline keyboard button carrying callback data.
type Button struct {
	Text string
	Data string
}

// Keyboard is an inline keyboard: rows of buttons.
type Keyboard [][]Button

// Row is a convenience constructor for a single keyboard row.
func Row(buttons ...Button) []Button { return buttons }

// IncomingMessage is a plain text message from a chat.
type IncomingMessage struct {
	MessageID int64
	ChatID    int64
	UserID    int64
	Username  string
	Text      string
}

// CallbackQuery is a button tap. Data is the raw callback token.
type CallbackQuery struct {
	ID        string
	MessageID int64
	ChatID    int64
	UserID    int64
	Data      string
}

// Transport is the chat API surface the router needs. The production
// implementation lives in internal/transport/telegram; tests use a
// recording fake.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, kb Keyboard) (int64, error)
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, kb Keyboard) (int64, error)
	SendDocument(ctx context.Context, chatID int64, filename string, contents io.Reader, caption string, kb Keyboard) (int64, error)
	EditMessage(ctx context.Context, chatID, messageID int64, text string, kb Keyboard) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
