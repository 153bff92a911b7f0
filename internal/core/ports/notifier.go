package ports

import "context"

// Button is an inline keyboard button that opens a URL.
type Button struct {
	Text string
	URL  string
}

// SendMessageParams holds the options for sending a chat message.
type SendMessageParams struct {
	ChatID    int64
	Text      string
	ParseMode string     // e.g., "MarkdownV2" or "HTML"; empty sends plain text
	Buttons   [][]Button // Rendered as an inline keyboard
}

// NotifierPort sends messages to the account owner.
type NotifierPort interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
}
