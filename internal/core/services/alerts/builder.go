package alerts

import "github.com/easyfinance/accounts/internal/core/ports"

// Builder helps construct SendMessageParams.
type Builder struct {
	params ports.SendMessageParams
}

// NewBuilder creates a new plain-text message builder.
func NewBuilder(chatID int64) *Builder {
	return &Builder{
		params: ports.SendMessageParams{ChatID: chatID},
	}
}

// WithText sets the message text.
func (b *Builder) WithText(text string) *Builder {
	b.params.Text = text
	return b
}

// WithLinkButton adds a single-button row that opens url.
// An empty url adds nothing.
func (b *Builder) WithLinkButton(text, url string) *Builder {
	if url == "" {
		return b
	}
	b.params.Buttons = append(b.params.Buttons, []ports.Button{{Text: text, URL: url}})
	return b
}

// Build returns the final SendMessageParams struct.
func (b *Builder) Build() ports.SendMessageParams {
	return b.params
}
