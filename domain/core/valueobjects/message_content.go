package valueobjects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	pkgerrors "venturelink/pkg/errors"
)

// MaxMessageLength is the maximum message length in characters
const MaxMessageLength = 5000

// MessageContent is the trimmed, non-empty body of a direct message
type MessageContent struct {
	text string
}

// NewMessageContent trims raw and validates it
func NewMessageContent(raw string) (MessageContent, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return MessageContent{}, pkgerrors.NewValidationError("content cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return MessageContent{}, pkgerrors.NewValidationError(
			fmt.Sprintf("content exceeds maximum length of %d characters", MaxMessageLength))
	}
	return MessageContent{text: text}, nil
}

func (c MessageContent) String() string { return c.text }

// IsEmpty reports whether the content is the zero value
func (c MessageContent) IsEmpty() bool { return c.text == "" }
