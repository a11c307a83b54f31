package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Hidden      bool
	// Aliases lists alternative triggers, e.g. reply-keyboard button labels.
	Aliases []string
}
