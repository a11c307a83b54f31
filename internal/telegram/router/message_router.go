package router

import (
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/clientdesk/internal/telegram"
)

// FSM is the conversation manager the router consults before command lookup.
type FSM interface {
	InProgress(userID int64) bool
	HandleCurrent(c tele.Context) error
}

// TextOptions controls fallback behaviour for text and photo updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
	// IdlePhoto handles a photo that arrives outside any conversation.
	IdlePhoto tele.HandlerFunc
}

// TextRoutes builds handlers for text and photo routing.
//
// Commands and their aliases resolve before the FSM so that /cancel and the
// cancel button interrupt a conversation from any state. Everything else goes
// to the FSM while a conversation is in progress.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, func() error {
					return cmd.Handler(c)
				})
			}
		}

		if fsmMgr != nil && fsmMgr.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm", start, func() error {
				return fsmMgr.HandleCurrent(c)
			})
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	photoHandler := func(c tele.Context) error {
		start := time.Now()
		if fsmMgr != nil && fsmMgr.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm_photo", start, func() error {
				return fsmMgr.HandleCurrent(c)
			})
		}
		if opts.IdlePhoto != nil {
			return handleWithSummary(c, "idle_photo", start, func() error {
				return opts.IdlePhoto(c)
			})
		}
		logHandlerSummary(c, "idle_photo", start, "skip", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  handler,
		},
		{
			Endpoint: tele.OnPhoto,
			Handler:  photoHandler,
		},
	}
}
