// Package bot implements the conversational CRM flows: client registration,
// search, editing and face lookup.
package bot

import (
	"errors"
	"io"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/clientdesk/internal/service"
	tg "github.com/m3rciful/clientdesk/internal/telegram"
	"github.com/m3rciful/clientdesk/internal/telegram/commands"
	"github.com/m3rciful/clientdesk/internal/telegram/state"
)

var errNoPhoto = errors.New("bot: update carries no photo")

// Bot binds the client service to Telegram handlers and the session manager.
type Bot struct {
	svc      *service.Clients
	sessions state.Manager

	// download fetches the largest photo of the current message. Replaceable
	// in tests.
	download func(c tele.Context) ([]byte, error)
}

// New constructs the bot facade.
func New(svc *service.Clients, sessions state.Manager) *Bot {
	return &Bot{
		svc:      svc,
		sessions: sessions,
		download: downloadPhoto,
	}
}

// Install registers commands, callbacks and state handlers.
func (b *Bot) Install(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     b.handleStart,
		Description: "головне меню",
	})
	reg.RegisterCommand("/add_client", commands.Command{
		Handler:     b.handleAddClient,
		Description: "зареєструвати нового клієнта",
		Aliases:     []string{BtnNewClient},
	})
	reg.RegisterCommand("/search_client", commands.Command{
		Handler:     b.handleSearchClient,
		Description: "знайти клієнта",
		Aliases:     []string{BtnSearch},
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     b.handleCancel,
		Description: "скасувати поточну дію",
		Aliases:     []string{BtnCancel},
	})

	_ = reg.RegisterCallback(cbEditPhone, b.callbackEditPhone)
	_ = reg.RegisterCallback(cbEditPhoto, b.callbackEditPhoto)
	_ = reg.RegisterCallback(cbEditComment, b.callbackEditComment)
	_ = reg.RegisterCallback(cbDeleteClient, b.callbackDeleteClient)

	b.sessions.Register(state.StateAwaitingPhotoOrSkip, b.statePhotoOrSkip)
	b.sessions.Register(state.StateAwaitingPhoneAndComment, b.statePhoneAndComment)
	b.sessions.Register(state.StateAwaitingSearchQuery, b.stateSearchQuery)
	b.sessions.Register(state.StateAwaitingEditSelect, b.stateEditSelect)
	b.sessions.Register(state.StateAwaitingNewPhone, b.stateNewPhone)
	b.sessions.Register(state.StateAwaitingNewPhoto, b.stateNewPhoto)
	b.sessions.Register(state.StateAwaitingNewComment, b.stateNewComment)

	reg.SetTextFallback(b.handleUnknownText)
}

// Sessions exposes the session manager for router wiring.
func (b *Bot) Sessions() state.Manager {
	return b.sessions
}

func downloadPhoto(c tele.Context) ([]byte, error) {
	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return nil, errNoPhoto
	}
	rc, err := c.Bot().File(&msg.Photo.File)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func hasPhoto(c tele.Context) bool {
	msg := c.Message()
	return msg != nil && msg.Photo != nil
}
