package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/clientdesk/internal/logger"
	"github.com/m3rciful/clientdesk/internal/phone"
	"github.com/m3rciful/clientdesk/internal/service"
	"github.com/m3rciful/clientdesk/internal/telegram/callbacks"
	tghelpers "github.com/m3rciful/clientdesk/internal/telegram/helpers"
	"github.com/m3rciful/clientdesk/internal/telegram/state"
)

const (
	msgGreeting       = "Вітаю! Оберіть дію кнопкою нижче або командою /add_client, /search_client."
	msgAskPhoto       = "Надішліть *фотографію обличчя* клієнта або напишіть «skip», щоб пропустити."
	msgAskPhoneNote   = "Введіть *номер телефону та коментар* одним повідомленням:"
	msgAskSearch      = "Надішліть *текст* (номер, його частину або ключове слово з коментаря) для пошуку клієнта."
	msgSearchTooShort = "Будь ласка, введіть принаймні 3 символи для пошуку."
	msgNoResults      = "❌ За вашим запитом клієнтів не знайдено."
	msgNoPhones       = "Не знайшов номера телефону в повідомленні. Спробуйте ще раз."
	msgUploadFailed   = "❌ Не вдалося завантажити фотографію. Спробуйте ще раз."
	msgClientGone     = "❌ Клієнта не знайдено."
	msgPickAction     = "Оберіть дію кнопкою під карткою клієнта або /cancel."
	msgBadPhone       = "Некоректний формат номера. Введіть його ще раз."
	msgAskNewPhone    = "Введіть *новий номер* телефону (буде доданий до існуючих):"
	msgAskNewComment  = "Введіть *новий коментар* для клієнта:"
	msgAskNewPhoto    = "Надішліть *нову фотографію* для профілю клієнта."
	msgCancelled      = "Скасовано."
	msgInternalError  = "⚠️ Сталася помилка. Спробуйте пізніше."
	msgNoFace         = "На фотографії не виявлено обличчя."
	msgNoFaceMatch    = "Збігів за обличчям не знайдено."
)

// --- commands ---

func (b *Bot) handleStart(c tele.Context) error {
	b.sessions.Clear(c.Sender().ID)
	return tghelpers.SendText(c, msgGreeting, &tele.SendOptions{ReplyMarkup: mainMenu()})
}

func (b *Bot) handleAddClient(c tele.Context) error {
	userID := c.Sender().ID
	b.sessions.Clear(userID)
	b.sessions.SetState(userID, state.StateAwaitingPhotoOrSkip)
	return tghelpers.SendMD(c, msgAskPhoto)
}

func (b *Bot) handleSearchClient(c tele.Context) error {
	userID := c.Sender().ID
	b.sessions.Clear(userID)
	b.sessions.SetState(userID, state.StateAwaitingSearchQuery)
	return tghelpers.SendMD(c, msgAskSearch)
}

func (b *Bot) handleCancel(c tele.Context) error {
	b.sessions.Clear(c.Sender().ID)
	return tghelpers.SendText(c, msgCancelled, &tele.SendOptions{ReplyMarkup: mainMenu()})
}

func (b *Bot) handleUnknownText(c tele.Context) error {
	return tghelpers.SendText(c, msgGreeting, &tele.SendOptions{ReplyMarkup: mainMenu()})
}

// --- registration flow ---

func isSkip(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "skip" || t == "пропустити"
}

func (b *Bot) statePhotoOrSkip(c tele.Context) error {
	userID := c.Sender().ID

	if !hasPhoto(c) {
		if isSkip(c.Text()) {
			b.sessions.SetState(userID, state.StateAwaitingPhoneAndComment)
			return tghelpers.SendMD(c, msgAskPhoneNote)
		}
		return tghelpers.SendMD(c, msgAskPhoto)
	}

	ctx := tghelpers.BuildContext(c)
	data, err := b.download(c)
	if err != nil {
		logger.Warn(ctx, "bot", "register.photo.download_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, msgUploadFailed)
	}
	url, encoding, err := b.svc.UploadPhoto(ctx, userID, data)
	if err != nil {
		logger.Warn(ctx, "bot", "register.photo.upload_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, msgUploadFailed)
	}

	b.sessions.UpdateDraft(userID, func(d *state.Draft) {
		d.PhotoURLs = append(d.PhotoURLs, url)
		if len(d.Encoding) == 0 {
			d.Encoding = encoding
		}
	})
	b.sessions.SetState(userID, state.StateAwaitingPhoneAndComment)
	return tghelpers.SendMD(c, "Фотографію оброблено. "+msgAskPhoneNote)
}

func (b *Bot) statePhoneAndComment(c tele.Context) error {
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)
	draft := b.sessions.Get(userID).Draft

	res, err := b.svc.Register(ctx, c.Text(), draft.PhotoURLs, draft.Encoding)
	if err != nil {
		var conflict *service.PhoneConflictError
		switch {
		case errors.Is(err, service.ErrNoPhones):
			return tghelpers.SendText(c, msgNoPhones)
		case errors.As(err, &conflict):
			b.sessions.Clear(userID)
			return tghelpers.SendMD(c, fmt.Sprintf(
				"⚠️ Номер %s вже належить клієнту ID:%d.",
				phone.FormatDisplay(conflict.Phone), conflict.ClientID,
			))
		default:
			logger.Error(ctx, "bot", "register.save_failed", slog.String("err", err.Error()))
			b.sessions.Clear(userID)
			return tghelpers.SendText(c, msgInternalError)
		}
	}

	b.sessions.Clear(userID)
	return tghelpers.SendMD(c,
		fmt.Sprintf("✅ *Клієнта успішно зареєстровано!* (ID: %d)", res.ClientID),
		mainMenu(),
	)
}

// --- search flow ---

func (b *Bot) stateSearchQuery(c tele.Context) error {
	userID := c.Sender().ID
	query := strings.TrimSpace(c.Text())
	if len([]rune(query)) < 3 {
		return tghelpers.SendText(c, msgSearchTooShort)
	}

	ctx := tghelpers.BuildContext(c)
	found, err := b.svc.Search(ctx, query)
	if err != nil {
		logger.Error(ctx, "bot", "search.failed", slog.String("err", err.Error()))
		b.sessions.Clear(userID)
		return tghelpers.SendText(c, msgInternalError)
	}

	switch {
	case len(found) == 0:
		b.sessions.Clear(userID)
		return tghelpers.SendText(c, msgNoResults)
	case len(found) > 1:
		b.sessions.Clear(userID)
		return tghelpers.SendMD(c, searchList(found))
	}

	return b.presentClient(c, found[0].ID)
}

// presentClient shows the client card with the edit menu and arms the
// edit-select state.
func (b *Bot) presentClient(c tele.Context, clientID int64) error {
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	client, err := b.svc.Get(ctx, clientID)
	if err != nil {
		b.sessions.Clear(userID)
		if errors.Is(err, service.ErrNotFound) {
			return tghelpers.SendText(c, msgClientGone)
		}
		logger.Error(ctx, "bot", "client.load_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, msgInternalError)
	}

	b.sessions.Clear(userID)
	b.sessions.SetState(userID, state.StateAwaitingEditSelect)
	b.sessions.UpdateDraft(userID, func(d *state.Draft) {
		d.EditClientID = client.ID
	})
	return tghelpers.SendMD(c, clientCard(client), editMenu(client.ID))
}

func (b *Bot) stateEditSelect(c tele.Context) error {
	return tghelpers.SendText(c, msgPickAction)
}

// --- face lookup outside any flow ---

func (b *Bot) handleIdlePhoto(c tele.Context) error {
	if !b.svc.FacesEnabled() {
		return tghelpers.SendText(c, msgGreeting, &tele.SendOptions{ReplyMarkup: mainMenu()})
	}

	ctx := tghelpers.BuildContext(c)
	data, err := b.download(c)
	if err != nil {
		logger.Warn(ctx, "bot", "face.download_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, msgUploadFailed)
	}

	clientID, faceFound, matched, err := b.svc.MatchFace(ctx, data)
	if err != nil {
		logger.Error(ctx, "bot", "face.match_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, msgInternalError)
	}
	if !faceFound {
		return tghelpers.SendText(c, msgNoFace)
	}
	if !matched {
		return tghelpers.SendText(c, msgNoFaceMatch)
	}
	return b.presentClient(c, clientID)
}

// IdlePhotoHandler routes photos that arrive outside any conversation.
func (b *Bot) IdlePhotoHandler() tele.HandlerFunc {
	return b.handleIdlePhoto
}

// --- edit callbacks ---

func (b *Bot) startEdit(c tele.Context, next state.State, prompt string) error {
	clientID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.EditOrSendMD(c, msgClientGone)
	}
	userID := c.Sender().ID
	b.sessions.Clear(userID)
	b.sessions.SetState(userID, next)
	b.sessions.UpdateDraft(userID, func(d *state.Draft) {
		d.EditClientID = clientID
	})
	return tghelpers.EditOrSendMD(c, prompt)
}

func (b *Bot) callbackEditPhone(c tele.Context) error {
	return b.startEdit(c, state.StateAwaitingNewPhone, msgAskNewPhone)
}

func (b *Bot) callbackEditPhoto(c tele.Context) error {
	return b.startEdit(c, state.StateAwaitingNewPhoto, msgAskNewPhoto)
}

func (b *Bot) callbackEditComment(c tele.Context) error {
	return b.startEdit(c, state.StateAwaitingNewComment, msgAskNewComment)
}

func (b *Bot) callbackDeleteClient(c tele.Context) error {
	clientID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.EditOrSendMD(c, msgClientGone)
	}
	ctx := tghelpers.BuildContext(c)
	b.sessions.Clear(c.Sender().ID)

	removed, err := b.svc.Delete(ctx, clientID)
	if err != nil {
		logger.Error(ctx, "bot", "client.delete_failed", slog.String("err", err.Error()))
		return tghelpers.EditOrSendMD(c, msgInternalError)
	}
	if !removed {
		return tghelpers.EditOrSendMD(c, fmt.Sprintf("⚠️ Клієнт ID:%d не знайдений або вже видалений.", clientID))
	}
	return tghelpers.EditOrSendMD(c, fmt.Sprintf("❌ Клієнта ID:%d *успішно видалено* з бази даних.", clientID))
}

// --- edit states ---

func (b *Bot) stateNewPhone(c tele.Context) error {
	userID := c.Sender().ID
	clientID := b.sessions.Get(userID).Draft.EditClientID
	ctx := tghelpers.BuildContext(c)

	normalized, added, err := b.svc.AddPhone(ctx, clientID, c.Text())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadPhone):
			return tghelpers.SendText(c, msgBadPhone)
		case errors.Is(err, service.ErrNotFound):
			b.sessions.Clear(userID)
			return tghelpers.SendText(c, msgClientGone)
		default:
			logger.Error(ctx, "bot", "edit.phone_failed", slog.String("err", err.Error()))
			b.sessions.Clear(userID)
			return tghelpers.SendText(c, msgInternalError)
		}
	}

	b.sessions.Clear(userID)
	if !added {
		return tghelpers.SendMD(c, fmt.Sprintf(
			"Номер %s вже є у клієнта ID:%d.", phone.FormatDisplay(normalized), clientID,
		))
	}
	return tghelpers.SendMD(c, fmt.Sprintf(
		"✅ Номер %s успішно додано до клієнта ID:%d.", phone.FormatDisplay(normalized), clientID,
	))
}

func (b *Bot) stateNewPhoto(c tele.Context) error {
	userID := c.Sender().ID
	if !hasPhoto(c) {
		return tghelpers.SendMD(c, msgAskNewPhoto)
	}
	clientID := b.sessions.Get(userID).Draft.EditClientID
	ctx := tghelpers.BuildContext(c)

	data, err := b.download(c)
	if err != nil {
		logger.Warn(ctx, "bot", "edit.photo.download_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, msgUploadFailed)
	}
	url, encoding, err := b.svc.UploadPhoto(ctx, clientID, data)
	if err != nil {
		logger.Warn(ctx, "bot", "edit.photo.upload_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, msgUploadFailed)
	}

	if err := b.svc.AddPhoto(ctx, clientID, url, encoding); err != nil {
		b.sessions.Clear(userID)
		if errors.Is(err, service.ErrNotFound) {
			return tghelpers.SendText(c, msgClientGone)
		}
		logger.Error(ctx, "bot", "edit.photo_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, msgInternalError)
	}

	b.sessions.Clear(userID)
	return tghelpers.SendMD(c, fmt.Sprintf("✅ Нова фотографія додана до профілю клієнта ID:%d.", clientID))
}

func (b *Bot) stateNewComment(c tele.Context) error {
	userID := c.Sender().ID
	clientID := b.sessions.Get(userID).Draft.EditClientID
	ctx := tghelpers.BuildContext(c)

	comment := strings.TrimSpace(c.Text())
	if comment == "" {
		return tghelpers.SendMD(c, msgAskNewComment)
	}

	if err := b.svc.UpdateComment(ctx, clientID, comment); err != nil {
		b.sessions.Clear(userID)
		if errors.Is(err, service.ErrNotFound) {
			return tghelpers.SendText(c, msgClientGone)
		}
		logger.Error(ctx, "bot", "edit.comment_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, msgInternalError)
	}

	b.sessions.Clear(userID)
	return tghelpers.SendMD(c, fmt.Sprintf("✅ Коментар для клієнта ID:%d успішно оновлено.", clientID))
}
