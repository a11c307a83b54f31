package bot

import (
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/clientdesk/internal/telegram/keyboard"
)

// Reply-keyboard button labels. They double as command aliases in the
// registry, so pressing a button behaves exactly like the slash command.
const (
	BtnNewClient = "➕ Новий клієнт"
	BtnSearch    = "🔍 Пошук"
	BtnCancel    = "❌ Скасувати"
)

// Callback keys for the inline edit menu. The payload carries the client id.
const (
	cbEditPhone    = "edit_phone"
	cbEditPhoto    = "edit_photo"
	cbEditComment  = "edit_comment"
	cbDeleteClient = "delete_client"
)

func mainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{BtnNewClient, BtnSearch},
		[]string{BtnCancel},
	)
}

func editMenu(clientID int64) *tele.ReplyMarkup {
	id := strconv.FormatInt(clientID, 10)
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "📞 Додати номер", Unique: cbEditPhone, Data: id},
			{Text: "🖼️ Додати фото", Unique: cbEditPhoto, Data: id},
		},
		[]keyboard.InlineBtn{
			{Text: "✏️ Змінити коментар", Unique: cbEditComment, Data: id},
			{Text: "❌ Видалити клієнта", Unique: cbDeleteClient, Data: id},
		},
	)
}
