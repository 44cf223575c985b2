package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/weather-digest-bot/internal/conversation"
)

// choicePrefix marks callback data produced by choicesKeyboard.
const choicePrefix = "choice:"

// mainMenuKeyboard builds the reply keyboard shown under every reply.
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(conversation.CmdCurrentWeather),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(conversation.CmdSetTime),
			tgbotapi.NewKeyboardButton(conversation.CmdSetLocation),
			tgbotapi.NewKeyboardButton(conversation.CmdSetContent),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(conversation.CmdCancel),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// choicesKeyboard renders quick answers as one row of inline buttons.
func choicesKeyboard(choices []conversation.Choice) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, c := range choices {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.Label, choicePrefix+c.Value))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
