package handler

import (
	"fmt"
	"regexp"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"sosed-bot/model"
	"sosed-bot/state"
	"sosed-bot/tool"
)

var flatNumberRe = regexp.MustCompile(`^\d{1,5}$`)

// Start shows the entry menu. Only meaningful in a private dialogue, group
// chats never get onboarding traffic.
func (h *Handler) Start(update tgbotapi.Update) error {
	if !update.Message.Chat.IsPrivate() {
		return nil
	}

	msg := tgbotapi.NewMessage(
		update.Message.Chat.ID,
		"👋 Привет! Я бот-помощник для соседей. Выберите действие:",
	)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Узнать о доме", CallbackGetInfo),
			tgbotapi.NewInlineKeyboardButtonData("💬 Вступить в чат", CallbackJoinChat),
		),
	)

	if _, err := h.Telegram.Send(msg); err != nil {
		return errors.Wrap(err, "cannot send message")
	}

	return nil
}

func (h *Handler) GetInfo(update tgbotapi.Update) error {
	if err := h.Telegram.AnswerCallback(update.CallbackQuery.ID); err != nil {
		h.Logger.WithError(err).Warn("cannot answer callback")
	}

	msg := tgbotapi.NewMessage(update.CallbackQuery.Message.Chat.ID, "⚒️ Раздел в разработке...")
	if _, err := h.Telegram.Send(msg); err != nil {
		return errors.Wrap(err, "cannot send message")
	}

	return nil
}

// JoinChat asks for consent to process the flat number and account data.
// Reached from the entry menu and from the decline re-entry button.
func (h *Handler) JoinChat(update tgbotapi.Update) error {
	if err := h.Telegram.AnswerCallback(update.CallbackQuery.ID); err != nil {
		h.Logger.WithError(err).Warn("cannot answer callback")
	}

	h.States.Set(callbackKey(update), state.Conversation{Step: state.StepAwaitingConsent})

	msg := tgbotapi.NewMessage(
		update.CallbackQuery.Message.Chat.ID,
		"Пожалуйста, подтвердите согласие на обработку номера вашей квартиры и данных Telegram-аккаунта. "+
			"Это необходимо для проверки подлинности соседства и добавления вас в чат.\n\n"+
			"Политика конфиденциальности: https://clck.ru/3NqANx",
	)
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(consentNo),
			tgbotapi.NewKeyboardButton(consentYes),
		),
	)
	keyboard.OneTimeKeyboard = true
	msg.ReplyMarkup = keyboard
	msg.DisableWebPagePreview = true

	if _, err := h.Telegram.Send(msg); err != nil {
		return errors.Wrap(err, "cannot send message")
	}

	return nil
}

// ConsentReply handles the three answers possible while consent is pending:
// agree, decline, or anything else (which just re-prompts).
func (h *Handler) ConsentReply(update tgbotapi.Update) error {
	key := messageKey(update)
	chatID := update.Message.Chat.ID

	switch update.Message.Text {
	case consentYes:
		h.States.Set(key, state.Conversation{Step: state.StepSelectingBuilding})

		msg := tgbotapi.NewMessage(chatID, "Выберите дом, который вас интересует:")
		msg.ReplyMarkup = h.buildingKeyboard()
		if _, err := h.Telegram.Send(msg); err != nil {
			return errors.Wrap(err, "cannot send message")
		}

	case consentNo:
		h.States.Clear(key)

		msg := tgbotapi.NewMessage(
			chatID,
			"Понимаю. К сожалению, без согласия на обработку данных я не смогу добавить вас в чат",
		)
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔄 Передумал", CallbackJoinChat),
			),
		)
		if _, err := h.Telegram.Send(msg); err != nil {
			return errors.Wrap(err, "cannot send message")
		}

	default:
		msg := tgbotapi.NewMessage(
			chatID,
			fmt.Sprintf("Пожалуйста, используйте кнопки для ответа: '%s' или '%s'", consentYes, consentNo),
		)
		if _, err := h.Telegram.Send(msg); err != nil {
			return errors.Wrap(err, "cannot send message")
		}
	}

	return nil
}

// SelectBuilding stores the picked building. A building without a chat
// mapping keeps the user on the picker with an inline error.
func (h *Handler) SelectBuilding(update tgbotapi.Update) error {
	if err := h.Telegram.AnswerCallback(update.CallbackQuery.ID); err != nil {
		h.Logger.WithError(err).Warn("cannot answer callback")
	}

	key := callbackKey(update)
	if h.States.Get(key).Step != state.StepSelectingBuilding {
		h.Logger.WithField("telegram_id", key.UserID).Debug("building pick outside selection step")
		return nil
	}

	building := update.CallbackQuery.Data[len(BuildingCallbackPrefix):]
	chatID := update.CallbackQuery.Message.Chat.ID
	messageID := update.CallbackQuery.Message.MessageID

	if _, ok := h.Directory.CommunityChat(building); !ok {
		edit := tgbotapi.NewEditMessageTextAndMarkup(
			chatID,
			messageID,
			fmt.Sprintf("К сожалению, дом %s пока не поддерживается. Выберите другой дом:", building),
			h.buildingKeyboard(),
		)
		if _, err := h.Telegram.Send(edit); err != nil {
			return errors.Wrap(err, "cannot edit message")
		}
		return nil
	}

	h.States.Set(key, state.Conversation{
		Step:     state.StepAwaitingFlatNumber,
		Building: building,
	})

	edit := tgbotapi.NewEditMessageText(chatID, messageID, "Пожалуйста, сообщите номер своей квартиры")
	if _, err := h.Telegram.Send(edit); err != nil {
		return errors.Wrap(err, "cannot edit message")
	}

	return nil
}

// FlatNumber validates the flat and commits the record. The conversation is
// cleared no matter how the commit goes, so a failure never leaves the user
// stuck on this step.
func (h *Handler) FlatNumber(update tgbotapi.Update) error {
	key := messageKey(update)
	chatID := update.Message.Chat.ID

	if !flatNumberRe.MatchString(update.Message.Text) {
		msg := tgbotapi.NewMessage(chatID, "Пожалуйста, укажите корректный номер квартиры")
		if _, err := h.Telegram.Send(msg); err != nil {
			return errors.Wrap(err, "cannot send message")
		}
		return nil
	}

	defer h.States.Clear(key)

	building := h.States.Get(key).Building
	flatNumber := update.Message.Text
	from := update.Message.From

	processing, processingErr := h.Telegram.Send(
		tgbotapi.NewMessage(chatID, "⏳ Обрабатываю данные, пожалуйста подождите…"),
	)

	// Edit the processing message with the outcome, falling back to a fresh
	// message when the edit is impossible.
	finish := func(text string) error {
		if processingErr == nil {
			if _, err := h.Telegram.Send(tgbotapi.NewEditMessageText(chatID, processing.MessageID, text)); err == nil {
				return nil
			}
		}
		if _, err := h.Telegram.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			return errors.Wrap(err, "cannot send commit result")
		}
		return nil
	}

	existing, err := h.DB.FindResidents(from.ID, building, flatNumber)
	if err != nil {
		return tool.NewHRError(
			h.contactAdminText(),
			errors.Wrap(err, "cannot check for existing record"),
		)
	}

	if len(existing) == 0 {
		_, err := h.DB.InsertResident(&model.Resident{
			TelegramID: from.ID,
			Username:   from.UserName,
			FirstName:  from.FirstName,
			LastName:   from.LastName,
			Building:   building,
			FlatNumber: flatNumber,
		})
		if err != nil {
			// Concurrent commit of the same tuple; the record exists, which
			// is all this step needs.
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				h.Logger.WithError(err).Info("duplicate resident record, continuing")
			} else {
				return tool.NewHRError(
					h.contactAdminText(),
					errors.Wrap(err, "cannot insert resident"),
				)
			}
		}
	}

	done := fmt.Sprintf("Готово! Дом %s, квартира %s.", building, flatNumber)

	communityChat, ok := h.Directory.CommunityChat(building)
	if !ok {
		return finish(done + fmt.Sprintf(
			"\n\nК сожалению, чат для этого дома пока не подключен. Свяжитесь с администратором %s.",
			h.Config.Contact,
		))
	}

	// A fresh invite even when the record already existed: a user removed
	// for leaving legitimately needs a way back in.
	inviteLink, err := h.Telegram.CreateSingleUseInvite(communityChat)
	if err != nil {
		h.Logger.WithError(err).WithField("building", building).Error("cannot create invite link")
		return finish(done + fmt.Sprintf(
			"\n\nНе удалось создать ссылку приглашения. Свяжитесь с администратором %s",
			h.Config.Contact,
		))
	}

	return finish(done + fmt.Sprintf("\n\n🔗 Ссылка для вступления в чат: %s", inviteLink))
}

func (h *Handler) buildingKeyboard() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, building := range h.Directory.Buildings() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(building, BuildingCallbackPrefix+building))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
