package handler

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Revoke asks the user to confirm withdrawing consent. Private chats only.
func (h *Handler) Revoke(update tgbotapi.Update) error {
	if !update.Message.Chat.IsPrivate() {
		return nil
	}

	msg := tgbotapi.NewMessage(
		update.Message.Chat.ID,
		"Внимание: удаление ваших данных приведет к вашему удалению из чатов соседей.\n\n"+
			"Вы действительно хотите отозвать согласие на обработку данных и удалить свои данные?",
	)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", CallbackRevokeCancel),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", CallbackRevokeConfirm),
		),
	)

	if _, err := h.Telegram.Send(msg); err != nil {
		return errors.Wrap(err, "cannot send message")
	}

	return nil
}

func (h *Handler) RevokeCancel(update tgbotapi.Update) error {
	if err := h.Telegram.AnswerCallback(update.CallbackQuery.ID); err != nil {
		h.Logger.WithError(err).Warn("cannot answer callback")
	}

	edit := tgbotapi.NewEditMessageText(
		update.CallbackQuery.Message.Chat.ID,
		update.CallbackQuery.Message.MessageID,
		"Операция отменена.",
	)
	if _, err := h.Telegram.Send(edit); err != nil {
		return errors.Wrap(err, "cannot edit message")
	}

	return nil
}

// RevokeConfirm deletes every registry record of the user, then sweeps all
// configured community chats with ban+unban. The registry delete must succeed
// before any chat is touched; the chat sweep itself is best-effort per chat.
func (h *Handler) RevokeConfirm(update tgbotapi.Update) error {
	if err := h.Telegram.AnswerCallback(update.CallbackQuery.ID); err != nil {
		h.Logger.WithError(err).Warn("cannot answer callback")
	}

	userID := update.CallbackQuery.From.ID
	chatID := update.CallbackQuery.Message.Chat.ID
	messageID := update.CallbackQuery.Message.MessageID

	report := func(text string) error {
		if _, err := h.Telegram.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
			return errors.Wrap(err, "cannot edit message")
		}
		return nil
	}

	retryLater := fmt.Sprintf(
		"Произошла ошибка при удалении данных. Попробуйте позже или обратитесь к администратору %s",
		h.Config.Contact,
	)

	records, err := h.DB.FindResidents(userID, "", "")
	if err != nil {
		h.Logger.WithError(err).WithField("telegram_id", userID).Error("revoke: cannot look up records")
		return report(retryLater)
	}

	var deleted int64
	if len(records) > 0 {
		deleted, err = h.DB.DeleteResidents(userID, "")
		if err != nil {
			// Do not touch chat memberships against registry state that was
			// meant to be gone but is not.
			h.Logger.WithError(err).WithField("telegram_id", userID).Error("revoke: cannot delete records")
			return report(retryLater)
		}
	}

	removedFrom := 0
	for _, communityChat := range h.Directory.ChatIDs() {
		// Membership may be stale or undiscovered, so every configured chat
		// gets a removal attempt. Failures (bot not admin, user never a
		// member) skip just that chat.
		if err := h.Telegram.Ban(communityChat, userID); err != nil {
			h.Logger.WithError(err).WithFields(logrus.Fields{
				"telegram_id": userID,
				"chat_id":     communityChat,
			}).Info("revoke: cannot remove user from chat")
			continue
		}
		if err := h.Telegram.UnbanIfBanned(communityChat, userID); err != nil {
			h.Logger.WithError(err).WithFields(logrus.Fields{
				"telegram_id": userID,
				"chat_id":     communityChat,
			}).Info("revoke: cannot lift removal ban")
			continue
		}
		removedFrom++
	}

	h.Logger.WithFields(logrus.Fields{
		"telegram_id":  userID,
		"deleted":      deleted,
		"removed_from": removedFrom,
	}).Info("revoke completed")

	text := "Ваши данные удалены. "
	if deleted > 0 {
		text += fmt.Sprintf("Удалено записей: %d. ", deleted)
	}
	if removedFrom > 0 {
		text += fmt.Sprintf("Вы удалены из %d чата(ов).", removedFrom)
	} else {
		text += "Не удалось удаленно исключить из чатов или вы не были участником."
	}

	return report(text)
}
