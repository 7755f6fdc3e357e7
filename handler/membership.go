package handler

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func isInside(status string) bool {
	switch status {
	case "member", "administrator", "creator":
		return true
	}
	return false
}

func isOutside(status string) bool {
	return status == "left" || status == "kicked"
}

// MembershipChanged keeps the registry in step with what actually happens in
// the community chats: leaving purges that building's records, joining gets
// reported to the building's admins. Chats outside the directory are ignored.
func (h *Handler) MembershipChanged(update tgbotapi.Update) error {
	event := update.ChatMember

	building, ok := h.Directory.BuildingByChat(event.Chat.ID)
	if !ok {
		return nil
	}

	// The affected member is the one in NewChatMember; From may be an admin
	// who kicked them.
	subject := event.NewChatMember.User
	oldStatus := event.OldChatMember.Status
	newStatus := event.NewChatMember.Status

	switch {
	case isInside(oldStatus) && newStatus == "left":
		return h.memberLeft(building, subject)
	case isOutside(oldStatus) && isInside(newStatus):
		return h.memberJoined(building, subject)
	}

	return nil
}

// memberLeft deletes the departed member's records for this building and
// tells them so. The two steps are not transactional: once the delete went
// through, a failed notice is only logged.
func (h *Handler) memberLeft(building string, user *tgbotapi.User) error {
	records, err := h.DB.FindResidents(user.ID, building, "")
	if err != nil {
		return errors.Wrap(err, "cannot look up records of departed member")
	}
	if len(records) == 0 {
		return nil
	}

	deleted, err := h.DB.DeleteResidents(user.ID, building)
	if err != nil {
		return errors.Wrap(err, "cannot purge records of departed member")
	}

	h.Logger.WithFields(logrus.Fields{
		"telegram_id": user.ID,
		"building":    building,
		"deleted":     deleted,
	}).Info("purged records of departed member")

	notice := fmt.Sprintf(
		"👋 Вы покинули чат соседей по дому %s.\n\n"+
			"Ваши данные по этому дому (%d запись(ей)) были удалены из базы данных "+
			"в соответствии с политикой конфиденциальности.\n\n"+
			"Если вы захотите вернуться в чат, просто начните заново с команды /start",
		building, deleted,
	)
	if _, err := h.Telegram.Send(tgbotapi.NewMessage(user.ID, notice)); err != nil {
		// Likely the member blocked the bot; the purge already happened.
		h.Logger.WithError(err).WithField("telegram_id", user.ID).Warn("cannot notify departed member")
	}

	return nil
}

// memberJoined tells the building's admin chat who arrived and which flats
// the registry knows for them. Without a configured admin chat there is
// nobody to tell, so the registry is not even queried.
func (h *Handler) memberJoined(building string, user *tgbotapi.User) error {
	adminChat, ok := h.Directory.AdminChat(building)
	if !ok {
		return nil
	}

	records, err := h.DB.FindResidents(user.ID, building, "")
	if err != nil {
		return errors.Wrap(err, "cannot look up records of joined member")
	}

	var text string
	if len(records) > 0 {
		flats := make([]string, 0, len(records))
		for _, record := range records {
			flats = append(flats, "Квартира: "+record.FlatNumber)
		}
		text = fmt.Sprintf(
			"✅ Пользователь присоединился к чату\n\n"+
				"Дом: %s\nПользователь: %s (ID: %d)\nИмя: %s\n\nДанные:\n%s",
			building, mention(user), user.ID, displayName(user), strings.Join(flats, "\n"),
		)
	} else {
		text = fmt.Sprintf(
			"ℹ️ Пользователь присоединился к чату, но данные не найдены в базе\n\n"+
				"Дом: %s\nПользователь: %s (ID: %d)\nИмя: %s",
			building, mention(user), user.ID, displayName(user),
		)
	}

	if _, err := h.Telegram.Send(tgbotapi.NewMessage(adminChat, text)); err != nil {
		return errors.Wrap(err, "cannot notify admin chat about joined member")
	}

	return nil
}
