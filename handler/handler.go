package handler

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"sosed-bot/config"
	"sosed-bot/database"
	"sosed-bot/directory"
	"sosed-bot/state"
	"sosed-bot/telegram"
)

// Callback data understood by the dispatcher.
const (
	CallbackGetInfo       = "start_get_info"
	CallbackJoinChat      = "start_join_chat"
	CallbackRevokeConfirm = "revoke_confirm"
	CallbackRevokeCancel  = "revoke_cancel"

	// Building picks arrive as "building_<name>".
	BuildingCallbackPrefix = "building_"
)

const (
	consentYes = "✅ Согласен"
	consentNo  = "❌ Не согласен"
)

type Handler struct {
	DB        database.IDatabase
	Telegram  telegram.Gateway
	Logger    logrus.FieldLogger
	Config    *config.Config
	Directory *directory.Directory
	States    *state.Store
}

func NewHandler(
	db database.IDatabase,
	gateway telegram.Gateway,
	logger logrus.FieldLogger,
	conf *config.Config,
	dir *directory.Directory,
	states *state.Store,
) *Handler {
	return &Handler{
		DB:        db,
		Telegram:  gateway,
		Logger:    logger,
		Config:    conf,
		Directory: dir,
		States:    states,
	}
}

// Text routes free-form messages by the sender's conversation step. Anything
// arriving outside a dialogue is dropped; text where a button press is
// expected is the logged unhandled combination.
func (h *Handler) Text(update tgbotapi.Update) error {
	key := messageKey(update)

	switch h.States.Get(key).Step {
	case state.StepAwaitingConsent:
		return h.ConsentReply(update)
	case state.StepAwaitingFlatNumber:
		return h.FlatNumber(update)
	case state.StepSelectingBuilding:
		h.Logger.WithFields(logrus.Fields{
			"telegram_id": key.UserID,
			"text":        update.Message.Text,
		}).Debug("text while a building pick is expected")
		return nil
	default:
		return nil
	}
}

func messageKey(update tgbotapi.Update) state.Key {
	return state.Key{
		UserID: update.Message.From.ID,
		ChatID: update.Message.Chat.ID,
	}
}

func callbackKey(update tgbotapi.Update) state.Key {
	return state.Key{
		UserID: update.CallbackQuery.From.ID,
		ChatID: update.CallbackQuery.Message.Chat.ID,
	}
}

func (h *Handler) contactAdminText() string {
	return fmt.Sprintf("Произошла ошибка при сохранении данных. Пожалуйста, обратитесь к администратору %s", h.Config.Contact)
}

func displayName(user *tgbotapi.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.UserName
	}
	return name
}

func mention(user *tgbotapi.User) string {
	if user.UserName == "" {
		return "—"
	}
	return "@" + user.UserName
}
