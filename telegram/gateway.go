package telegram

import (
	"encoding/json"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// Gateway is the slice of the Bot API the handlers actually use. Kept as an
// interface so flows can be tested against a fake.
type Gateway interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	AnswerCallback(id string) error
	CreateSingleUseInvite(chatID int64) (string, error)
	Ban(chatID, userID int64) error
	UnbanIfBanned(chatID, userID int64) error
}

type Bot struct {
	api *tgbotapi.BotAPI
}

func NewBot(api *tgbotapi.BotAPI) *Bot {
	return &Bot{api: api}
}

func (b *Bot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return b.api.Send(c)
}

func (b *Bot) AnswerCallback(id string) error {
	_, err := b.api.Request(tgbotapi.NewCallback(id, ""))
	return err
}

// CreateSingleUseInvite asks for an invite link limited to one member, so a
// forwarded link is useless to anyone but its recipient.
func (b *Bot) CreateSingleUseInvite(chatID int64) (string, error) {
	resp, err := b.api.Request(tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: chatID},
		MemberLimit: 1,
	})
	if err != nil {
		return "", errors.Wrap(err, "cannot create invite link")
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", errors.Wrap(err, "cannot decode invite link response")
	}

	return link.InviteLink, nil
}

func (b *Bot) Ban(chatID, userID int64) error {
	_, err := b.api.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
	})
	return err
}

// UnbanIfBanned lifts a ban only when one exists. Ban followed by this call
// removes a member without leaving a ban entry that would block rejoining.
func (b *Bot) UnbanIfBanned(chatID, userID int64) error {
	_, err := b.api.Request(tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
		OnlyIfBanned: true,
	})
	return err
}
