package handler

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"sosed-bot/config"
	"sosed-bot/directory"
	"sosed-bot/model"
	"sosed-bot/state"
)

// fakeDB is an in-memory stand-in for the registry with the same filter
// semantics as the Postgres implementation.
type fakeDB struct {
	residents []*model.Resident
	nextID    int

	findErr   error
	insertErr error
	deleteErr error

	findCalls int
	inserted  []*model.Resident
}

func (f *fakeDB) FindResidents(telegramID int64, building, flatNumber string) ([]*model.Resident, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}

	var out []*model.Resident
	for _, r := range f.residents {
		if r.TelegramID != telegramID {
			continue
		}
		if building != "" && r.Building != building {
			continue
		}
		if flatNumber != "" && r.FlatNumber != flatNumber {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeDB) InsertResident(r *model.Resident) (*model.Resident, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}

	f.nextID++
	stored := *r
	stored.ID = f.nextID
	stored.JoinedAt = time.Now()
	f.residents = append(f.residents, &stored)
	f.inserted = append(f.inserted, &stored)
	return &stored, nil
}

func (f *fakeDB) DeleteResidents(telegramID int64, building string) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}

	var kept []*model.Resident
	var deleted int64
	for _, r := range f.residents {
		if r.TelegramID == telegramID && (building == "" || r.Building == building) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	f.residents = kept
	return deleted, nil
}

type fakeGateway struct {
	sent    []tgbotapi.Chattable
	sendErr error

	inviteURL string
	inviteErr error
	invites   []int64

	banErr   map[int64]error
	bans     []int64
	unbanErr map[int64]error
	unbans   []int64
}

func (g *fakeGateway) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if g.sendErr != nil {
		return tgbotapi.Message{}, g.sendErr
	}
	g.sent = append(g.sent, c)
	return tgbotapi.Message{MessageID: len(g.sent)}, nil
}

func (g *fakeGateway) AnswerCallback(string) error { return nil }

func (g *fakeGateway) CreateSingleUseInvite(chatID int64) (string, error) {
	if g.inviteErr != nil {
		return "", g.inviteErr
	}
	g.invites = append(g.invites, chatID)
	return g.inviteURL, nil
}

func (g *fakeGateway) Ban(chatID, userID int64) error {
	if err := g.banErr[chatID]; err != nil {
		return err
	}
	g.bans = append(g.bans, chatID)
	return nil
}

func (g *fakeGateway) UnbanIfBanned(chatID, userID int64) error {
	if err := g.unbanErr[chatID]; err != nil {
		return err
	}
	g.unbans = append(g.unbans, chatID)
	return nil
}

// sentTexts collects the text of every sent or edited message, in order.
func (g *fakeGateway) sentTexts() []string {
	var out []string
	for _, c := range g.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (g *fakeGateway) lastText(t *testing.T) string {
	t.Helper()
	texts := g.sentTexts()
	require.NotEmpty(t, texts, "expected at least one message to be sent")
	return texts[len(texts)-1]
}

// Fixture directory: buildings 2, 2к1, 2к4 have community chats, only 2 has
// an admin chat, and 9 is offered in the picker without any mapping.
const (
	chatBuilding2   = int64(-100200)
	chatBuilding2k1 = int64(-100201)
	chatBuilding2k4 = int64(-100204)
	adminChat2      = int64(-100300)
)

func newTestHandler(t *testing.T, db *fakeDB, gw *fakeGateway) *Handler {
	t.Helper()

	dir, err := directory.New(
		[]string{"2", "2к1", "2к4", "9"},
		map[string]int64{"2": chatBuilding2, "2к1": chatBuilding2k1, "2к4": chatBuilding2k4},
		map[string]int64{"2": adminChat2},
	)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()

	conf := &config.Config{
		Contact:  "@admin",
		Telegram: &config.Telegram{Token: "test"},
	}

	return NewHandler(db, gw, logger, conf, dir, state.NewStore())
}

func messageUpdate(userID, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: userID, FirstName: "Тест", UserName: "test_user"},
			Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
			Text:      text,
		},
	}
}

func callbackUpdate(userID, chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "callback",
			From: &tgbotapi.User{ID: userID, FirstName: "Тест", UserName: "test_user"},
			Message: &tgbotapi.Message{
				MessageID: 10,
				Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
			},
			Data: data,
		},
	}
}

func chatMemberUpdate(chatID, userID int64, oldStatus, newStatus string) tgbotapi.Update {
	user := &tgbotapi.User{ID: userID, FirstName: "Тест", UserName: "test_user"}
	return tgbotapi.Update{
		ChatMember: &tgbotapi.ChatMemberUpdated{
			Chat:          tgbotapi.Chat{ID: chatID, Type: "supergroup"},
			From:          tgbotapi.User{ID: userID},
			OldChatMember: tgbotapi.ChatMember{User: user, Status: oldStatus},
			NewChatMember: tgbotapi.ChatMember{User: user, Status: newStatus},
		},
	}
}
