package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"sosed-bot/config"
	"sosed-bot/database"
	"sosed-bot/directory"
	"sosed-bot/handler"
	"sosed-bot/state"
	"sosed-bot/telegram"
	"sosed-bot/tool"
)

func main() {
	var path string

	flag.StringVar(
		&path,
		"config",
		"",
		"enter path to config file",
	)

	// Parse at first startup
	flag.Parse()

	// Init logger
	logger := logrus.New()

	// Get config
	conf, err := config.NewConfig(path)
	if err != nil {
		logger.WithError(err).Fatal("incorrect path or config itself")
	}

	// Set log level from config
	lvl, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		logger.WithError(err).Fatal("cannot parse log level")
	}

	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})

	// Building directory is immutable for the process lifetime
	dir, err := directory.New(conf.Buildings, conf.Chats, conf.AdminChats)
	if err != nil {
		logger.WithError(err).Fatal("invalid building directory")
	}

	// Connect database
	db, err := sqlx.Connect("postgres", conf.DB.ConnectionString())
	if err != nil {
		logger.WithError(err).Fatal("cannot connect to database")
	}

	bot, err := tgbotapi.NewBotAPI(conf.Telegram.Token)
	if err != nil {
		fmt.Println("Telegram bot cannot be initialized! See, error:")
		panic(err)
	}

	fmt.Printf("Authorized on account @%s\n", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	// chat_member updates are only delivered when asked for explicitly
	u.AllowedUpdates = []string{
		tgbotapi.UpdateTypeMessage,
		tgbotapi.UpdateTypeCallbackQuery,
		tgbotapi.UpdateTypeChatMember,
	}

	updates := bot.GetUpdatesChan(u)

	// Graceful shutdown
	s := make(chan os.Signal, 1)
	signal.Notify(s, os.Interrupt)

	go func() {
		<-s
		bot.StopReceivingUpdates()
	}()

	h := handler.NewHandler(
		database.NewInstance(db),
		telegram.NewBot(bot),
		logger,
		conf,
		dir,
		state.NewStore(),
	)

	for update := range updates {
		go func(u tgbotapi.Update) {
			handleError := func(chatID int64, err error) {
				// Log error
				h.Logger.Error(err)

				// Send human readable representation of error to user to let him know
				if hrerr, ok := err.(*tool.HRError); ok && chatID != 0 {
					msg := tgbotapi.NewMessage(chatID, hrerr.Human())
					if _, err := h.Telegram.Send(msg); err != nil {
						h.Logger.Error(errors.Wrap(err, "cannot send message with human readable error"))
					}
				}
				// Unreadable error useless for people, nothing else to do
			}

			switch {
			case u.ChatMember != nil:
				if err := h.MembershipChanged(u); err != nil {
					handleError(0, err)
				}

			case u.CallbackQuery != nil:
				if u.CallbackQuery.Message == nil {
					return
				}
				chatID := u.CallbackQuery.Message.Chat.ID

				var err error
				data := u.CallbackQuery.Data
				switch {
				case data == handler.CallbackGetInfo:
					err = h.GetInfo(u)
				case data == handler.CallbackJoinChat:
					err = h.JoinChat(u)
				case strings.HasPrefix(data, handler.BuildingCallbackPrefix):
					err = h.SelectBuilding(u)
				case data == handler.CallbackRevokeConfirm:
					err = h.RevokeConfirm(u)
				case data == handler.CallbackRevokeCancel:
					err = h.RevokeCancel(u)
				default:
					h.Logger.WithField("data", data).Debug("unknown callback")
				}
				if err != nil {
					handleError(chatID, err)
				}

			case u.Message != nil:
				if u.Message.From == nil { // channel posts and the like
					return
				}

				var err error
				switch u.Message.Command() {
				case "start":
					err = h.Start(u)
				case "revoke":
					err = h.Revoke(u)
				default:
					err = h.Text(u)
				}
				if err != nil {
					handleError(u.Message.Chat.ID, err)
				}
			}
		}(update)
	}
}
