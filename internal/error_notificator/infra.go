package error_notificator

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Infra struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewInfra — nil-бот допустим: уведомления просто уходят в лог
func NewInfra(token string, chatID int64) (*Infra, error) {
	if token == "" || chatID == 0 {
		return &Infra{}, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init error bot: %w", err)
	}

	return &Infra{bot: bot, chatID: chatID}, nil
}

func (i *Infra) Notify(ctx context.Context, err error, details string) error {
	if i.bot == nil {
		log.Printf("[error_notificator] (no bot) %v | %s", err, details)
		return nil
	}

	text := fmt.Sprintf(
		"❗ Ошибка конвертации\n\nОшибка: %v\n\nДетали: %s",
		err,
		details,
	)

	msg := tgbotapi.NewMessage(i.chatID, text)

	_, sendErr := i.bot.Send(msg)
	if sendErr != nil {
		log.Printf("[error_notificator] send fail: %v", sendErr)
		return sendErr
	}

	return nil
}
