package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mydarah/bot/config"
	"github.com/mydarah/bot/logger"
)

// Sender is the part of the Telegram client the bot writes through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	api         *tgbotapi.BotAPI
	sender      Sender
	handler     *Handler
	reports     ReportGenerator
	pollTimeout int
}

// New logs in to Telegram. The configured username wins over the one Telegram reports,
// so group mentions keep working behind a renamed bot.
func New(cfg config.TelegramConfig, reports ReportGenerator) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	username := cfg.BotUsername
	if username == "" {
		username = api.Self.UserName
	}
	return &Bot{
		api:         api,
		sender:      api,
		handler:     NewHandler(reports, username),
		reports:     reports,
		pollTimeout: cfg.PollTimeout,
	}, nil
}

// Run registers the command menu and processes updates one at a time until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.RegisterCommands(ctx); err != nil {
		logger.Warnf(ctx, "Bot: failed to register commands, the menu may be stale: %v", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)
	logger.Infof(ctx, "Bot: polling as @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			logger.Info(ctx, "Bot: stopped polling")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.process(ctx, update)
		}
	}
}

// RegisterCommands publishes /start and one command per report to the chat menu.
func (b *Bot) RegisterCommands(ctx context.Context) error {
	commands := []tgbotapi.BotCommand{{Command: "start", Description: "How to use this bot"}}
	for _, spec := range b.reports.Specs() {
		commands = append(commands, tgbotapi.BotCommand{Command: spec.Name, Description: spec.Description})
	}
	if _, err := b.sender.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return err
	}
	logger.Infof(ctx, "Bot: registered %d commands", len(commands))
	return nil
}

func (b *Bot) process(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	ctx = logger.With(ctx, "update_id", update.UpdateID, "chat_id", msg.Chat.ID, "chat_type", msg.Chat.Type)
	logger.Debugf(ctx, "Bot: received %q", msg.Text)

	if msg.IsCommand() {
		// Rendering can take a while; show "sending photo..." meanwhile.
		if _, err := b.sender.Request(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatUploadPhoto)); err != nil {
			logger.Debugf(ctx, "Bot: chat action failed: %v", err)
		}
	}

	out, respond := b.handler.Handle(ctx, msg)
	if !respond {
		return
	}
	if out.Err != nil {
		logger.Errorf(ctx, "Bot: /%s failed: %v", msg.Command(), out.Err)
	}

	for _, m := range out.Messages(msg.Chat.ID) {
		if _, err := b.sender.Send(m); err != nil {
			logger.Errorf(ctx, "Bot: failed to send reply: %v", err)
			return
		}
	}
}
