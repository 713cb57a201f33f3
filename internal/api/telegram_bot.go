// Package api provides handlers for external APIs and interfaces
package api

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/abelzeko/people-counter/internal/entities"
	"github.com/abelzeko/people-counter/internal/usecases"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	useCase *usecases.PeopleUseCase
	timeout time.Duration
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, useCase *usecases.PeopleUseCase, timeout time.Duration) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &TelegramBot{
		bot:     bot,
		useCase: useCase,
		timeout: timeout,
	}, nil
}

// Start begins listening for and handling Telegram messages
func (t *TelegramBot) Start() {
	log.Printf("Authorized on Telegram account %s", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	log.Println("Bot is now listening for messages...")

	for update := range updates {
		if update.Message == nil {
			continue
		}

		// Log incoming messages
		log.Printf("Received message from %s (ID: %d): %s",
			update.Message.From.UserName,
			update.Message.From.ID,
			update.Message.Text)

		t.handleMessage(update)
	}
}

// Stop stops receiving updates
func (t *TelegramBot) Stop() {
	t.bot.StopReceivingUpdates()
}

// handleMessage processes a Telegram message update
func (t *TelegramBot) handleMessage(update tgbotapi.Update) {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	switch {
	case update.Message.IsCommand():
		t.handleCommand(ctx, update.Message, &msg)
	default:
		t.handleNonCommand(ctx, update.Message, &msg)
	}

	log.Printf("Sending response to user %s", update.Message.From.UserName)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// handleCommand processes commands like /start, /help, etc.
func (t *TelegramBot) handleCommand(ctx context.Context, message *tgbotapi.Message, msg *tgbotapi.MessageConfig) {
	args := strings.TrimSpace(message.CommandArguments())
	log.Printf("Handling /%s command with args '%s' for user %s", message.Command(), args, message.From.UserName)

	switch message.Command() {
	case "start":
		msg.Text = "Welcome to the People Counter bot! Use /today to see today's counts or /help for more information."

	case "help":
		msg.Text = "Available commands:\n" +
			"/start - Start the bot\n" +
			"/latest [n] - Show the n most recent counts\n" +
			"/today - Show today's counts\n" +
			"/yesterday - Show yesterday's counts\n" +
			"/day YYYY-MM-DD - Show the counts of a day\n" +
			"/hourly YYYY-MM-DD - Show hourly totals of a day\n" +
			"/add count [source] - Record a new count\n" +
			"/help - Show this help message"

	case "latest":
		t.handleLatestCommand(ctx, args, msg)

	case "today":
		items, err := t.useCase.Today(ctx)
		t.reply(msg, "Today", items, err)

	case "yesterday":
		items, err := t.useCase.Yesterday(ctx)
		t.reply(msg, "Yesterday", items, err)

	case "day":
		if args == "" {
			msg.Text = "Please specify a date. Example: /day 2025-04-18"
			return
		}
		items, err := t.useCase.Day(ctx, args)
		t.reply(msg, args, items, err)

	case "hourly":
		if args == "" {
			msg.Text = "Please specify a date. Example: /hourly 2025-04-18"
			return
		}
		items, err := t.useCase.HourlyTotals(ctx, args)
		t.reply(msg, "Hourly totals for "+args, items, err)

	case "add":
		t.handleAddCommand(ctx, args, msg)

	default:
		log.Printf("Received unknown command /%s from user %s", message.Command(), message.From.UserName)
		msg.Text = "Unknown command. Use /help to see available commands."
	}
}

// handleLatestCommand processes the /latest [n] command
func (t *TelegramBot) handleLatestCommand(ctx context.Context, args string, msg *tgbotapi.MessageConfig) {
	n := usecases.DefaultLatestCount
	if args != "" {
		parsed, err := strconv.Atoi(args)
		if err != nil {
			msg.Text = "Please specify a number. Example: /latest 10"
			return
		}
		n = parsed
	}

	items, err := t.useCase.Latest(ctx, n)
	t.reply(msg, fmt.Sprintf("Latest %d observations", n), items, err)
}

// handleAddCommand processes the /add count [source] command
func (t *TelegramBot) handleAddCommand(ctx context.Context, args string, msg *tgbotapi.MessageConfig) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		msg.Text = "Please specify a count. Example: /add 12 main-door"
		return
	}

	count, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		msg.Text = "The count must be a whole number. Example: /add 12 main-door"
		return
	}

	var source *string
	if len(fields) > 1 {
		s := strings.Join(fields[1:], " ")
		source = &s
	}

	item, err := t.useCase.Record(ctx, int32(count), source)
	if err != nil {
		log.Printf("Error recording count: %v", err)
		msg.Text = usecases.DescribeError(err)
		return
	}
	msg.Text = fmt.Sprintf("Recorded %d people at %s.", item.NbPeople, item.Time)
}

// handleNonCommand processes regular messages
func (t *TelegramBot) handleNonCommand(ctx context.Context, message *tgbotapi.Message, msg *tgbotapi.MessageConfig) {
	log.Printf("Received non-command message from user %s: %s", message.From.UserName, message.Text)

	response, err := t.useCase.HandleNaturalLanguageQuery(ctx, message.Text)
	if err != nil {
		log.Printf("Error handling natural language query: %v", err)
		msg.Text = "I don't understand. Use /help to see available commands."
		return
	}
	msg.Text = response
}

func (t *TelegramBot) reply(msg *tgbotapi.MessageConfig, title string, items []entities.Item, err error) {
	if err != nil {
		log.Printf("Error answering query '%s': %v", title, err)
		msg.Text = usecases.DescribeError(err)
		return
	}
	msg.Text = usecases.FormatItems(title, items)
}
