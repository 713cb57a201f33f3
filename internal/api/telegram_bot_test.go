package api

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/abelzeko/people-counter/internal/repository"
	"github.com/abelzeko/people-counter/internal/usecases"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBot(t *testing.T) (*TelegramBot, repository.ObservationRepository) {
	t.Helper()

	repo, err := repository.Open(filepath.Join(t.TempDir(), "bot-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return &TelegramBot{
		useCase: usecases.NewPeopleUseCase(repo, time.UTC, nil),
		timeout: 5 * time.Second,
	}, repo
}

// commandMessage builds a message the way Telegram delivers a bot command
func commandMessage(text string) *tgbotapi.Message {
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: 1},
		From:     &tgbotapi.User{ID: 2, UserName: "tester"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func runCommand(t *testing.T, bot *TelegramBot, text string) string {
	t.Helper()

	message := commandMessage(text)
	require.True(t, message.IsCommand())

	msg := tgbotapi.NewMessage(message.Chat.ID, "")
	bot.handleCommand(context.Background(), message, &msg)
	return msg.Text
}

func TestBotAddThenLatest(t *testing.T) {
	bot, _ := newTestBot(t)

	reply := runCommand(t, bot, "/add 12 main door")
	assert.Regexp(t, `^Recorded 12 people at \d{2}:\d{2}\.$`, reply)

	reply = runCommand(t, bot, "/latest 1")
	assert.Contains(t, reply, "Latest 1 observations")
	assert.Contains(t, reply, "👥 12 📍 main door")

	reply = runCommand(t, bot, "/today")
	assert.Contains(t, reply, "👥 12")
}

func TestBotArgumentErrors(t *testing.T) {
	bot, _ := newTestBot(t)

	assert.Contains(t, runCommand(t, bot, "/add"), "Please specify a count")
	assert.Contains(t, runCommand(t, bot, "/add lots"), "whole number")
	assert.Contains(t, runCommand(t, bot, "/latest few"), "Please specify a number")
	assert.Contains(t, runCommand(t, bot, "/day"), "Please specify a date")
	assert.Contains(t, runCommand(t, bot, "/day 18.04.2025"), "YYYY-MM-DD")
	assert.Contains(t, runCommand(t, bot, "/hourly tomorrow"), "YYYY-MM-DD")
	assert.Contains(t, runCommand(t, bot, "/unknown"), "Unknown command")
}

func TestBotEmptyResults(t *testing.T) {
	bot, _ := newTestBot(t)

	assert.Equal(t, "Yesterday: no data.", runCommand(t, bot, "/yesterday"))
	assert.Equal(t, "2025-04-18: no data.", runCommand(t, bot, "/day 2025-04-18"))
	assert.Equal(t, "Latest 0 observations: no data.", runCommand(t, bot, "/latest 0"))
}

func TestBotStoreUnavailable(t *testing.T) {
	bot, repo := newTestBot(t)
	require.NoError(t, repo.Close())

	assert.Contains(t, runCommand(t, bot, "/today"), "unavailable")
	assert.Contains(t, runCommand(t, bot, "/add 3"), "unavailable")
}

func TestBotNonCommandWithoutAssistant(t *testing.T) {
	bot, _ := newTestBot(t)

	message := &tgbotapi.Message{Text: "how busy is it?", Chat: &tgbotapi.Chat{ID: 1}, From: &tgbotapi.User{ID: 2}}
	msg := tgbotapi.NewMessage(1, "")
	bot.handleNonCommand(context.Background(), message, &msg)
	assert.Contains(t, msg.Text, "/help")
}
