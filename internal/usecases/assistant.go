package usecases

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/abelzeko/people-counter/internal/entities"
	"github.com/abelzeko/people-counter/internal/integration/openai"
)

// DefaultLatestCount is used when a question asks for the latest counts without a number
const DefaultLatestCount = 5

// HandleNaturalLanguageQuery interprets a user's free-text question using the
// AI service and returns a response ready to be shown to the user.
func (uc *PeopleUseCase) HandleNaturalLanguageQuery(ctx context.Context, query string) (string, error) {
	if uc.openAIService == nil {
		return "I only understand commands. Use /help to see them.", nil
	}
	log.Printf("Interpreting natural language query: %s", query)

	today, err := uc.today(ctx)
	if err != nil {
		log.Printf("Error reading store clock: %v", err)
		return "Sorry, the counter database is unavailable right now.", nil
	}

	agentResp, err := uc.openAIService.InterpretUserQuery(ctx, query, today.Format(DateLayout))
	if err != nil {
		log.Printf("Error interpreting user query via OpenAI: %v", err)
		return "Sorry, I'm having trouble understanding right now. Please try again later or use /help.", nil
	}

	log.Printf("Agent response: Command='%s', Date='%s', Limit=%d, Message='%s'",
		agentResp.CommandName, agentResp.Date, agentResp.Limit, agentResp.UserMessage)

	var (
		items []entities.Item
		title string
	)
	switch agentResp.CommandName {
	case openai.CommandLatest:
		limit := agentResp.Limit
		if limit <= 0 {
			limit = DefaultLatestCount
		}
		title = fmt.Sprintf("Latest %d observations", limit)
		items, err = uc.Latest(ctx, limit)
	case openai.CommandToday:
		title = "Today"
		items, err = uc.Today(ctx)
	case openai.CommandYesterday:
		title = "Yesterday"
		items, err = uc.Yesterday(ctx)
	case openai.CommandDay:
		title = agentResp.Date
		items, err = uc.Day(ctx, agentResp.Date)
	case openai.CommandHourlyTotals:
		title = "Hourly totals for " + agentResp.Date
		items, err = uc.HourlyTotals(ctx, agentResp.Date)
	case openai.CommandGeneralQuery:
		return agentResp.UserMessage, nil
	default:
		log.Printf("Agent returned unexpected command: %s", agentResp.CommandName)
		return "I'm not sure how to respond to that. You can use /help for commands.", nil
	}

	if err != nil {
		log.Printf("Error answering %s query: %v", agentResp.CommandName, err)
		return DescribeError(err), nil
	}

	msg := agentResp.UserMessage
	if msg != "" {
		msg += "\n\n"
	}
	return msg + FormatItems(title, items), nil
}

// DescribeError turns a query failure into a message for chat users
func DescribeError(err error) string {
	if errors.Is(err, ErrInvalidArgument) {
		return "That date doesn't look right. Please use the YYYY-MM-DD format."
	}
	return "Sorry, the counter database is unavailable right now."
}

// FormatItems formats result items for display
func FormatItems(title string, items []entities.Item) string {
	if len(items) == 0 {
		return fmt.Sprintf("%s: no data.", title)
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s:\n\n", title))

	for _, item := range items {
		result.WriteString(fmt.Sprintf("🕒 %s 👥 %d", item.Time, item.NbPeople))
		if item.Source != nil {
			result.WriteString(fmt.Sprintf(" 📍 %s", *item.Source))
		}
		result.WriteString("\n")
	}

	return result.String()
}
