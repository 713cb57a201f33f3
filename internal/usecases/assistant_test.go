package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abelzeko/people-counter/internal/entities"
	"github.com/abelzeko/people-counter/internal/integration/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOpenAIService struct {
	resp      *openai.AgentResponse
	err       error
	lastToday string
}

func (s *stubOpenAIService) InterpretUserQuery(_ context.Context, _ string, today string) (*openai.AgentResponse, error) {
	s.lastToday = today
	return s.resp, s.err
}

func TestHandleNaturalLanguageQueryWithoutService(t *testing.T) {
	uc := NewPeopleUseCase(&memoryRepository{now: time.Now()}, time.UTC, nil)

	msg, err := uc.HandleNaturalLanguageQuery(context.Background(), "how busy is it?")
	require.NoError(t, err)
	assert.Contains(t, msg, "/help")
}

func TestHandleNaturalLanguageQueryHourly(t *testing.T) {
	day := time.Date(2025, time.April, 18, 0, 0, 0, 0, time.UTC)
	repo := &memoryRepository{now: day.Add(20 * time.Hour)}
	repo.add(day.Add(9*time.Hour+5*time.Minute), 3, nil)
	repo.add(day.Add(9*time.Hour+30*time.Minute), 4, nil)
	svc := &stubOpenAIService{resp: &openai.AgentResponse{
		CommandName: openai.CommandHourlyTotals,
		Date:        "2025-04-18",
		UserMessage: "Hourly totals coming up",
	}}
	uc := NewPeopleUseCase(repo, time.UTC, svc)

	msg, err := uc.HandleNaturalLanguageQuery(context.Background(), "hourly totals for today please")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-18", svc.lastToday)
	assert.Contains(t, msg, "Hourly totals coming up")
	assert.Contains(t, msg, "09:00")
	assert.Contains(t, msg, "7")
}

func TestHandleNaturalLanguageQueryLatestDefaultsLimit(t *testing.T) {
	now := time.Date(2025, time.April, 18, 12, 0, 0, 0, time.UTC)
	repo := &memoryRepository{now: now}
	for i := 0; i < 8; i++ {
		repo.add(now.Add(-time.Duration(i)*time.Minute), int32(i), nil)
	}
	svc := &stubOpenAIService{resp: &openai.AgentResponse{CommandName: openai.CommandLatest}}
	uc := NewPeopleUseCase(repo, time.UTC, svc)

	msg, err := uc.HandleNaturalLanguageQuery(context.Background(), "latest?")
	require.NoError(t, err)
	assert.Contains(t, msg, "Latest 5 observations")
	assert.Contains(t, msg, "11:56")
	assert.NotContains(t, msg, "11:55")
}

func TestHandleNaturalLanguageQueryBadDate(t *testing.T) {
	svc := &stubOpenAIService{resp: &openai.AgentResponse{CommandName: openai.CommandDay, Date: "yesterday-ish"}}
	uc := NewPeopleUseCase(&memoryRepository{now: time.Now()}, time.UTC, svc)

	msg, err := uc.HandleNaturalLanguageQuery(context.Background(), "what about some day?")
	require.NoError(t, err)
	assert.Contains(t, msg, "YYYY-MM-DD")
}

func TestHandleNaturalLanguageQueryGeneral(t *testing.T) {
	svc := &stubOpenAIService{resp: &openai.AgentResponse{CommandName: openai.CommandGeneralQuery, UserMessage: "Hello!"}}
	uc := NewPeopleUseCase(&memoryRepository{now: time.Now()}, time.UTC, svc)

	msg, err := uc.HandleNaturalLanguageQuery(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", msg)
}

func TestHandleNaturalLanguageQueryServiceError(t *testing.T) {
	svc := &stubOpenAIService{err: errors.New("rate limited")}
	uc := NewPeopleUseCase(&memoryRepository{now: time.Now()}, time.UTC, svc)

	msg, err := uc.HandleNaturalLanguageQuery(context.Background(), "hi")
	require.NoError(t, err)
	assert.Contains(t, msg, "trouble understanding")
}

func TestFormatItems(t *testing.T) {
	assert.Equal(t, "Today: no data.", FormatItems("Today", nil))

	msg := FormatItems("Today", []entities.Item{
		{Time: "09:05", NbPeople: 7, Source: strPtr("doorA")},
		{Time: "08:00", NbPeople: 2},
	})
	assert.Contains(t, msg, "Today:")
	assert.Contains(t, msg, "🕒 09:05 👥 7 📍 doorA\n")
	assert.Contains(t, msg, "🕒 08:00 👥 2\n")
}
