// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/abelzeko/people-counter/internal/entities"
	"github.com/abelzeko/people-counter/internal/integration/openai"
	"github.com/abelzeko/people-counter/internal/repository"
)

// DateLayout is the calendar date format accepted by the day-scoped queries
const DateLayout = "2006-01-02"

// ErrInvalidArgument is returned when a caller-supplied argument is malformed
var ErrInvalidArgument = errors.New("invalid argument")

// PeopleUseCase answers the time-windowed queries over the observation log.
// Day boundaries and rendered times use loc, the store's time zone.
//
// Day-scoped queries return every matching row with no cap; daily volume is
// expected to stay small.
type PeopleUseCase struct {
	repo          repository.ObservationRepository
	loc           *time.Location
	openAIService openai.OpenAIService
}

// NewPeopleUseCase creates a new people use case. openAIService may be nil,
// in which case free-text questions are not interpreted.
func NewPeopleUseCase(repo repository.ObservationRepository, loc *time.Location, openAIService openai.OpenAIService) *PeopleUseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &PeopleUseCase{
		repo:          repo,
		loc:           loc,
		openAIService: openAIService,
	}
}

// Location returns the time zone used for day boundaries
func (uc *PeopleUseCase) Location() *time.Location {
	return uc.loc
}

// Record appends a new observation and returns it as an Item
func (uc *PeopleUseCase) Record(ctx context.Context, nbPeople int32, source *string) (entities.Item, error) {
	obs, err := uc.repo.Append(ctx, nbPeople, source)
	if err != nil {
		return entities.Item{}, err
	}
	log.Printf("Recorded %d people at %s", obs.NbPeople, obs.Time.In(uc.loc).Format(time.RFC3339))
	return obs.ToItem(uc.loc), nil
}

// Latest returns the n most recent observations, newest first.
// n <= 0 yields an empty result.
func (uc *PeopleUseCase) Latest(ctx context.Context, n int) ([]entities.Item, error) {
	if n <= 0 {
		return []entities.Item{}, nil
	}
	observations, err := uc.repo.QueryLatest(ctx, n)
	if err != nil {
		return nil, err
	}
	return uc.toItems(observations), nil
}

// Day returns every observation of the given calendar date, newest first
func (uc *PeopleUseCase) Day(ctx context.Context, date string) ([]entities.Item, error) {
	start, err := uc.parseDate(date)
	if err != nil {
		return nil, err
	}
	return uc.window(ctx, start)
}

// Today returns the observations of the store's current calendar day
func (uc *PeopleUseCase) Today(ctx context.Context) ([]entities.Item, error) {
	today, err := uc.today(ctx)
	if err != nil {
		return nil, err
	}
	return uc.window(ctx, today)
}

// Yesterday returns the observations of the day before the store's current day
func (uc *PeopleUseCase) Yesterday(ctx context.Context) ([]entities.Item, error) {
	today, err := uc.today(ctx)
	if err != nil {
		return nil, err
	}
	return uc.window(ctx, addDays(today, -1))
}

// HourlyTotals returns the per-hour sums of the given calendar date in
// ascending hour order, one entry per wall-clock hour. Hours without
// observations are absent.
func (uc *PeopleUseCase) HourlyTotals(ctx context.Context, date string) ([]entities.Item, error) {
	start, err := uc.parseDate(date)
	if err != nil {
		return nil, err
	}

	buckets, err := uc.repo.QueryHourBuckets(ctx, start, addDays(start, 1), uc.loc)
	if err != nil {
		return nil, err
	}

	// The repeated hour of a daylight-saving fall-back arrives as two
	// consecutive buckets with the same wall-clock label.
	items := make([]entities.Item, 0, len(buckets))
	for _, b := range buckets {
		item := b.ToItem(uc.loc)
		if n := len(items); n > 0 && items[n-1].Time == item.Time {
			items[n-1].NbPeople += item.NbPeople
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (uc *PeopleUseCase) window(ctx context.Context, start time.Time) ([]entities.Item, error) {
	observations, err := uc.repo.QueryRange(ctx, start, addDays(start, 1))
	if err != nil {
		return nil, err
	}
	return uc.toItems(observations), nil
}

func (uc *PeopleUseCase) today(ctx context.Context) (time.Time, error) {
	now, err := uc.repo.Now(ctx)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := now.In(uc.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, uc.loc), nil
}

func (uc *PeopleUseCase) parseDate(date string) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, date, uc.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be formatted as YYYY-MM-DD", ErrInvalidArgument, date)
	}
	return day, nil
}

func (uc *PeopleUseCase) toItems(observations []entities.Observation) []entities.Item {
	items := make([]entities.Item, 0, len(observations))
	for _, o := range observations {
		items = append(items, o.ToItem(uc.loc))
	}
	return items
}

// addDays moves to midnight n calendar days away, so days spanning a DST
// change keep their 23 or 25 hours.
func addDays(midnight time.Time, n int) time.Time {
	y, m, d := midnight.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, midnight.Location())
}
