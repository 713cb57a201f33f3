package usecases

import (
	"context"
	"fmt"
	"log"
)

// CountSource provides a live people count, such as a scraped occupancy page
type CountSource interface {
	FetchCount(ctx context.Context) (int32, error)
}

// IngestUseCase records counts read from an external source
type IngestUseCase struct {
	people  *PeopleUseCase
	counter CountSource
	source  string
}

// NewIngestUseCase creates a new ingest use case tagging observations with source
func NewIngestUseCase(people *PeopleUseCase, counter CountSource, source string) *IngestUseCase {
	return &IngestUseCase{
		people:  people,
		counter: counter,
		source:  source,
	}
}

// RefreshCount fetches the current count and appends it to the log
func (uc *IngestUseCase) RefreshCount(ctx context.Context) error {
	log.Println("Starting people count refresh...")

	count, err := uc.counter.FetchCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch people count: %w", err)
	}

	var source *string
	if uc.source != "" {
		source = &uc.source
	}
	item, err := uc.people.Record(ctx, count, source)
	if err != nil {
		return fmt.Errorf("failed to save people count: %w", err)
	}

	log.Printf("Successfully recorded %d people at %s", item.NbPeople, item.Time)
	return nil
}
