package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/partnerships/core"
	"github.com/trezcool/partnerships/core/partnership"
)

func CreatePartner(
	t *testing.T,
	repo partnership.Repository,
	name, code, country string,
	isValid bool,
	createdAt ...time.Time,
) partnership.Partner {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	p, err := repo.CreatePartner(context.Background(), partnership.Partner{
		Name:      name,
		Code:      code,
		Type:      partnership.PartnerTypeUniversity,
		Country:   country,
		IsValid:   isValid,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreatePartner() failed: %v", err)
	}
	return p
}

func CreatePartnership(
	t *testing.T,
	repo partnership.Repository,
	partnerID, entity string,
	years []int,
	createdAt ...time.Time,
) partnership.Partnership {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	p, err := repo.CreatePartnership(context.Background(), partnership.Partnership{
		PartnerID: partnerID,
		Entity:    entity,
		Type:      partnership.TypeMobility,
		Years:     years,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreatePartnership() failed: %v", err)
	}
	return p
}

func CreateAgreement(
	t *testing.T,
	repo partnership.Repository,
	partnershipID string,
	start, end int,
	status string,
) partnership.Agreement {
	now := time.Now().UTC()
	a, err := repo.CreateAgreement(context.Background(), partnership.Agreement{
		PartnershipID: partnershipID,
		StartYear:     start,
		EndYear:       end,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateAgreement() failed: %v", err)
	}
	return a
}

// YearsBetween returns every year from first to last, inclusive.
func YearsBetween(first, last int) []int {
	years := make([]int, 0, last-first+1)
	for y := first; y <= last; y++ {
		years = append(years, y)
	}
	return years
}

// Logger records log entries in memory.
type Logger struct {
	mu      sync.Mutex
	entries []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	l.entries = append(l.entries, fmt.Sprintf("%s: %s", level, msg))
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }

func (l *Logger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// Events records published events in memory.
type Events struct {
	mu     sync.Mutex
	events []core.Event
	Err    error // returned by Publish when set
}

var _ core.EventPublisher = (*Events)(nil)

func (e *Events) Publish(_ context.Context, evt core.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.events = append(e.events, evt)
	return nil
}

func (e *Events) Published() []core.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.Event(nil), e.events...)
}
