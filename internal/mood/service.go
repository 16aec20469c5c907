package mood

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mlawrence427/claritynest-backend/internal/domain"
)

const (
	minValue   = 1
	maxValue   = 10
	maxNoteLen = 500
	maxTags    = 20
)

// NetWorther provides the point-in-time net worth captured on each check-in.
// Satisfied by the ledger service.
type NetWorther interface {
	NetWorth(ctx context.Context, userID uuid.UUID, includeArchived bool) (decimal.Decimal, error)
}

// Service owns mood check-ins and their analytics.
type Service struct {
	store  Store
	ledger NetWorther
}

func NewService(store Store, ledger NetWorther) *Service {
	return &Service{store: store, ledger: ledger}
}

type CreateInput struct {
	Value      int
	Tags       []string
	Note       *string
	Weather    *string
	SleepHours *float64
	Exercised  *bool
	// EntryDate defaults to now when zero.
	EntryDate time.Time
}

// Create records a check-in. The net-worth snapshot is best effort: a ledger
// failure leaves the snapshot nil rather than failing the check-in.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (Entry, error) {
	if err := validate(in.Value, in.Tags, in.Note); err != nil {
		return Entry{}, err
	}

	date := in.EntryDate
	if date.IsZero() {
		date = time.Now().UTC()
	}

	now := time.Now().UTC()
	e := Entry{
		ID:         uuid.New(),
		UserID:     userID,
		Value:      in.Value,
		Tags:       normalizeTags(in.Tags),
		Note:       in.Note,
		Weather:    in.Weather,
		SleepHours: in.SleepHours,
		Exercised:  in.Exercised,
		EntryDate:  date,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if s.ledger != nil {
		if net, err := s.ledger.NetWorth(ctx, userID, false); err == nil {
			e.NetWorthSnapshot = &net
		}
	}

	if err := s.store.Insert(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, userID, entryID uuid.UUID) (Entry, error) {
	return s.store.Get(ctx, userID, entryID)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, f Filter) ([]Entry, int, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.List(ctx, userID, f)
}

type UpdateInput struct {
	Value      *int
	Tags       []string
	Note       *string
	Weather    *string
	SleepHours *float64
	Exercised  *bool
	EntryDate  *time.Time
}

// Update edits a check-in in place. The net-worth snapshot is never rewritten;
// it records the finances at the original moment.
func (s *Service) Update(ctx context.Context, userID, entryID uuid.UUID, in UpdateInput) (Entry, error) {
	e, err := s.store.Get(ctx, userID, entryID)
	if err != nil {
		return Entry{}, err
	}
	if in.Value != nil {
		if *in.Value < minValue || *in.Value > maxValue {
			return Entry{}, fmt.Errorf("%w: mood value must be between %d and %d", domain.ErrValidation, minValue, maxValue)
		}
		e.Value = *in.Value
	}
	if in.Tags != nil {
		if len(in.Tags) > maxTags {
			return Entry{}, fmt.Errorf("%w: at most %d tags", domain.ErrValidation, maxTags)
		}
		e.Tags = normalizeTags(in.Tags)
	}
	if in.Note != nil {
		if len(*in.Note) > maxNoteLen {
			return Entry{}, fmt.Errorf("%w: note exceeds %d characters", domain.ErrValidation, maxNoteLen)
		}
		e.Note = in.Note
	}
	if in.Weather != nil {
		e.Weather = in.Weather
	}
	if in.SleepHours != nil {
		e.SleepHours = in.SleepHours
	}
	if in.Exercised != nil {
		e.Exercised = in.Exercised
	}
	if in.EntryDate != nil {
		e.EntryDate = *in.EntryDate
	}
	e.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	return s.store.Delete(ctx, userID, entryID)
}

// Analyze computes average, count and the top-10 tag frequencies over the
// trailing window.
func (s *Service) Analyze(ctx context.Context, userID uuid.UUID, days int) (Analytics, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	entries, err := s.store.Since(ctx, userID, cutoff)
	if err != nil {
		return Analytics{}, err
	}
	return Summarize(entries), nil
}

// Summarize is the pure analytics computation over a set of entries.
func Summarize(entries []Entry) Analytics {
	if len(entries) == 0 {
		return Analytics{}
	}

	sum := 0
	freq := make(map[string]int)
	for _, e := range entries {
		sum += e.Value
		for _, tag := range e.Tags {
			freq[tag]++
		}
	}

	tags := make([]TagCount, 0, len(freq))
	for tag, n := range freq {
		tags = append(tags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > 10 {
		tags = tags[:10]
	}

	return Analytics{
		Average: float64(sum) / float64(len(entries)),
		Count:   len(entries),
		TopTags: tags,
	}
}

func validate(value int, tags []string, note *string) error {
	if value < minValue || value > maxValue {
		return fmt.Errorf("%w: mood value must be between %d and %d", domain.ErrValidation, minValue, maxValue)
	}
	if len(tags) > maxTags {
		return fmt.Errorf("%w: at most %d tags", domain.ErrValidation, maxTags)
	}
	if note != nil && len(*note) > maxNoteLen {
		return fmt.Errorf("%w: note exceeds %d characters", domain.ErrValidation, maxNoteLen)
	}
	return nil
}

// normalizeTags lowercases, trims and dedupes while keeping first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
