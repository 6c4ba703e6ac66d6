package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
)

// Service ranks learners by XP on top of a Store.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a leaderboard service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Top returns at most MaxEntries entries ranked by TotalXP descending. Ties
// keep insertion order.
func (s *Service) Top(ctx context.Context) ([]RankedEntry, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}

	ranked := rank(entries)
	if len(ranked) > MaxEntries {
		ranked = ranked[:MaxEntries]
	}
	return ranked, nil
}

// Submit records a submission and returns the submitter's rank over the full
// board after the write.
func (s *Service) Submit(ctx context.Context, sub Submission) (int, error) {
	username := strings.TrimSpace(sub.Username)
	if username == "" || sub.TotalXP < 0 {
		return 0, ErrInvalidSubmission
	}

	level := sub.Level
	if level == "" {
		level = domain.LevelForXP(sub.TotalXP).Name
	}

	entry := Entry{
		Username:          username,
		TotalXP:           sub.TotalXP,
		Level:             level,
		CompletedChapters: sub.CompletedChapters,
		CompletedAt:       sub.CompletedAt,
		SubmittedAt:       s.now().UTC(),
	}
	if err := s.store.Upsert(ctx, entry); err != nil {
		return 0, fmt.Errorf("upsert leaderboard entry: %w", err)
	}

	entries, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list leaderboard: %w", err)
	}

	key := Key(username)
	r, ok := lo.Find(rank(entries), func(e RankedEntry) bool { return e.Key() == key })
	if !ok {
		return 0, fmt.Errorf("entry %q missing after upsert", username)
	}

	s.logger.Info("leaderboard submission", "username", username, "total_xp", sub.TotalXP, "rank", r.Rank)
	return r.Rank, nil
}

func rank(entries []Entry) []RankedEntry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalXP > sorted[j].TotalXP
	})
	return lo.Map(sorted, func(e Entry, i int) RankedEntry {
		return RankedEntry{Entry: e, Rank: i + 1}
	})
}
