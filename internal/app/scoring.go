package app

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/store"
)

// ScoreConfig holds the weighting constants. Dimension weights sum to
// 1.0; roles absent from RoleWeights count with weight 1.0.
type ScoreConfig struct {
	DimensionWeights map[string]float64
	RoleWeights      map[domain.Role]float64
	MinScore         float64
	MaxScore         float64
}

func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		DimensionWeights: map[string]float64{
			"strategy":      0.30,
			"communication": 0.25,
			"innovation":    0.20,
			"teamwork":      0.15,
			"materialUsage": 0.10,
		},
		RoleWeights: map[domain.Role]float64{
			domain.RoleJudge: 1.0,
			domain.RoleSys:   1.0,
			domain.RoleAdmin: 1.0,
			domain.RoleHost:  1.0,
		},
		MinScore: 0,
		MaxScore: 10,
	}
}

// Aggregator accepts weighted multi-dimensional scores and computes
// per-target averages, rankings and the composite score. At most one
// live entry exists per (room, judge, target); resubmission overwrites.
type Aggregator struct {
	mu    sync.Mutex
	store store.Store
	cfg   ScoreConfig
}

func NewAggregator(st store.Store, cfg ScoreConfig) *Aggregator {
	return &Aggregator{store: st, cfg: cfg}
}

// Submit validates and upserts one judge's score for one target.
// Dimension values must name a configured dimension and fall inside
// [MinScore, MaxScore].
func (a *Aggregator) Submit(judge *domain.Participant, target domain.UserID, dims map[string]float64, comments string) (*domain.ScoreEntry, error) {
	if target == "" {
		return nil, domain.ValidationError("target user is required")
	}
	if len(dims) == 0 {
		return nil, domain.ValidationError("at least one dimension score is required")
	}
	for dim, v := range dims {
		if _, ok := a.cfg.DimensionWeights[dim]; !ok {
			return nil, domain.ValidationError("unknown dimension %q", dim)
		}
		if v < a.cfg.MinScore || v > a.cfg.MaxScore {
			return nil, domain.ValidationError("dimension %q out of range [%g,%g]", dim, a.cfg.MinScore, a.cfg.MaxScore)
		}
	}

	entry := &domain.ScoreEntry{
		ID:              uuid.NewString(),
		Room:            judge.RoomID,
		JudgeID:         judge.UserID,
		Role:            judge.Role,
		TargetUserID:    target,
		DimensionScores: dims,
		Comments:        comments,
		Timestamp:       nowISO(),
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.store.UpsertScore(entry); err != nil {
		return nil, domain.StorageError(err)
	}
	return entry, nil
}

func (a *Aggregator) roleWeight(r domain.Role) float64 {
	if w, ok := a.cfg.RoleWeights[r]; ok {
		return w
	}
	return 1.0
}

// weighted collapses one entry's dimension scores into a single value.
func (a *Aggregator) weighted(e *domain.ScoreEntry) float64 {
	sum := 0.0
	for dim, v := range e.DimensionScores {
		sum += v * a.cfg.DimensionWeights[dim]
	}
	return sum
}

// Aggregated computes the role-weighted average per target:
// sum(weighted(entry) * roleWeight) / sum(roleWeight) over all judges.
func (a *Aggregator) Aggregated(room domain.RoomID) ([]*domain.AggregatedScore, error) {
	entries, err := a.store.GetScores(room)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	type acc struct {
		sum, weight float64
		count       int
	}
	byTarget := make(map[domain.UserID]*acc)
	for _, e := range entries {
		t := byTarget[e.TargetUserID]
		if t == nil {
			t = &acc{}
			byTarget[e.TargetUserID] = t
		}
		w := a.roleWeight(e.Role)
		t.sum += a.weighted(e) * w
		t.weight += w
		t.count++
	}
	out := make([]*domain.AggregatedScore, 0, len(byTarget))
	for target, t := range byTarget {
		avg := 0.0
		if t.weight > 0 {
			avg = t.sum / t.weight
		}
		out = append(out, &domain.AggregatedScore{TargetUserID: target, WeightedAverage: avg, JudgeCount: t.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetUserID < out[j].TargetUserID })
	return out, nil
}

// History lists all entries targeting a user, most recent first.
func (a *Aggregator) History(room domain.RoomID, user domain.UserID) ([]*domain.ScoreEntry, error) {
	entries, err := a.store.GetScores(room)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	out := make([]*domain.ScoreEntry, 0)
	for _, e := range entries {
		if e.TargetUserID == user {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

// Ranking sorts targets by weighted average, descending.
func (a *Aggregator) Ranking(room domain.RoomID) ([]*domain.AggregatedScore, error) {
	aggs, err := a.Aggregated(room)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(aggs, func(i, j int) bool { return aggs[i].WeightedAverage > aggs[j].WeightedAverage })
	return aggs, nil
}

// Composite is the mean of every target's weighted average; zero when
// nobody has been scored yet.
func (a *Aggregator) Composite(room domain.RoomID) (float64, error) {
	aggs, err := a.Aggregated(room)
	if err != nil {
		return 0, err
	}
	if len(aggs) == 0 {
		return 0, nil
	}
	sum := 0.0
	for _, agg := range aggs {
		sum += agg.WeightedAverage
	}
	return sum / float64(len(aggs)), nil
}
