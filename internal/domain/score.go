package domain

// ScoreEntry is one judge's multi-dimensional score for one target.
// At most one live entry exists per (room, judge, target); a resubmission
// overwrites content and timestamp in place.
type ScoreEntry struct {
	ID              string             `json:"id"`
	Room            RoomID             `json:"room"`
	JudgeID         UserID             `json:"judgeId"`
	Role            Role               `json:"role"`
	TargetUserID    UserID             `json:"targetUserId"`
	DimensionScores map[string]float64 `json:"dimensionScores"`
	Comments        string             `json:"comments,omitempty"`
	Timestamp       string             `json:"timestamp"`
}

// AggregatedScore is the weighted per-target view across all judges.
type AggregatedScore struct {
	TargetUserID    UserID  `json:"targetUserId"`
	WeightedAverage float64 `json:"weightedAverage"`
	JudgeCount      int     `json:"judgeCount"`
}
