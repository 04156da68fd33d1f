package domain

// TimerState is the externally visible snapshot of a room countdown.
// RemainingTime never goes below zero and never increases while running.
type TimerState struct {
	Room          RoomID `json:"room"`
	RemainingTime int    `json:"remainingTime"`
	InitialTime   int    `json:"initialTime"`
	Running       bool   `json:"running"`
}
