package models

// RepeatMode governs behavior at queue end and at individual track end.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// Cycle returns the next mode in the off → all → one → off rotation.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "off"
	}
}

// PlayerState is the small state enum reported by the media backend.
type PlayerState int

const (
	StateUnstarted PlayerState = iota
	StateEnded
	StatePlaying
	StatePaused
	StateBuffering
	StateCued
)

func (s PlayerState) String() string {
	switch s {
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	default:
		return "unstarted"
	}
}
