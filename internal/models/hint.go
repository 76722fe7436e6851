package models

type HintAction string

const (
	HintNoAction HintAction = "NO_ACTION"
	HintSuggest  HintAction = "SUGGEST"
	HintForce    HintAction = "FORCE"
)

type HintTrigger string

const (
	TriggerNone        HintTrigger = ""
	TriggerErrorStreak HintTrigger = "error_streak"
	TriggerIdle        HintTrigger = "idle"
)

const (
	MinHintLevel = 1
	MaxHintLevel = 4
)

// HintDecision is the outcome of one stuck evaluation.
type HintDecision struct {
	Action    HintAction  `json:"action"`
	Level     int         `json:"level"`
	Trigger   HintTrigger `json:"trigger,omitempty"`
	Rationale string      `json:"rationale"`
}

func (d HintDecision) ShouldAct() bool {
	return d.Action == HintSuggest || d.Action == HintForce
}

func NoHint(rationale string) HintDecision {
	return HintDecision{Action: HintNoAction, Rationale: rationale}
}
