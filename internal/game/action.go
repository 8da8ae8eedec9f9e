package game

// ActionType enumerates the player actions a session accepts.
type ActionType string

const (
	ActionPlaceCard ActionType = "place_card"
	ActionUsePolicy ActionType = "use_policy"
	ActionEndTurn   ActionType = "end_turn"
	ActionGetState  ActionType = "get_state"
)

// Action is one player request against a session. CardID is required for
// place_card and use_policy and ignored otherwise.
type Action struct {
	Type   ActionType `json:"type"`
	CardID string     `json:"cardId,omitempty"`
}

// Validate rejects malformed actions before any state is touched.
func (a Action) Validate() error {
	switch a.Type {
	case ActionPlaceCard, ActionUsePolicy:
		if a.CardID == "" {
			return newError(CodeInvalidAction, "action %s requires cardId", a.Type)
		}
		return nil
	case ActionEndTurn, ActionGetState:
		return nil
	default:
		return newError(CodeInvalidAction, "unknown action type %q", a.Type)
	}
}

// Result is the outcome of a performed action.
type Result struct {
	Session      *Session
	PointsEarned int
	Message      string
	SessionEnded bool
	Ending       *Ending
}
