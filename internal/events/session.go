package events

// Event type constants for configuration session events.
const (
	TypeSessionCreated       = "session_created"
	TypeSessionClosed        = "session_closed"
	TypeDefinitionUpdated    = "definition_updated"
	TypeOptionSelected       = "option_selected"
	TypeDimensionsUpdated    = "dimensions_updated"
	TypeVisualizationRefresh = "visualization_refresh"
	TypeFallbackEntered      = "fallback_entered"
)

// SessionCreatedEvent is emitted when a configuration session starts.
type SessionCreatedEvent struct {
	BaseEvent
	ModelCode string `json:"model_code"`
	ModelGUID string `json:"model_guid"`
}

// NewSessionCreatedEvent creates a new session created event.
func NewSessionCreatedEvent(sessionID, modelCode, modelGUID string) SessionCreatedEvent {
	return SessionCreatedEvent{
		BaseEvent: NewBaseEvent(TypeSessionCreated, sessionID),
		ModelCode: modelCode,
		ModelGUID: modelGUID,
	}
}

// SessionClosedEvent is emitted when a session is torn down.
type SessionClosedEvent struct {
	BaseEvent
}

// NewSessionClosedEvent creates a new session closed event.
func NewSessionClosedEvent(sessionID string) SessionClosedEvent {
	return SessionClosedEvent{BaseEvent: NewBaseEvent(TypeSessionClosed, sessionID)}
}

// DefinitionUpdatedEvent is emitted after a successful definition refresh.
type DefinitionUpdatedEvent struct {
	BaseEvent
	Name        string `json:"name"`
	OptionCount int    `json:"option_count"`
}

// NewDefinitionUpdatedEvent creates a new definition updated event.
func NewDefinitionUpdatedEvent(sessionID, name string, optionCount int) DefinitionUpdatedEvent {
	return DefinitionUpdatedEvent{
		BaseEvent:   NewBaseEvent(TypeDefinitionUpdated, sessionID),
		Name:        name,
		OptionCount: optionCount,
	}
}

// OptionSelectedEvent is emitted when an option value is chosen. Emitted on
// the optimistic local write, before the vendor round trip completes.
type OptionSelectedEvent struct {
	BaseEvent
	Code  string `json:"code"`
	Value string `json:"value"`
}

// NewOptionSelectedEvent creates a new option selected event.
func NewOptionSelectedEvent(sessionID, code, value string) OptionSelectedEvent {
	return OptionSelectedEvent{
		BaseEvent: NewBaseEvent(TypeOptionSelected, sessionID),
		Code:      code,
		Value:     value,
	}
}

// DimensionsUpdatedEvent is emitted after the dimension map is replaced.
type DimensionsUpdatedEvent struct {
	BaseEvent
	Count int `json:"count"`
}

// NewDimensionsUpdatedEvent creates a new dimensions updated event.
func NewDimensionsUpdatedEvent(sessionID string, count int) DimensionsUpdatedEvent {
	return DimensionsUpdatedEvent{
		BaseEvent: NewBaseEvent(TypeDimensionsUpdated, sessionID),
		Count:     count,
	}
}

// VisualizationRefreshEvent tells viewers to re-render the model.
type VisualizationRefreshEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

// NewVisualizationRefreshEvent creates a new visualization refresh event.
func NewVisualizationRefreshEvent(sessionID, reason string) VisualizationRefreshEvent {
	return VisualizationRefreshEvent{
		BaseEvent: NewBaseEvent(TypeVisualizationRefresh, sessionID),
		Reason:    reason,
	}
}

// FallbackEnteredEvent is emitted when a session gives up on remote
// definition refreshes and keeps serving its last known tree.
type FallbackEnteredEvent struct {
	BaseEvent
	Error string `json:"error"`
}

// NewFallbackEnteredEvent creates a new fallback entered event.
func NewFallbackEnteredEvent(sessionID string, err error) FallbackEnteredEvent {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	return FallbackEnteredEvent{
		BaseEvent: NewBaseEvent(TypeFallbackEntered, sessionID),
		Error:     errStr,
	}
}
