package events

import (
	"time"

	"github.com/google/uuid"
)

const EventTypeActionRecorded = "registry.action_recorded"

// Action tags carried by ActionRecordedEvent.
const (
	ActionLogin       = "Connexion"
	ActionLogout      = "Déconnexion"
	ActionHire        = "Recrutement"
	ActionEdit        = "Modification"
	ActionDepart      = "Départ"
	ActionReintegrate = "Réintégration"
	ActionDelete      = "Suppression"
)

// ActionRecordedEvent is published once per completed user action and ends up
// as a row of the activity log.
type ActionRecordedEvent struct {
	BaseEvent
	Actor   string `json:"actor"`
	Action  string `json:"action"`
	Details string `json:"details"`
}

func NewActionRecordedEvent(actor, action, details string) *ActionRecordedEvent {
	return &ActionRecordedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeActionRecorded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"actor":   actor,
				"action":  action,
				"details": details,
			},
		},
		Actor:   actor,
		Action:  action,
		Details: details,
	}
}
