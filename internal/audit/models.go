package audit

import "time"

// Action names the registry mutation an event describes.
type Action string

const (
	ActionRecordCreated         Action = "record_created"
	ActionRecordUpdated         Action = "record_updated"
	ActionInstitutionRegistered Action = "institution_registered"
	ActionInstitutionVerified   Action = "institution_verified"
	ActionMembershipAssigned    Action = "membership_assigned"
)

// Event is emitted from domain logic after a successful mutation. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    Action    `json:"action"`
	Subject   string    `json:"subject"`
	RequestID string    `json:"request_id,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}
