package domain

import "encoding/json"

// Identifiers are distinct types so one cannot be passed where another is expected.
type (
	AppointmentID string
	SessionID     string
	SessionKey    string
	MeetingID     string
	AgentID       string
)

// Envelope is the gateway's response wrapper. It is passed through as
// received; nothing here validates Success against Data or Error.
type Envelope[T any] struct {
	Success bool            `json:"success"`
	Code    json.RawMessage `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    T               `json:"data"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// Config is the per-appointment video session configuration.
type Config struct {
	AppointmentID AppointmentID   `json:"appointmentId"`
	CustomerName  string          `json:"customerName,omitempty"`
	Status        string          `json:"status,omitempty"`
	ServerURL     string          `json:"serverUrl,omitempty"`
	ICEServers    json.RawMessage `json:"iceServers,omitempty"`
	Extra         json.RawMessage `json:"extra,omitempty"`
}

// Meeting is the room allocated for a video call.
type Meeting struct {
	MeetingID  MeetingID  `json:"meetingId"`
	SessionID  SessionID  `json:"sessionId"`
	SessionKey SessionKey `json:"sessionKey"`
	Token      string     `json:"token,omitempty"`
	RoomURL    string     `json:"roomUrl,omitempty"`
	AgentID    *AgentID   `json:"agentId,omitempty"`
}

// SubmitResult is the gateway's answer to an appointment submission.
type SubmitResult struct {
	AppointmentID AppointmentID `json:"id"`
	Status        string        `json:"status,omitempty"`
	QueuePosition *int          `json:"queuePosition,omitempty"`
}

// Contract is one document the customer is asked to review.
type Contract struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	URL        string `json:"url,omitempty"`
	Confirmed  bool   `json:"confirmed"`
	CreatedAt  string `json:"createdAt,omitempty"`
	ContractNo string `json:"contractNo,omitempty"`
}

// ContractURL points at the rendered contract bundle for a session.
type ContractURL struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// Ack is the data of acknowledgement-only responses. The gateway may send
// anything or nothing here.
type Ack = json.RawMessage
