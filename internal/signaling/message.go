package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformed is returned when a message does not match the schema of its type.
var ErrMalformed = errors.New("malformed message")

// ErrUnknownType is returned for messages whose type is not part of the protocol.
var ErrUnknownType = errors.New("unknown message type")

// MessageType identifies the payload carried by a Message.
type MessageType string

const (
	TypeWelcome          MessageType = "welcome"
	TypeJoinRoom         MessageType = "join-room"
	TypePeerJoined       MessageType = "peer-joined"
	TypeSignal           MessageType = "signal"
	TypeTransferComplete MessageType = "transfer-complete"
	TypeTransferLogged   MessageType = "transfer-logged"
	TypeError            MessageType = "error"
)

// Message is the frame exchanged over the signaling websocket in both
// directions. Payload is decoded according to Type by Decode.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SignalKind classifies the negotiation data carried by a SignalEnvelope.
type SignalKind string

const (
	KindOffer        SignalKind = "offer"
	KindAnswer       SignalKind = "answer"
	KindICECandidate SignalKind = "ice-candidate"
	KindGeneric      SignalKind = "generic"
)

func (k SignalKind) valid() bool {
	switch k {
	case KindOffer, KindAnswer, KindICECandidate, KindGeneric:
		return true
	}
	return false
}

// Welcome is sent by the hub right after the websocket upgrade and carries
// the connection id the hub assigned.
type Welcome struct {
	PeerID string `json:"peerId"`
}

// JoinRoom asks the hub to add the sending connection to a room.
type JoinRoom struct {
	RoomID string          `json:"roomId"`
	Meta   json.RawMessage `json:"meta,omitempty"`
}

// PeerJoined announces a new member to the other members of a room.
type PeerJoined struct {
	PeerID string          `json:"peerId"`
	Meta   json.RawMessage `json:"meta,omitempty"`
}

// SignalEnvelope carries negotiation data between peers. Data is opaque to
// the hub. When To is set the envelope is unicast, otherwise it is broadcast
// to every other member of RoomID.
type SignalEnvelope struct {
	RoomID string          `json:"roomId"`
	From   string          `json:"from,omitempty"`
	To     string          `json:"to,omitempty"`
	Kind   SignalKind      `json:"kind"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// OutcomeStatus is the terminal state of a transfer.
type OutcomeStatus string

const (
	StatusCompleted OutcomeStatus = "completed"
	StatusFailed    OutcomeStatus = "failed"
)

// TransferOutcome is the record a peer submits once a transfer ends.
type TransferOutcome struct {
	RoomID      string        `json:"roomId"`
	FromPeer    string        `json:"fromPeerId"`
	ToPeer      string        `json:"toPeerId"`
	Filename    string        `json:"filename"`
	Filesize    int64         `json:"filesize"`
	StartedAt   time.Time     `json:"startedAt,omitzero"`
	CompletedAt time.Time     `json:"completedAt"`
	Status      OutcomeStatus `json:"status"`
	Reason      string        `json:"reason,omitempty"`
}

// TransferLogged acknowledges a reported outcome to the whole room.
type TransferLogged struct {
	ID int64 `json:"id"`
}

// ErrorPayload is an informational error sent by the hub.
type ErrorPayload struct {
	Error string `json:"error"`
}

// NewMessage marshals payload and wraps it in a Message of type t.
func NewMessage(t MessageType, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Message{Type: t, Payload: data}, nil
}

// MustMessage is NewMessage for payloads that always marshal.
func MustMessage(t MessageType, payload any) Message {
	msg, err := NewMessage(t, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Decode unmarshals the payload into the concrete type for m.Type and
// validates it. The returned value is one of *Welcome, *JoinRoom,
// *PeerJoined, *SignalEnvelope, *TransferOutcome, *TransferLogged or
// *ErrorPayload.
func (m Message) Decode() (any, error) {
	var v interface{ validate() error }

	switch m.Type {
	case TypeWelcome:
		v = &Welcome{}
	case TypeJoinRoom:
		v = &JoinRoom{}
	case TypePeerJoined:
		v = &PeerJoined{}
	case TypeSignal:
		v = &SignalEnvelope{}
	case TypeTransferComplete:
		v = &TransferOutcome{}
	case TypeTransferLogged:
		v = &TransferLogged{}
	case TypeError:
		v = &ErrorPayload{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}

	if len(m.Payload) == 0 {
		return nil, fmt.Errorf("%w: %s without payload", ErrMalformed, m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, m.Type, err)
	}
	if err := v.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, m.Type, err)
	}
	return v, nil
}

func (w *Welcome) validate() error {
	if w.PeerID == "" {
		return errors.New("missing peerId")
	}
	return nil
}

func (j *JoinRoom) validate() error {
	if j.RoomID == "" {
		return errors.New("missing roomId")
	}
	return nil
}

func (p *PeerJoined) validate() error {
	if p.PeerID == "" {
		return errors.New("missing peerId")
	}
	return nil
}

func (s *SignalEnvelope) validate() error {
	if s.RoomID == "" {
		return errors.New("missing roomId")
	}
	if !s.Kind.valid() {
		return fmt.Errorf("invalid kind %q", s.Kind)
	}
	return nil
}

func (o *TransferOutcome) validate() error {
	if o.RoomID == "" {
		return errors.New("missing roomId")
	}
	if o.Filename == "" {
		return errors.New("missing filename")
	}
	if o.Filesize < 0 {
		return errors.New("negative filesize")
	}
	switch o.Status {
	case StatusCompleted, StatusFailed:
	default:
		return fmt.Errorf("invalid status %q", o.Status)
	}
	return nil
}

func (t *TransferLogged) validate() error { return nil }

func (e *ErrorPayload) validate() error { return nil }
