package zone

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BaseTopic is the default MQTT topic prefix for the zone bus.
const BaseTopic = "socos/v1"

// CommandEnvelope is the common controller command envelope.
type CommandEnvelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	TS      int64           `json:"ts"`
	From    string          `json:"from"`
	ReplyTo string          `json:"replyTo,omitempty"`
	Body    json.RawMessage `json:"body"`
}

// ReplyEnvelope is the response envelope for commands.
type ReplyEnvelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	OK   bool            `json:"ok"`
	TS   int64           `json:"ts"`
	Body json.RawMessage `json:"body,omitempty"`
	Err  *ReplyError     `json:"err,omitempty"`
}

// ReplyError describes a command rejected by a zone player.
type ReplyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ReplyError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Reply error codes.
const (
	CodeInvalid     = "INVALID"
	CodeNotFound    = "NOT_FOUND"
	CodeIllegalSeek = "ILLEGAL_SEEK"
	CodeUnsupported = "UNSUPPORTED"
)

// Presence is the retained announcement of a zone player.
type Presence struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Model       string `json:"model,omitempty"`
	UID         string `json:"uid,omitempty"`
	Coordinator string `json:"coordinator,omitempty"`
	TS          int64  `json:"ts"`
}

// IsCoordinator reports whether the zone coordinates its own group.
func (p Presence) IsCoordinator() bool {
	return p.Coordinator == "" || p.Coordinator == p.Address
}

// NewCommand builds a command envelope with a JSON body.
func NewCommand(cmdType string, body any) (CommandEnvelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return CommandEnvelope{}, fmt.Errorf("marshal body: %w", err)
	}

	return CommandEnvelope{
		Type: cmdType,
		Body: payload,
	}, nil
}

// NewReply builds a successful reply for cmd.
func NewReply(cmd CommandEnvelope, ts int64, body any) (ReplyEnvelope, error) {
	reply := ReplyEnvelope{ID: cmd.ID, Type: "ack", OK: true, TS: ts}
	if body == nil {
		return reply, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return ReplyEnvelope{}, fmt.Errorf("marshal reply: %w", err)
	}
	reply.Body = payload
	return reply, nil
}

// NewErrorReply builds a failed reply for cmd.
func NewErrorReply(cmd CommandEnvelope, ts int64, code string, message string) ReplyEnvelope {
	return ReplyEnvelope{
		ID:   cmd.ID,
		Type: "error",
		OK:   false,
		TS:   ts,
		Err:  &ReplyError{Code: code, Message: message},
	}
}

// ValidateCommandEnvelope validates required fields.
func ValidateCommandEnvelope(cmd CommandEnvelope) error {
	if strings.TrimSpace(cmd.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(cmd.Type) == "" {
		return errors.New("type is required")
	}
	if cmd.TS <= 0 {
		return errors.New("ts must be a positive unix timestamp")
	}
	if strings.TrimSpace(cmd.From) == "" {
		return errors.New("from is required")
	}
	if len(cmd.Body) == 0 {
		return errors.New("body is required")
	}
	if !KnownCommand(cmd.Type) {
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}
	return nil
}

// KnownCommand reports whether cmdType is part of the protocol.
func KnownCommand(cmdType string) bool {
	switch cmdType {
	case CmdPlay, CmdPause, CmdStop, CmdNext, CmdPrevious, CmdPlayFromQueue:
		return true
	case CmdTransportInfo, CmdGetPlayMode, CmdSetPlayMode:
		return true
	case CmdRenderingGet, CmdRenderingSet:
		return true
	case CmdTrackCurrent, CmdQueueGet, CmdQueueAdd, CmdQueueRemove, CmdQueueClear:
		return true
	case CmdDeviceInfo, CmdPartyMode, CmdLibraryItems:
		return true
	default:
		return false
	}
}

// TopicPresence builds the presence topic for a zone.
func TopicPresence(topicBase, address string) string {
	return fmt.Sprintf("%s/zone/%s/presence", topicBase, address)
}

// TopicPresenceWildcard matches every zone presence topic.
func TopicPresenceWildcard(topicBase string) string {
	return fmt.Sprintf("%s/zone/+/presence", topicBase)
}

// TopicCommands builds the command topic for a zone.
func TopicCommands(topicBase, address string) string {
	return fmt.Sprintf("%s/zone/%s/cmd", topicBase, address)
}

// TopicReply builds the reply topic for a controller instance.
func TopicReply(topicBase, controllerID string) string {
	return fmt.Sprintf("%s/reply/%s", topicBase, controllerID)
}
