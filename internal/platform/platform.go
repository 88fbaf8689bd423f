// Package platform defines the boundary to the messaging platform. The
// daemon only ever sees these types; the gateway subpackage speaks the wire
// protocol.
package platform

import (
	"context"
	"time"
)

type EventKind string

const (
	EventJoin    EventKind = "join"
	EventLeave   EventKind = "leave"
	EventMessage EventKind = "message"
)

// Event is a live notification from the room: a presence change or a text
// message (used for the admin command surface).
type Event struct {
	Kind        EventKind `json:"kind"`
	Identity    int64     `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Channel     string    `json:"channel,omitempty"`
	Text        string    `json:"text,omitempty"`
	Timestamp   time.Time `json:"ts"`
}

type RosterMember struct {
	Identity    int64  `json:"user_id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Roster is a point-in-time snapshot of the room's voice call. A nil Roster
// means no call is active.
type Roster struct {
	CallID  int64          `json:"call_id"`
	Members []RosterMember `json:"members"`
}

// Entity attaches a decorative asset at a rune offset of the rendered text.
type Entity struct {
	Offset  int   `json:"offset"`
	Length  int   `json:"length"`
	AssetID int64 `json:"asset_id"`
}

type OutboundMessage struct {
	Channel  string   `json:"channel"`
	Text     string   `json:"text"`
	Plain    string   `json:"plain,omitempty"`
	Entities []Entity `json:"entities,omitempty"`
}

// ReferenceMessage is the pinned message that serves as the decorative-asset
// source of truth. AssetIDs preserves attachment order.
type ReferenceMessage struct {
	ID       int64   `json:"id"`
	Text     string  `json:"text"`
	AssetIDs []int64 `json:"asset_ids"`
}

type EventStream interface {
	// Next blocks until an event arrives or ctx is done.
	Next(ctx context.Context) (*Event, error)
}

type RosterPoller interface {
	Roster(ctx context.Context) (*Roster, error)
}

type ReferenceFetcher interface {
	Reference(ctx context.Context) (*ReferenceMessage, error)
}

type Sender interface {
	Send(ctx context.Context, msg *OutboundMessage) (messageID int64, err error)
	ChatID() int64
}
