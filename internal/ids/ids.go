// Package ids generates the identifiers used across goGuard.
//
//   - request ids: ULID, sortable, monotonic within a millisecond.
//   - incident ids: KSUID, for WAF blocks and error reports.
//   - record ids: UUIDv7, for persisted rows.
//   - event ids: snowflake, for audit events, unique per node.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/ksuid"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// RequestID returns a lexicographically sortable request correlation id.
func RequestID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// IncidentID returns a globally unique id for a security incident.
func IncidentID() string {
	return ksuid.New().String()
}

// RecordID returns a time-ordered UUID for a persisted row.
func RecordID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// EventGenerator issues snowflake ids for one node.
type EventGenerator struct {
	node *snowflake.Node
}

// NewEventGenerator returns a generator for node (0..1023).
func NewEventGenerator(node int64) (*EventGenerator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &EventGenerator{node: n}, nil
}

// Next returns the next event id. A nil generator falls back to a KSUID.
func (g *EventGenerator) Next() string {
	if g == nil || g.node == nil {
		return IncidentID()
	}
	return g.node.Generate().String()
}
