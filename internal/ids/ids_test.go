package ids

import (
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/ksuid"
)

func TestRequestID_Monotonic(t *testing.T) {
	prev := RequestID()
	for i := 0; i < 1000; i++ {
		next := RequestID()
		if next <= prev {
			t.Fatalf("request ids not increasing: %s then %s", prev, next)
		}
		if _, err := ulid.ParseStrict(next); err != nil {
			t.Fatalf("invalid ulid %q: %v", next, err)
		}
		prev = next
	}
}

func TestIncidentID(t *testing.T) {
	if _, err := ksuid.Parse(IncidentID()); err != nil {
		t.Fatalf("invalid ksuid: %v", err)
	}
}

func TestRecordID(t *testing.T) {
	id, err := RecordID()
	if err != nil {
		t.Fatalf("RecordID: %v", err)
	}
	u, err := uuid.Parse(id)
	if err != nil || u.Version() != 7 {
		t.Fatalf("expected v7 uuid, got %q (%v)", id, err)
	}
}

func TestEventGenerator(t *testing.T) {
	g, err := NewEventGenerator(7)
	if err != nil {
		t.Fatalf("NewEventGenerator: %v", err)
	}
	seen := make(map[string]struct{}, 500)
	for i := 0; i < 500; i++ {
		id := g.Next()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate event id %s", id)
		}
		seen[id] = struct{}{}
	}

	if _, err := NewEventGenerator(5000); err == nil {
		t.Fatal("node out of range should fail")
	}
	var nilGen *EventGenerator
	if nilGen.Next() == "" {
		t.Fatal("nil generator should still produce an id")
	}
}
