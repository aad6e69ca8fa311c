package amqp

import (
	"testing"
	"time"
)

func TestNewPaymentSyncMessage(t *testing.T) {
	msg := NewPaymentSyncMessage(42, "1001")
	if msg.Kind != KindPayment {
		t.Errorf("Kind = %q, want %q", msg.Kind, KindPayment)
	}
	if msg.JournalID != 42 || msg.AssessmentNo != "1001" {
		t.Errorf("msg = %+v", msg)
	}
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestSyncMessageJSONRoundTrip(t *testing.T) {
	msg := &SyncMessage{
		Kind:         KindHousehold,
		JournalID:    7,
		AssessmentNo: "2001",
		Timestamp:    time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC),
	}
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	parsed, err := SyncMessageFromJSON(body)
	if err != nil {
		t.Fatalf("SyncMessageFromJSON: %v", err)
	}
	if parsed.Kind != msg.Kind || parsed.JournalID != msg.JournalID ||
		parsed.AssessmentNo != msg.AssessmentNo || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
}

func TestSyncMessageFromJSONRejectsBadInput(t *testing.T) {
	if _, err := SyncMessageFromJSON([]byte(`{"journalId": "nope"}`)); err == nil {
		t.Error("invalid JSON accepted")
	}
	if _, err := SyncMessageFromJSON([]byte(`{"kind":"reboot","journalId":1}`)); err == nil {
		t.Error("unknown kind accepted")
	}
}
