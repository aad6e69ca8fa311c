package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message kinds carried on the sync queue.
const (
	KindPayment   = "payment"
	KindHousehold = "household"
)

// SyncMessage tells the worker that one journal entry is waiting for the
// remote register. It carries only ids; the worker loads the full entry
// from the journal.
type SyncMessage struct {
	Kind         string    `json:"kind"`
	JournalID    int64     `json:"journalId"`
	AssessmentNo string    `json:"assessmentNo"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewPaymentSyncMessage(journalID int64, assessmentNo string) *SyncMessage {
	return &SyncMessage{
		Kind:         KindPayment,
		JournalID:    journalID,
		AssessmentNo: assessmentNo,
		Timestamp:    time.Now(),
	}
}

func NewHouseholdSyncMessage(journalID int64, assessmentNo string) *SyncMessage {
	return &SyncMessage{
		Kind:         KindHousehold,
		JournalID:    journalID,
		AssessmentNo: assessmentNo,
		Timestamp:    time.Now(),
	}
}

func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case KindPayment, KindHousehold:
	default:
		return nil, fmt.Errorf("unknown sync message kind %q", msg.Kind)
	}
	return &msg, nil
}
