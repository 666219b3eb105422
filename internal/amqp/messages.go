package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"planner/internal/core"
)

// LedgerChangedMessage announces that a month's ledger was persisted. It
// carries no ledger data; consumers reload the month from storage.
type LedgerChangedMessage struct {
	Month     core.MonthKey `json:"month"`
	Operation string        `json:"operation"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewLedgerChangedMessage(month core.MonthKey, op string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Month:     month,
		Operation: op,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message and rejects unknown months.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Month.Valid() {
		return nil, fmt.Errorf("message month %q: %w", msg.Month, core.ErrInvalidMonthKey)
	}
	return &msg, nil
}
