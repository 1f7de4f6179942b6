package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the human-formatted ledger date (day/month/year).
const DateLayout = "02/01/2006"

// Method is a payment method recorded against an entry.
type Method string

const (
	MethodCash   Method = "CASH"
	MethodCard   Method = "CARD"
	MethodPaypal Method = "PAYPAL"
)

// ParseMethod normalizes free-form input to a known method. Unknown values
// fall back to CASH, matching the permissive-input policy for entry fields.
func ParseMethod(s string) Method {
	switch Method(strings.ToUpper(strings.TrimSpace(s))) {
	case MethodCard:
		return MethodCard
	case MethodPaypal:
		return MethodPaypal
	default:
		return MethodCash
	}
}

// UnmarshalJSON normalizes the method on decode so snapshots produced by
// older or foreign writers still land on a known value.
func (m *Method) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*m = MethodCash
		return nil
	}
	*m = ParseMethod(s)
	return nil
}

// OutPartyEntry is a payment recorded against an external party. Index is the
// 1-based display position and is renumbered after every add or delete.
type OutPartyEntry struct {
	ID     string `json:"id"`
	Index  int    `json:"index"`
	Amount Amount `json:"amount"`
	Method Method `json:"method"`
}

// MainEntry is a room/transaction-level ledger line. A single entry may carry
// both an inflow and an outflow.
type MainEntry struct {
	ID          string `json:"id"`
	RoomNo      string `json:"roomNo"`
	Description string `json:"description"`
	Method      Method `json:"method"`
	CashIn      Amount `json:"cashIn"`
	CashOut     Amount `json:"cashOut"`
}

// ExchangeRates are advisory reference rates merged into the snapshot. They
// are not part of the financial totals.
type ExchangeRates struct {
	USD int64 `json:"usd"`
	EUR int64 `json:"eur"`
}

// Snapshot is the complete cashbook state for one ledger period. It is the
// unit of synchronization: devices always replace it wholesale, never patch
// individual fields, so content comparison can stand in for versioning.
type Snapshot struct {
	CurrentDate     string          `json:"currentDate"`
	OutPartyEntries []OutPartyEntry `json:"outPartyEntries"`
	MainEntries     []MainEntry     `json:"mainEntries"`
	ExchangeRates   ExchangeRates   `json:"exchangeRates"`
	OpeningBalance  Amount          `json:"openingBalance"`
}

// NewSnapshot returns an empty ledger for the given date.
func NewSnapshot(date string) *Snapshot {
	return &Snapshot{
		CurrentDate:     date,
		OutPartyEntries: []OutPartyEntry{},
		MainEntries:     []MainEntry{},
	}
}

// Clone returns a deep copy. Mutations always work on a clone so the previous
// value stays comparable by content.
func (s *Snapshot) Clone() *Snapshot {
	dup := *s
	dup.OutPartyEntries = make([]OutPartyEntry, len(s.OutPartyEntries))
	copy(dup.OutPartyEntries, s.OutPartyEntries)
	dup.MainEntries = make([]MainEntry, len(s.MainEntries))
	copy(dup.MainEntries, s.MainEntries)
	return &dup
}

// Canonical returns the deterministic serialized form used for change
// detection. Struct field order is fixed, so two snapshots with equal content
// always produce identical bytes.
func (s *Snapshot) Canonical() []byte {
	b, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return b
}

// Equal reports deep structural equality by canonical form.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return bytes.Equal(s.Canonical(), other.Canonical())
}

// RenumberOutParty reassigns 1-based display indexes in slice order.
func (s *Snapshot) RenumberOutParty() {
	for i := range s.OutPartyEntries {
		s.OutPartyEntries[i].Index = i + 1
	}
}

// Normalize repairs a freshly decoded snapshot: nil entry lists become empty
// and out-party indexes are renumbered.
func (s *Snapshot) Normalize() {
	if s.OutPartyEntries == nil {
		s.OutPartyEntries = []OutPartyEntry{}
	}
	if s.MainEntries == nil {
		s.MainEntries = []MainEntry{}
	}
	s.RenumberOutParty()
}

// DecodeSnapshot parses an untrusted payload into a Snapshot. The payload
// must at least carry the recognizable entry-list fields; anything else is
// reported as absent rather than an error, since malformed remote or cached
// data falls back to the next source in the chain.
func DecodeSnapshot(data []byte) (*Snapshot, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, false
	}
	if _, ok := probe["outPartyEntries"]; !ok {
		return nil, false
	}
	if _, ok := probe["mainEntries"]; !ok {
		return nil, false
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false
	}
	s.Normalize()
	return &s, true
}

// ArchiveRecord is a frozen copy of a snapshot captured at day-end.
type ArchiveRecord struct {
	Date string   `json:"date"`
	Data Snapshot `json:"data"`
}

// MaxArchiveRecords caps the archive list; oldest records drop first.
const MaxArchiveRecords = 100

// NextDate advances a ledger date by exactly one calendar day. Unparseable
// input falls back to today so a corrupt date never blocks day-end.
func NextDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Now().Format(DateLayout)
	}
	return t.AddDate(0, 0, 1).Format(DateLayout)
}

// Today returns the current date in ledger format.
func Today() string {
	return time.Now().Format(DateLayout)
}
