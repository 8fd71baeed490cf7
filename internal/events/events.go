// Package events implements the event/log sink external collaborator
// assumed by the geyser core: a
// write-only append interface whose emission failure is never
// surfaced back to the caller. It carries no delivery channels,
// retries, or rate limiting — those concerns belong to a real
// notification layer sitting downstream of this sink, not to the
// engine itself.
package events

import (
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ham-Protocol/ham-geyser/internal/geyser"
)

// Kind identifies an emitted event's type.
type Kind string

const (
	KindStaked               Kind = "Staked"
	KindUnstaked             Kind = "Unstaked"
	KindTokensClaimed        Kind = "TokensClaimed"
	KindTokensLocked         Kind = "TokensLocked"
	KindTokensUnlocked       Kind = "TokensUnlocked"
	KindOwnershipTransferred Kind = "OwnershipTransferred"
)

// Event is one append-only record (amounts, user, and the
// opaque passthrough `data`). CorrelationID lets downstream consumers
// (metrics, a durable log) join an event back to the HTTP request or
// batch job that produced it, even when the caller supplied empty
// `data`.
type Event struct {
	Kind          Kind
	User          geyser.Address
	NewOwner      geyser.Address
	Amount        *big.Int
	Total         *big.Int
	Duration      int64
	Data          []byte
	CorrelationID string
	Timestamp     time.Time
}

// Sink is an in-memory, append-only implementation of
// geyser.EventSink. It never blocks the engine and never returns an
// error to it. Events are kept in memory and written to the logger
// only; nothing in this module persists them.
type Sink struct {
	mu     sync.Mutex
	events []Event
	logger *log.Logger
}

// NewSink creates an event sink. A nil logger falls back to the
// standard logger.
func NewSink(logger *log.Logger) *Sink {
	if logger == nil {
		logger = log.Default()
	}
	return &Sink{logger: logger}
}

func (s *Sink) append(e Event) {
	if e.CorrelationID == "" {
		e.CorrelationID = uuid.NewString()
	}
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	s.logger.Printf("geyser event: %s user=%s amount=%v total=%v correlation_id=%s", e.Kind, e.User, e.Amount, e.Total, e.CorrelationID)
}

// All returns every event appended so far, oldest first.
func (s *Sink) All() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Sink) EmitStaked(user geyser.Address, amount, total *big.Int, data []byte) {
	s.append(Event{Kind: KindStaked, User: user, Amount: amount, Total: total, Data: data, Timestamp: time.Now()})
}

func (s *Sink) EmitUnstaked(user geyser.Address, amount, total *big.Int, data []byte) {
	s.append(Event{Kind: KindUnstaked, User: user, Amount: amount, Total: total, Data: data, Timestamp: time.Now()})
}

func (s *Sink) EmitTokensClaimed(user geyser.Address, amount *big.Int) {
	s.append(Event{Kind: KindTokensClaimed, User: user, Amount: amount, Timestamp: time.Now()})
}

func (s *Sink) EmitTokensLocked(amount, totalLocked *big.Int, durationSeconds int64) {
	s.append(Event{Kind: KindTokensLocked, Amount: amount, Total: totalLocked, Duration: durationSeconds, Timestamp: time.Now()})
}

func (s *Sink) EmitTokensUnlocked(amount, totalUnlocked *big.Int) {
	s.append(Event{Kind: KindTokensUnlocked, Amount: amount, Total: totalUnlocked, Timestamp: time.Now()})
}

func (s *Sink) EmitOwnershipTransferred(previousOwner, newOwner geyser.Address) {
	s.append(Event{Kind: KindOwnershipTransferred, User: previousOwner, NewOwner: newOwner, Timestamp: time.Now()})
}
