package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrChannelNotRegistered возвращается для канала без отправителя.
	// Это детерминированный failed, а не тихий no-op.
	ErrChannelNotRegistered = errors.New("channel has no registered sender")

	// ErrNoContact возвращается, когда у получателя нет контакта для канала.
	ErrNoContact = errors.New("recipient has no contact for channel")
)

// Message — то, что ядро знает о доставке: кому, про какую заявку и куда.
// Сам транспорт (SMTP, SMS-шлюз) остаётся внешним коллаборатором.
type Message struct {
	UserID       uuid.UUID
	Email        string
	ReportID     uuid.UUID
	VisaType     string
	Consulate    string
	EarliestDate time.Time
	LatestDate   *time.Time
}

// Subject строит тему оповещения.
func (m Message) Subject() string {
	return fmt.Sprintf("Visa Slot Alert: %s at %s", m.VisaType, m.Consulate)
}

// DateRange форматирует доступный диапазон дат.
func (m Message) DateRange() string {
	earliest := m.EarliestDate.Format("2006-01-02")
	if m.LatestDate == nil {
		return earliest
	}
	latest := m.LatestDate.Format("2006-01-02")
	if latest == earliest {
		return earliest
	}
	return earliest + " to " + latest
}

// Sender доставляет одно оповещение по своему каналу.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Registry — закрытый реестр отправителей по имени канала.
type Registry struct {
	mu      sync.RWMutex
	senders map[string]Sender
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{senders: make(map[string]Sender)}
}

// Register привязывает отправителя к каналу.
func (r *Registry) Register(channel string, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[channel] = sender
}

// Send доставляет сообщение через отправителя канала.
func (r *Registry) Send(ctx context.Context, channel string, msg Message) error {
	r.mu.RLock()
	sender, ok := r.senders[channel]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("notify: %w: %q", ErrChannelNotRegistered, channel)
	}
	return sender.Send(ctx, msg)
}
