package schedule

import (
	"context"
	"errors"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// bookedAtLayout matches the booking log wire format.
	bookedAtLayout = "2006-01-02 15:04:05"
)

var (
	ErrStorage     = errors.New("scheduling storage failed")
	ErrInvalidSlot = errors.New("slot date or time is empty")
)

// Slot is one calendar date/time unit of appointment availability. At most one
// slot exists per (date, time) pair; it is either available or busy.
type Slot struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Booking is an immutable row of the append-only booking log.
type Booking struct {
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	BookedAt time.Time `json:"booked_at"`
}

type BookOutcome string

const (
	BookingConfirmed BookOutcome = "confirmed"
	// BookingConflict is a normal business outcome: the slot is already busy.
	// It is never reported as an error.
	BookingConflict BookOutcome = "conflict"
)

// Store is the single source of truth for slot availability and booking
// history. Implementations must guarantee that no two successful bookings
// ever claim the same (date, time).
type Store interface {
	ListAvailable(ctx context.Context) ([]Slot, error)
	ListBusy(ctx context.Context) ([]Slot, error)
	// MarkBusy is idempotent: an available slot flips to busy, an unknown slot
	// is created busy, an already-busy slot is a no-op.
	MarkBusy(ctx context.Context, date, timeOfDay string) error
	// Book atomically tests-and-sets the target slot and appends a booking row.
	Book(ctx context.Context, name, phone, date, timeOfDay string) (BookOutcome, error)
	Bookings(ctx context.Context) ([]Booking, error)
}

// DefaultSlots is the sample data seeded the first time a store is used with
// no prior persisted state.
func DefaultSlots() []Slot {
	return []Slot{
		{Date: "2023-08-15", Time: "10:00", Available: true},
		{Date: "2023-08-15", Time: "14:00", Available: true},
		{Date: "2023-08-16", Time: "11:00", Available: true},
		{Date: "2023-08-16", Time: "15:30", Available: true},
		{Date: "2023-08-17", Time: "09:30", Available: true},
	}
}

func validateSlotKey(date, timeOfDay string) error {
	if date == "" || timeOfDay == "" {
		return ErrInvalidSlot
	}
	return nil
}
