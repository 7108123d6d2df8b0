package schedule

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// FileConfig locates the CSV-backed store files.
type FileConfig struct {
	SlotsPath    string `envconfig:"SLOTS_PATH" split_words:"true" default:"busy_slots.csv"`
	BookingsPath string `envconfig:"BOOKINGS_PATH" split_words:"true" default:"bookings.csv"`
}

// CSVStoreOption customizes CSVStore.
type CSVStoreOption func(*CSVStore)

func WithClock(now func() time.Time) CSVStoreOption {
	return func(s *CSVStore) {
		if now != nil {
			s.now = now
		}
	}
}

// CSVStore persists slots and the booking log in flat CSV files. Every
// load-mutate-persist sequence runs under a single mutex, and the slot file is
// replaced via write-to-temp-then-rename so readers never observe a partial
// write.
type CSVStore struct {
	mu           sync.Mutex
	slotsPath    string
	bookingsPath string
	now          func() time.Time
}

var _ Store = (*CSVStore)(nil)

func NewCSVStore(cfg FileConfig, opts ...CSVStoreOption) (*CSVStore, error) {
	slotsPath := strings.TrimSpace(cfg.SlotsPath)
	if slotsPath == "" {
		return nil, errors.New("slots path is required")
	}
	bookingsPath := strings.TrimSpace(cfg.BookingsPath)
	if bookingsPath == "" {
		return nil, errors.New("bookings path is required")
	}

	store := &CSVStore{
		slotsPath:    slotsPath,
		bookingsPath: bookingsPath,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

func (s *CSVStore) ListAvailable(ctx context.Context) ([]Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.loadSlotsLocked()
	if err != nil {
		return nil, err
	}
	return filterSlots(slots, true), nil
}

func (s *CSVStore) ListBusy(ctx context.Context) ([]Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.loadSlotsLocked()
	if err != nil {
		return nil, err
	}
	return filterSlots(slots, false), nil
}

func (s *CSVStore) MarkBusy(ctx context.Context, date, timeOfDay string) error {
	date = strings.TrimSpace(date)
	timeOfDay = strings.TrimSpace(timeOfDay)
	if err := validateSlotKey(date, timeOfDay); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.loadSlotsLocked()
	if err != nil {
		return err
	}

	slots, changed := setBusy(slots, date, timeOfDay)
	if !changed {
		return nil
	}
	return s.persistSlotsLocked(slots)
}

func (s *CSVStore) Book(ctx context.Context, name, phone, date, timeOfDay string) (BookOutcome, error) {
	date = strings.TrimSpace(date)
	timeOfDay = strings.TrimSpace(timeOfDay)
	if err := validateSlotKey(date, timeOfDay); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.loadSlotsLocked()
	if err != nil {
		return "", err
	}

	if slot, ok := findSlot(slots, date, timeOfDay); ok && !slot.Available {
		return BookingConflict, nil
	}

	prev := slices.Clone(slots)
	slots, _ = setBusy(slots, date, timeOfDay)
	if err := s.persistSlotsLocked(slots); err != nil {
		return "", err
	}

	booking := Booking{
		Name:     name,
		Phone:    phone,
		Date:     date,
		Time:     timeOfDay,
		BookedAt: s.now(),
	}
	if err := s.appendBookingLocked(booking); err != nil {
		// Restore availability so a retry is not refused with a conflict for
		// a booking that was never logged.
		if rbErr := s.persistSlotsLocked(prev); rbErr != nil {
			log.Error().Err(rbErr).Str("date", date).Str("time", timeOfDay).
				Msg("slot rollback failed after booking log error")
		}
		return "", err
	}
	return BookingConfirmed, nil
}

func (s *CSVStore) Bookings(ctx context.Context) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.bookingsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read bookings file: %v", ErrStorage, err)
	}

	bookings, err := decodeBookings(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return bookings, nil
}

// loadSlotsLocked reads the slot file, seeding it with the default sample
// slots the first time the store is touched. Callers must hold s.mu.
func (s *CSVStore) loadSlotsLocked() ([]Slot, error) {
	raw, err := os.ReadFile(s.slotsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: read slots file: %v", ErrStorage, err)
		}
		defaults := DefaultSlots()
		log.Info().Str("path", s.slotsPath).Msg("seeding default appointment slots")
		if err := s.persistSlotsLocked(defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}

	slots, err := decodeSlots(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return slots, nil
}

func (s *CSVStore) persistSlotsLocked(slots []Slot) error {
	var buf bytes.Buffer
	if err := encodeSlots(&buf, slots); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := writeFileAtomic(s.slotsPath, buf.Bytes()); err != nil {
		return fmt.Errorf("%w: persist slots: %v", ErrStorage, err)
	}
	return nil
}

func (s *CSVStore) appendBookingLocked(b Booking) error {
	_, statErr := os.Stat(s.bookingsPath)
	needHeader := errors.Is(statErr, os.ErrNotExist)
	if statErr != nil && !needHeader {
		return fmt.Errorf("%w: stat bookings file: %v", ErrStorage, statErr)
	}

	f, err := os.OpenFile(s.bookingsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open bookings file: %v", ErrStorage, err)
	}
	defer f.Close()

	if needHeader {
		if err := encodeBookingHeader(f); err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
	}
	if err := encodeBookingRow(f, b); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func filterSlots(slots []Slot, available bool) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.Available == available {
			out = append(out, slot)
		}
	}
	return out
}

func findSlot(slots []Slot, date, timeOfDay string) (Slot, bool) {
	for _, slot := range slots {
		if slot.Date == date && slot.Time == timeOfDay {
			return slot, true
		}
	}
	return Slot{}, false
}

// setBusy flips an existing slot to busy, or appends a new busy slot when the
// (date, time) pair was never seen before. It reports whether anything changed.
func setBusy(slots []Slot, date, timeOfDay string) ([]Slot, bool) {
	for i, slot := range slots {
		if slot.Date == date && slot.Time == timeOfDay {
			if !slot.Available {
				return slots, false
			}
			slots[i].Available = false
			return slots, true
		}
	}
	return append(slots, Slot{Date: date, Time: timeOfDay, Available: false}), true
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
