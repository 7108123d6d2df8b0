package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// PostgresConfig configures the bun-backed store.
type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type slotRow struct {
	bun.BaseModel `bun:"table:slots,alias:s"`

	Date      string `bun:"date,pk"`
	Time      string `bun:"time,pk"`
	Available bool   `bun:"available,notnull"`
}

type bookingRow struct {
	bun.BaseModel `bun:"table:bookings,alias:b"`

	ID       int64     `bun:"id,pk,autoincrement"`
	Name     string    `bun:"name,notnull"`
	Phone    string    `bun:"phone,notnull"`
	Date     string    `bun:"date,notnull"`
	Time     string    `bun:"time,notnull"`
	BookedAt time.Time `bun:"booked_at,notnull"`
}

// BunStoreOption customizes BunStore.
type BunStoreOption func(*BunStore)

func WithBunClock(now func() time.Time) BunStoreOption {
	return func(s *BunStore) {
		if now != nil {
			s.now = now
		}
	}
}

// BunStore persists slots and bookings in Postgres. Booking runs the
// test-and-set inside a transaction with a row lock, so concurrent attempts
// on the same (date, time) serialize at the database.
type BunStore struct {
	db  *bun.DB
	now func() time.Time
}

var _ Store = (*BunStore)(nil)

func NewBunStore(db *bun.DB, opts ...BunStoreOption) (*BunStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	store := &BunStore{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// NewBunStoreFromConfig opens a Postgres connection for cfg.DSN and wraps it
// in a BunStore. The caller owns the returned store's lifecycle via Close.
func NewBunStoreFromConfig(cfg PostgresConfig, opts ...BunStoreOption) (*BunStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())
	return NewBunStore(db, opts...)
}

func (s *BunStore) Close() error {
	return s.db.Close()
}

// Init creates the tables and seeds the default sample slots when the slot
// table is empty. Idempotent.
func (s *BunStore) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*slotRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("%w: create slots table: %v", ErrStorage, err)
	}
	if _, err := s.db.NewCreateTable().Model((*bookingRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("%w: create bookings table: %v", ErrStorage, err)
	}

	count, err := s.db.NewSelect().Model((*slotRow)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("%w: count slots: %v", ErrStorage, err)
	}
	if count > 0 {
		return nil
	}

	rows := make([]slotRow, 0, len(DefaultSlots()))
	for _, slot := range DefaultSlots() {
		rows = append(rows, slotRow{Date: slot.Date, Time: slot.Time, Available: slot.Available})
	}
	if _, err := s.db.NewInsert().Model(&rows).On("CONFLICT (date, time) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("%w: seed default slots: %v", ErrStorage, err)
	}
	return nil
}

func (s *BunStore) ListAvailable(ctx context.Context) ([]Slot, error) {
	return s.listByAvailability(ctx, true)
}

func (s *BunStore) ListBusy(ctx context.Context) ([]Slot, error) {
	return s.listByAvailability(ctx, false)
}

func (s *BunStore) listByAvailability(ctx context.Context, available bool) ([]Slot, error) {
	var rows []slotRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("s.available = ?", available).
		Order("date", "time").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list slots: %v", ErrStorage, err)
	}

	slots := make([]Slot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, Slot{Date: row.Date, Time: row.Time, Available: row.Available})
	}
	return slots, nil
}

func (s *BunStore) MarkBusy(ctx context.Context, date, timeOfDay string) error {
	date = strings.TrimSpace(date)
	timeOfDay = strings.TrimSpace(timeOfDay)
	if err := validateSlotKey(date, timeOfDay); err != nil {
		return err
	}

	row := slotRow{Date: date, Time: timeOfDay, Available: false}
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (date, time) DO UPDATE").
		Set("available = EXCLUDED.available").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: mark busy: %v", ErrStorage, err)
	}
	return nil
}

// errSlotTaken aborts the booking transaction without mutating anything.
var errSlotTaken = errors.New("slot already busy")

func (s *BunStore) Book(ctx context.Context, name, phone, date, timeOfDay string) (BookOutcome, error) {
	date = strings.TrimSpace(date)
	timeOfDay = strings.TrimSpace(timeOfDay)
	if err := validateSlotKey(date, timeOfDay); err != nil {
		return "", err
	}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var row slotRow
		err := tx.NewSelect().
			Model(&row).
			Where("s.date = ?", date).
			Where("s.time = ?", timeOfDay).
			For("UPDATE").
			Scan(ctx)
		switch {
		case err == nil:
			if !row.Available {
				return errSlotTaken
			}
			if _, err := tx.NewUpdate().
				Model(&row).
				Set("available = ?", false).
				WherePK().
				Exec(ctx); err != nil {
				return fmt.Errorf("flip slot: %w", err)
			}
		case errors.Is(err, sql.ErrNoRows):
			created := slotRow{Date: date, Time: timeOfDay, Available: false}
			if _, err := tx.NewInsert().Model(&created).Exec(ctx); err != nil {
				return fmt.Errorf("create slot: %w", err)
			}
		default:
			return fmt.Errorf("lock slot: %w", err)
		}

		booking := bookingRow{
			Name:     name,
			Phone:    phone,
			Date:     date,
			Time:     timeOfDay,
			BookedAt: s.now(),
		}
		if _, err := tx.NewInsert().Model(&booking).Exec(ctx); err != nil {
			return fmt.Errorf("append booking: %w", err)
		}
		return nil
	})
	if errors.Is(err, errSlotTaken) {
		return BookingConflict, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: book: %v", ErrStorage, err)
	}
	return BookingConfirmed, nil
}

func (s *BunStore) Bookings(ctx context.Context) ([]Booking, error) {
	var rows []bookingRow
	if err := s.db.NewSelect().Model(&rows).Order("id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: list bookings: %v", ErrStorage, err)
	}

	bookings := make([]Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, Booking{
			Name:     row.Name,
			Phone:    row.Phone,
			Date:     row.Date,
			Time:     row.Time,
			BookedAt: row.BookedAt,
		})
	}
	return bookings, nil
}
