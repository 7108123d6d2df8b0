package schedule

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	slotHeader    = []string{"date", "time", "available"}
	bookingHeader = []string{"name", "phone", "date", "time", "booked_at"}
)

func decodeSlots(r io.Reader) ([]Slot, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read slot rows: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	slots := make([]Slot, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 3 {
			return nil, fmt.Errorf("slot row %d has %d fields, want 3", i+1, len(record))
		}
		slots = append(slots, Slot{
			Date: strings.TrimSpace(record[0]),
			Time: strings.TrimSpace(record[1]),
			// The flag serializes as True/False and is read case-insensitively.
			Available: strings.EqualFold(strings.TrimSpace(record[2]), "true"),
		})
	}
	return slots, nil
}

func encodeSlots(w io.Writer, slots []Slot) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(slotHeader); err != nil {
		return fmt.Errorf("write slot header: %w", err)
	}
	for _, slot := range slots {
		available := "False"
		if slot.Available {
			available = "True"
		}
		if err := writer.Write([]string{slot.Date, slot.Time, available}); err != nil {
			return fmt.Errorf("write slot row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func decodeBookings(r io.Reader) ([]Booking, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read booking rows: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	bookings := make([]Booking, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 5 {
			return nil, fmt.Errorf("booking row %d has %d fields, want 5", i+1, len(record))
		}
		bookedAt, err := time.Parse(bookedAtLayout, strings.TrimSpace(record[4]))
		if err != nil {
			return nil, fmt.Errorf("booking row %d booked_at: %w", i+1, err)
		}
		bookings = append(bookings, Booking{
			Name:     record[0],
			Phone:    record[1],
			Date:     record[2],
			Time:     record[3],
			BookedAt: bookedAt,
		})
	}
	return bookings, nil
}

func encodeBookingRow(w io.Writer, b Booking) error {
	writer := csv.NewWriter(w)
	row := []string{b.Name, b.Phone, b.Date, b.Time, b.BookedAt.Format(bookedAtLayout)}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("write booking row: %w", err)
	}
	writer.Flush()
	return writer.Error()
}

func encodeBookingHeader(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(bookingHeader); err != nil {
		return fmt.Errorf("write booking header: %w", err)
	}
	writer.Flush()
	return writer.Error()
}
