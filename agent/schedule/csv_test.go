package schedule

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestDecodeSlotsCaseInsensitiveAvailability(t *testing.T) {
	t.Parallel()

	input := "date,time,available\n2023-08-15,10:00,TRUE\n2023-08-15,14:00,false\n2023-08-16,11:00,True\n"
	slots, err := decodeSlots(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decodeSlots() error = %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("decodeSlots() returned %d slots, want 3", len(slots))
	}
	if !slots[0].Available || slots[1].Available || !slots[2].Available {
		t.Fatalf("unexpected availability: %#v", slots)
	}
}

func TestEncodeSlotsWritesLiteralBooleans(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := encodeSlots(&buf, []Slot{
		{Date: "2023-08-15", Time: "10:00", Available: true},
		{Date: "2023-08-15", Time: "14:00", Available: false},
	})
	if err != nil {
		t.Fatalf("encodeSlots() error = %v", err)
	}

	want := "date,time,available\n2023-08-15,10:00,True\n2023-08-15,14:00,False\n"
	if buf.String() != want {
		t.Fatalf("encodeSlots() = %q, want %q", buf.String(), want)
	}
}

func TestEncodeBookingRowTimestampFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	booking := Booking{
		Name:     "Jane Doe",
		Phone:    "555-0100",
		Date:     "2023-08-15",
		Time:     "10:00",
		BookedAt: time.Date(2023, 8, 15, 9, 58, 12, 0, time.UTC),
	}
	if err := encodeBookingRow(&buf, booking); err != nil {
		t.Fatalf("encodeBookingRow() error = %v", err)
	}

	want := "Jane Doe,555-0100,2023-08-15,10:00,2023-08-15 09:58:12\n"
	if buf.String() != want {
		t.Fatalf("encodeBookingRow() = %q, want %q", buf.String(), want)
	}
}
