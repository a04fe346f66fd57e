package parse

import (
	"errors"
	"testing"
	"time"
)

func TestParseEndToEnd(t *testing.T) {
	text := "12/05/23, 14:05 - Alice: Hi there\n12/05/23, 14:06 - Bob: Hello!\n12/05/23, 14:07 - Messages are encrypted"

	records, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []struct {
		user, message string
		minute        int
	}{
		{"Alice", "Hi there", 5},
		{"Bob", "Hello!", 6},
		{GroupNotification, "Messages are encrypted", 7},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, w := range want {
		r := records[i]
		if r.User != w.user || r.Message != w.message {
			t.Errorf("record %d = (%q, %q), want (%q, %q)", i, r.User, r.Message, w.user, w.message)
		}
		if r.OnlyDate != "2023-05-12" {
			t.Errorf("record %d only_date = %s", i, r.OnlyDate)
		}
		if r.Period != "14-15" {
			t.Errorf("record %d period = %s", i, r.Period)
		}
		if r.Minute != w.minute {
			t.Errorf("record %d minute = %d, want %d", i, r.Minute, w.minute)
		}
	}

	r := records[0]
	if r.Year != 2023 || r.MonthNum != 5 || r.Month != "May" || r.Day != 12 || r.DayName != "Friday" || r.Hour != 14 {
		t.Errorf("derived fields = %+v", r)
	}
	if !r.Date.Equal(time.Date(2023, 5, 12, 14, 5, 0, 0, time.UTC)) {
		t.Errorf("date = %v", r.Date)
	}
}

func TestParseEmptyInput(t *testing.T) {
	records, err := Parse("nothing to see here")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestParseDatesYearFallback(t *testing.T) {
	short, err := ParseDates([]string{"12/05/23, 14:05 -"})
	if err != nil {
		t.Fatalf("2-digit: %v", err)
	}
	long, err := ParseDates([]string{"12/05/2023, 14:05 -"})
	if err != nil {
		t.Fatalf("4-digit: %v", err)
	}
	if !short[0].Equal(long[0]) || long[0].Year() != 2023 {
		t.Errorf("short = %v, long = %v", short[0], long[0])
	}
}

func TestParseDatesDayFirst(t *testing.T) {
	dates, err := ParseDates([]string{"3/4/21, 9:7 -"})
	if err != nil {
		t.Fatalf("ParseDates: %v", err)
	}
	got := dates[0]
	if got.Day() != 3 || got.Month() != time.April || got.Hour() != 9 || got.Minute() != 7 {
		t.Errorf("got %v, want 2021-04-03 09:07", got)
	}
}

func TestParseAcceptsAnyWhitespaceInTimestamp(t *testing.T) {
	records, err := Parse("12/05/23,\t14:05 - Alice: hi\n12/05/23, 14:06\t- Bob: yo\n12/05/23, 14:07 - Carol: hey")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0].User != "Alice" || records[0].Hour != 14 || records[0].Minute != 5 {
		t.Errorf("record 0 = %+v", records[0])
	}
	if records[1].User != "Bob" || records[1].Minute != 6 {
		t.Errorf("record 1 = %+v", records[1])
	}
}

func TestParseDatesMixedWidthFails(t *testing.T) {
	_, err := ParseDates([]string{"12/05/23, 14:05 -", "12/05/2023, 14:06 -"})
	if err == nil {
		t.Fatal("expected error for mixed year widths")
	}
	var dfe *DateFormatError
	if !errors.As(err, &dfe) {
		t.Fatalf("error %T is not a DateFormatError", err)
	}
	if !errors.Is(err, ErrDateFormat) {
		t.Error("error does not match ErrDateFormat")
	}
	if dfe.Value != "12/05/23, 14:05 -" {
		t.Errorf("Value = %q", dfe.Value)
	}
}

func TestParseThreeDigitYearFails(t *testing.T) {
	_, err := Parse("12/05/123, 14:05 - Alice: hi")
	if !errors.Is(err, ErrDateFormat) {
		t.Fatalf("err = %v, want ErrDateFormat", err)
	}
}

func TestParseInvalidCalendarDateFails(t *testing.T) {
	_, err := Parse("31/02/23, 10:00 - Alice: hi")
	if !errors.Is(err, ErrDateFormat) {
		t.Fatalf("err = %v, want ErrDateFormat", err)
	}
}

func TestSplitSender(t *testing.T) {
	tests := []struct {
		body, user, message string
	}{
		{"Alice: hello there", "Alice", "hello there"},
		{"Alice Smith: hi", "Alice Smith", "hi"},
		{"+44 7700 900123: ping", "+44 7700 900123", "ping"},
		{"Alice added Bob", GroupNotification, "Alice added Bob"},
		{"Messages are end-to-end encrypted", GroupNotification, "Messages are end-to-end encrypted"},
		{"time 10:30", GroupNotification, "time 10:30"},
		{"Alice: note: remember", "Alice", " note remember"},
		{"Alice:\nmultiline", "Alice", "multiline"},
	}
	for _, tt := range tests {
		user, message := SplitSender(tt.body)
		if user != tt.user || message != tt.message {
			t.Errorf("SplitSender(%q) = (%q, %q), want (%q, %q)", tt.body, user, message, tt.user, tt.message)
		}
	}
}

func TestPeriod(t *testing.T) {
	tests := map[int]string{
		0:  "00-1",
		1:  "1-2",
		9:  "9-10",
		14: "14-15",
		22: "22-23",
		23: "23-00",
	}
	for hour, want := range tests {
		if got := Period(hour); got != want {
			t.Errorf("Period(%d) = %q, want %q", hour, got, want)
		}
	}
}

func TestNewRecordDerivationIsDeterministic(t *testing.T) {
	date := time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)
	a := NewRecord(date, "Alice", "x")
	b := NewRecord(date, GroupNotification, "y")

	a.User, a.Message = b.User, b.Message
	if a != b {
		t.Errorf("derived fields differ: %+v vs %+v", a, b)
	}
	if a.Period != "23-00" || a.DayName != "Tuesday" || a.Month != "December" {
		t.Errorf("unexpected derived fields: %+v", a)
	}
}

func TestParseKeepsLineNumbers(t *testing.T) {
	records, err := Parse("12/05/23, 14:05 - Alice: a\nb\n12/05/23, 14:06 - Bob: c")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if records[0].Line != 1 || records[1].Line != 3 {
		t.Errorf("lines = %d, %d; want 1, 3", records[0].Line, records[1].Line)
	}
}
