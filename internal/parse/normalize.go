package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayouts are the timestamp layouts tried, in order, for a whole
// export. Day comes first; the 2-digit year is tried before the 4-digit one.
var DateLayouts = []string{
	"2/1/06, 15:4 -",
	"2/1/2006, 15:4 -",
}

var ErrDateFormat = errors.New("unsupported timestamp format")

// DateFormatError reports a batch that no layout in DateLayouts could parse.
type DateFormatError struct {
	Value   string   // first timestamp rejected by the last layout tried
	Layouts []string // layouts tried, in order
	Cause   error
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("parse timestamp %q: tried %d layouts: %v", e.Value, len(e.Layouts), e.Cause)
}

func (e *DateFormatError) Unwrap() []error {
	return []error{ErrDateFormat, e.Cause}
}

// senderPattern is the lazy "name: " prefix. It is applied repeatedly over
// a body, so the first capture is the sender.
var senderPattern = regexp.MustCompile(`([\w\W]+?):\s`)

// ParseDates parses every timestamp with the first layout that accepts the
// whole batch. Mixed year widths in one batch are rejected.
func ParseDates(stamps []string) ([]time.Time, error) {
	if len(stamps) == 0 {
		return nil, nil
	}

	var (
		failed string
		cause  error
	)
	for _, layout := range DateLayouts {
		dates, bad, err := parseAll(layout, stamps)
		if err == nil {
			return dates, nil
		}
		failed, cause = bad, err
	}
	return nil, &DateFormatError{Value: failed, Layouts: DateLayouts, Cause: cause}
}

func parseAll(layout string, stamps []string) ([]time.Time, string, error) {
	dates := make([]time.Time, len(stamps))
	for i, s := range stamps {
		// the grammar accepts any whitespace run where a layout has one space
		t, err := time.Parse(layout, strings.Join(strings.Fields(s), " "))
		if err != nil {
			return nil, s, err
		}
		dates[i] = t
	}
	return dates, "", nil
}

// SplitSender separates "name: text" into its parts. Bodies without the
// prefix are group notifications and come back unchanged.
func SplitSender(body string) (user, message string) {
	locs := senderPattern.FindAllStringSubmatchIndex(body, -1)
	if len(locs) == 0 {
		return GroupNotification, body
	}

	// fragments alternate: text before a match, its capture, ... , tail
	fragments := make([]string, 0, 2*len(locs)+1)
	prev := 0
	for _, loc := range locs {
		fragments = append(fragments, body[prev:loc[0]], body[loc[2]:loc[3]])
		prev = loc[1]
	}
	fragments = append(fragments, body[prev:])

	return fragments[1], strings.Join(fragments[2:], " ")
}

// Period is the hourly bucket label of an hour. The first and last buckets
// read "00-1" and "23-00".
func Period(hour int) string {
	switch hour {
	case 23:
		return "23-00"
	case 0:
		return "00-1"
	default:
		return strconv.Itoa(hour) + "-" + strconv.Itoa(hour+1)
	}
}

// NewRecord builds a record and derives its calendar fields from date.
func NewRecord(date time.Time, user, message string) Record {
	return Record{
		Date:     date,
		User:     user,
		Message:  message,
		OnlyDate: date.Format(time.DateOnly),
		Year:     date.Year(),
		MonthNum: int(date.Month()),
		Month:    date.Month().String(),
		Day:      date.Day(),
		DayName:  date.Weekday().String(),
		Hour:     date.Hour(),
		Minute:   date.Minute(),
		Period:   Period(date.Hour()),
	}
}

// ParseEntries normalizes tokenized entries, keeping their order.
func ParseEntries(entries []Entry) ([]Record, error) {
	stamps := make([]string, len(entries))
	for i, e := range entries {
		stamps[i] = e.Timestamp
	}

	dates, err := ParseDates(stamps)
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(entries))
	for i, e := range entries {
		user, message := SplitSender(e.Body)
		records[i] = NewRecord(dates[i], user, message)
		records[i].Line = e.Line
	}
	return records, nil
}

// Parse runs the whole pipeline over an export. An export without any
// timestamp yields no records and no error.
func Parse(text string) ([]Record, error) {
	return ParseEntries(Tokenize(text))
}
