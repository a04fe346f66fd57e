// Package analytics aggregates normalized chat records into the counts
// shown by the stats command and the HTTP API.
package analytics

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Zuo-Peng/chatlens/internal/parse"
)

// MediaPlaceholder is what exports write instead of an attachment.
const MediaPlaceholder = "<Media omitted>"

type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Summary struct {
	Messages      int     `json:"messages"`
	Words         int     `json:"words"`
	Media         int     `json:"media"`
	Links         int     `json:"links"`
	Notifications int     `json:"notifications"`
	Users         []Count `json:"users"`
	DayNames      []Count `json:"day_names"`
	Periods       []Count `json:"periods"`
	Monthly       []Count `json:"monthly"`
	Daily         []Count `json:"daily"`
	// Heatmap[day_name][period] counts messages per weekday and hour bucket.
	Heatmap map[string]map[string]int `json:"heatmap"`
}

// Filter keeps the records of one sender; "" or "Overall" keeps everything.
func Filter(records []parse.Record, user string) []parse.Record {
	if user == "" || user == "Overall" {
		return records
	}
	var out []parse.Record
	for _, r := range records {
		if r.User == user {
			out = append(out, r)
		}
	}
	return out
}

func Summarize(records []parse.Record) Summary {
	s := Summary{Heatmap: make(map[string]map[string]int)}

	users := make(map[string]int)
	dayNames := make(map[string]int)
	periods := make(map[string]int)
	var monthly, daily orderedCounter

	for _, r := range records {
		if r.IsNotification() {
			s.Notifications++
			continue
		}
		s.Messages++
		s.Words += len(strings.Fields(r.Message))
		if strings.TrimSpace(r.Message) == MediaPlaceholder {
			s.Media++
		}
		s.Links += countLinks(r.Message)

		users[r.User]++
		dayNames[r.DayName]++
		periods[r.Period]++
		monthly.add(r.Month + "-" + strconv.Itoa(r.Year))
		daily.add(r.OnlyDate)

		row := s.Heatmap[r.DayName]
		if row == nil {
			row = make(map[string]int)
			s.Heatmap[r.DayName] = row
		}
		row[r.Period]++
	}

	s.Users = byCountDesc(users)
	s.DayNames = inOrder(dayNames, weekdayNames())
	s.Periods = inOrder(periods, periodNames())
	s.Monthly = monthly.counts()
	s.Daily = daily.counts()
	return s
}

func countLinks(message string) int {
	n := 0
	for _, f := range strings.Fields(message) {
		if strings.HasPrefix(f, "http://") || strings.HasPrefix(f, "https://") || strings.HasPrefix(f, "www.") {
			n++
		}
	}
	return n
}

// orderedCounter counts keys in first-seen order. Records arrive in export
// order, so timelines come out chronological.
type orderedCounter struct {
	keys []string
	n    map[string]int
}

func (c *orderedCounter) add(key string) {
	if c.n == nil {
		c.n = make(map[string]int)
	}
	if _, ok := c.n[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.n[key]++
}

func (c *orderedCounter) counts() []Count {
	out := make([]Count, len(c.keys))
	for i, k := range c.keys {
		out[i] = Count{Key: k, Count: c.n[k]}
	}
	return out
}

func byCountDesc(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// inOrder lists the non-zero counts of m following order.
func inOrder(m map[string]int, order []string) []Count {
	var out []Count
	for _, k := range order {
		if v := m[k]; v > 0 {
			out = append(out, Count{Key: k, Count: v})
		}
	}
	return out
}

func weekdayNames() []string {
	names := make([]string, 7)
	for d := time.Monday; d < time.Monday+7; d++ {
		names[d-time.Monday] = (d % 7).String()
	}
	return names
}

// periodNames lists every hourly bucket from midnight on.
func periodNames() []string {
	names := make([]string, 24)
	for h := range 24 {
		names[h] = parse.Period(h)
	}
	return names
}
