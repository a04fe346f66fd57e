package parse

import "time"

// GroupNotification is the user recorded for system lines such as
// "X added Y" that carry no "name: " prefix.
const GroupNotification = "group_notification"

// Entry is one timestamp prefix and the message body that follows it.
type Entry struct {
	Timestamp string
	Body      string
	Line      int // 1-based line of the timestamp in the export
}

// Record is the normalized form of one chat message. The tags are the
// column names shared by the index, the document store and the API.
type Record struct {
	Date     time.Time `json:"date" bson:"date"`
	User     string    `json:"user" bson:"user"`
	Message  string    `json:"message" bson:"message"`
	OnlyDate string    `json:"only_date" bson:"only_date"` // YYYY-MM-DD
	Year     int       `json:"year" bson:"year"`
	MonthNum int       `json:"month_num" bson:"month_num"`
	Month    string    `json:"month" bson:"month"`
	Day      int       `json:"day" bson:"day"`
	DayName  string    `json:"day_name" bson:"day_name"`
	Hour     int       `json:"hour" bson:"hour"`
	Minute   int       `json:"minute" bson:"minute"`
	Period   string    `json:"period" bson:"period"`
	Line     int       `json:"-" bson:"-"`
}

// IsNotification reports whether the record is a group/system message.
func (r Record) IsNotification() bool {
	return r.User == GroupNotification
}

type ExportMeta struct {
	FilePath  string
	FirstDate time.Time
	LastDate  time.Time
	Users     []string // distinct senders in first-seen order
	Mtime     time.Time
	Size      int64
}

type ParseResult struct {
	Meta    ExportMeta
	Records []Record
}
