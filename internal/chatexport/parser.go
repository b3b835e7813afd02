// Package chatexport parses WhatsApp "export chat without media" text into
// an ordered sequence of messages.
package chatexport

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Message is a single parsed chat line.
type Message struct {
	ContactID int64     `json:"contact_id"`
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
}

// Stats reports how many lines were matched and skipped by a parse.
type Stats struct {
	Lines   int
	Matched int
	Skipped int
}

// lineRe matches "[M/D/YY, H:MM PM] Sender: content".
// Groups: 1 month, 2 day, 3 year, 4 hour, 5 minute, 6 meridiem, 7 sender, 8 content.
// Separators accept Unicode spaces; phone exports put U+202F before AM/PM.
var lineRe = regexp.MustCompile(
	`\[(\d{1,2})/(\d{1,2})/(\d{2,4}),[\s\p{Zs}]*(\d{1,2}):(\d{2})(?:[\s\p{Zs}]*([AaPp][Mm]))?\][\s\p{Zs}]*([^:]+):[\s\p{Zs}]*(.*)`,
)

// Parse converts raw export text into messages, in input order, using the
// local timezone. Lines that do not match the export grammar are skipped.
func Parse(raw string, contactID int64) []Message {
	msgs, _ := ParseWithStats(raw, contactID, time.Local)
	return msgs
}

// ParseIn is Parse with an explicit location for timestamp construction.
func ParseIn(raw string, contactID int64, loc *time.Location) []Message {
	msgs, _ := ParseWithStats(raw, contactID, loc)
	return msgs
}

// ParseWithStats parses raw and also returns line counts.
func ParseWithStats(raw string, contactID int64, loc *time.Location) ([]Message, Stats) {
	if loc == nil {
		loc = time.Local
	}
	var st Stats
	msgs := []Message{}
	if raw == "" {
		return msgs, st
	}

	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		st.Lines++

		m, ok := parseLine(line, contactID, loc)
		if !ok {
			st.Skipped++
			continue
		}
		st.Matched++
		msgs = append(msgs, m)
	}
	return msgs, st
}

func parseLine(line string, contactID int64, loc *time.Location) (Message, bool) {
	g := lineRe.FindStringSubmatch(line)
	if g == nil {
		return Message{}, false
	}

	ts, ok := buildTimestamp(g[1], g[2], g[3], g[4], g[5], g[6], loc)
	if !ok {
		return Message{}, false
	}

	return Message{
		ContactID: contactID,
		Timestamp: ts,
		Sender:    strings.TrimSpace(g[7]),
		Content:   strings.TrimSpace(g[8]),
	}, true
}

// buildTimestamp assembles a wall-clock time, rejecting components that
// time.Date would otherwise silently normalise (e.g. 2/30).
func buildTimestamp(monthS, dayS, yearS, hourS, minS, meridiem string, loc *time.Location) (time.Time, bool) {
	month, err1 := strconv.Atoi(monthS)
	day, err2 := strconv.Atoi(dayS)
	year, err3 := strconv.Atoi(yearS)
	hour, err4 := strconv.Atoi(hourS)
	minute, err5 := strconv.Atoi(minS)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return time.Time{}, false
	}

	if year < 100 {
		year += 2000
	}

	switch strings.ToUpper(meridiem) {
	case "PM":
		if hour < 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}

	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	if day > daysIn(time.Month(month), year) {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc), true
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
