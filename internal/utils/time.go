package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const InputLayout = "2006-01-02T15:04"

var isoDateOnly = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// backend dates come in several shapes depending on which service wrote them
var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	InputLayout,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2/1/2006 15:04",
	"2/1/2006",
}

// FormatDateForInput normalizes dd/mm/yyyy[ HH:mm], YYYY-MM-DD or an ISO
// datetime into YYYY-MM-DDTHH:mm. It returns "" for anything else.
func FormatDateForInput(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "T") {
		if len(s) > len(InputLayout) {
			return s[:len(InputLayout)]
		}
		return s
	}
	if isoDateOnly.MatchString(s) {
		return s + "T00:00"
	}

	parts := strings.Fields(s)
	dateParts := strings.Split(parts[0], "/")
	if len(dateParts) != 3 || dateParts[0] == "" || dateParts[1] == "" || dateParts[2] == "" {
		return ""
	}
	clock := "00:00"
	if len(parts) > 1 && len(parts[1]) == 5 {
		clock = parts[1]
	}
	return fmt.Sprintf("%s-%s-%sT%s", dateParts[2], pad2(dateParts[1]), pad2(dateParts[0]), clock)
}

// FormatDateForBackend turns YYYY-MM-DDTHH:mm into d/m/yyyy HH:mm. Values
// without a T are returned unchanged.
func FormatDateForBackend(s string) string {
	if !strings.Contains(s, "T") {
		return s
	}
	datePart, clock, _ := strings.Cut(s, "T")
	if clock == "" {
		clock = "00:00"
	}
	ymd := strings.Split(datePart, "-")
	if len(ymd) != 3 {
		return s
	}
	month, err1 := strconv.Atoi(ymd[1])
	day, err2 := strconv.Atoi(ymd[2])
	if err1 != nil || err2 != nil {
		return s
	}
	return fmt.Sprintf("%d/%d/%s %s", day, month, ymd[0], clock)
}

// ParseEventDate parses any of the date formats the backend emits. Dates
// without a zone are read in loc, UTC when loc is nil.
func ParseEventDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// FormatDateForDisplay renders a backend date as "15 de diciembre de 2025, 20:00".
// Unparseable input is returned as is.
func FormatDateForDisplay(s string) string {
	t, err := ParseEventDate(s, nil)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%d de %s de %d, %02d:%02d", t.Day(), monthNames[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
