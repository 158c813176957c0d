package utils

import (
	"log"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// suffixMICs maps a Yahoo symbol suffix to the MIC of its exchange.
// See scmhub/calendar for supported MICs (ISO 10383).
var suffixMICs = map[string]string{
	".SA": "bvmf",
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".BR": "xbru",
	".MI": "xmil",
	".MC": "xmad",
	".ST": "xsto",
	".CO": "xcse",
	".HE": "xhel",
	".VI": "xwbo",
	".SW": "xswx",
	".TO": "xtse",
	".V":  "xtsx",
	".T":  "xtks",
	".HK": "xhkg",
	".AX": "xasx",
	".KS": "xkrx",
	".TW": "xtai",
	".SS": "xshg",
	".SZ": "xshe",
}

// fallbackZones is used when no calendar could be loaded.
var fallbackZones = map[string]string{
	"bvmf": "America/Sao_Paulo",
	"xnys": "America/New_York",
}

// TradingCalendar calculates trading days using scmhub/calendar.
type TradingCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// MICForSymbol returns the exchange code of a symbol, NYSE when unknown.
func MICForSymbol(symbol string) string {
	if i := strings.LastIndex(symbol, "."); i >= 0 {
		if mic, ok := suffixMICs[strings.ToUpper(symbol[i:])]; ok {
			return mic
		}
	}
	return "xnys"
}

// -----------------------------------------------------------------------------

func GetCalendar(symbol string) *TradingCalendar {
	mic := MICForSymbol(symbol)

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		log.Printf("WARNING: Failed to load calendar for MIC '%s' and fallback 'xnys'. Using simple fallback (Mon-Fri 10:00-17:00 local).", mic)
		loc := time.UTC
		if zone, ok := fallbackZones[mic]; ok {
			if l, err := time.LoadLocation(zone); err == nil {
				loc = l
			}
		}
		return &TradingCalendar{MIC: mic, Fallback: true, Timezone: loc}
	}

	return &TradingCalendar{MIC: mic, Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// SessionsBetween counts the trading days in the closed date range. Only the
// calendar dates of start and end matter.
func (tc *TradingCalendar) SessionsBetween(start, end time.Time) int {
	loc := tc.Timezone
	if loc == nil {
		loc = time.UTC
	}

	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	day := time.Date(sy, sm, sd, 12, 0, 0, 0, loc)
	last := time.Date(ey, em, ed, 12, 0, 0, 0, loc)

	count := 0
	for !day.After(last) {
		if tc.IsTradingDay(day) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		hour := t.Hour()
		return hour >= 10 && hour < 17
	}

	return tc.Calendar.IsOpen(t)
}
