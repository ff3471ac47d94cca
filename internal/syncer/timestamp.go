package syncer

// The conflict check only ever compares two wiki timestamps within a small
// tolerance, so a fixed-format parser is enough. If precision ever matters
// beyond that, swap parseUTCSeconds for a real time parse in one place.

const utcLayoutLen = len("2006-01-02T15:04:05Z")

// parseUTCSeconds converts a MediaWiki API timestamp ("2024-05-01T10:00:00Z")
// to Unix seconds. ok is false for anything not matching the fixed UTC
// layout; callers treat unparseable timestamps as non-conflicting.
func parseUTCSeconds(ts string) (int64, bool) {
	if len(ts) != utcLayoutLen || ts[utcLayoutLen-1] != 'Z' {
		return 0, false
	}
	if ts[4] != '-' || ts[7] != '-' || ts[10] != 'T' || ts[13] != ':' || ts[16] != ':' {
		return 0, false
	}
	year, ok1 := digits(ts[0:4])
	month, ok2 := digits(ts[5:7])
	day, ok3 := digits(ts[8:10])
	hour, ok4 := digits(ts[11:13])
	minute, ok5 := digits(ts[14:16])
	second, ok6 := digits(ts[17:19])
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return 0, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 60 {
		return 0, false
	}
	days := daysFromCivil(year, month, day)
	return days*86400 + hour*3600 + minute*60 + second, true
}

func digits(s string) (int64, bool) {
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}

// daysFromCivil counts days since 1970-01-01 for a proleptic Gregorian date.
// Standard shifted-era arithmetic: years start in March so leap days land at
// the end of the cycle.
func daysFromCivil(y, m, d int64) int64 {
	if m <= 2 {
		y--
	}
	era := y / 400
	if y < 0 && y%400 != 0 {
		era--
	}
	yoe := y - era*400
	var mShift int64
	if m > 2 {
		mShift = m - 3
	} else {
		mShift = m + 9
	}
	doy := (153*mShift+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}
