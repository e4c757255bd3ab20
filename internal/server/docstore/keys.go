package docstore

import "strings"

// Logical document keys. Attendance is stored as one document per date so
// the write unit matches one date's data.
const (
	KeySettings     = "settings"
	KeyAreas        = "areas"
	KeyUsers        = "users"
	KeySession      = "session"
	KeyDesignations = "designations"

	AttendancePrefix = "attendance/"
)

// AttendanceKey returns the document key for a YYYY-MM-DD date string.
func AttendanceKey(date string) string {
	return AttendancePrefix + date
}

// DateFromKey extracts the date from an attendance document key. The second
// return value is false for keys outside the attendance prefix.
func DateFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, AttendancePrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, AttendancePrefix), true
}
