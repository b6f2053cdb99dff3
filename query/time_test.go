package query

import (
	"swotdb/util"
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	// Act
	rfc, err := ParseTime("2023-05-10T14:00:00+02:00")
	util.AssertNil(t, err)
	date, err := ParseTime("2023-05-10")
	util.AssertNil(t, err)
	dateTime, err := ParseTime("2023-05-10T12:30:00")
	util.AssertNil(t, err)

	// Assert
	util.AssertEqual(t, time.Date(2023, 5, 10, 12, 0, 0, 0, time.UTC), *rfc)
	util.AssertEqual(t, time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC), *date)
	util.AssertEqual(t, time.Date(2023, 5, 10, 12, 30, 0, 0, time.UTC), *dateTime)
}

func TestParseTime_unbounded(t *testing.T) {
	// Act
	empty, errEmpty := ParseTime("")
	wildcard, errWildcard := ParseTime(" * ")

	// Assert
	util.AssertNil(t, errEmpty)
	util.AssertNil(t, errWildcard)
	util.AssertTrue(t, empty == nil)
	util.AssertTrue(t, wildcard == nil)
}

func TestParseTime_invalid(t *testing.T) {
	// Act
	_, err := ParseTime("10.05.2023")

	// Assert
	util.AssertError(t, "Invalid time '10.05.2023', expected RFC 3339 (e.g. 2023-05-10T12:00:00Z) or a date like 2023-05-10", err)
}
