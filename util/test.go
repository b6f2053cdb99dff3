package util

import (
	"fmt"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func AssertEqual(t *testing.T, expected any, actual any) {
	if reflect.DeepEqual(expected, actual) {
		return
	}

	expectedString, expectedIsString := expected.(string)
	actualString, actualIsString := actual.(string)
	if expectedIsString && actualIsString {
		printStringDiff(expectedString, actualString)
	} else {
		sigolo.Errorb(1, "Expect to be equal.\nExpected: %+v\n----------\nActual  : %+v\n", expected, actual)
	}
	t.Fail()
}

func AssertApprox[T float32 | float64](t *testing.T, expected T, actual T, accuracy T) {
	if math.IsNaN(float64(actual)) || math.Abs(float64(expected-actual)) > float64(accuracy) {
		sigolo.Errorb(1, "Expect to be approximately equal (accuracy %v).\nExpected: %v\nActual  : %v", accuracy, expected, actual)
		t.Fail()
	}
}

// AssertGrid compares two grids of swath values. Two NaN fill values count as equal.
func AssertGrid(t *testing.T, expected [][]float64, actual [][]float64) {
	if len(expected) != len(actual) {
		sigolo.Errorb(1, "Expected %d lines but got %d", len(expected), len(actual))
		t.Fail()
		return
	}

	for line := range expected {
		if len(expected[line]) != len(actual[line]) {
			sigolo.Errorb(1, "Line %d: Expected %d pixels but got %d", line, len(expected[line]), len(actual[line]))
			t.Fail()
			continue
		}
		for pixel, expectedValue := range expected[line] {
			actualValue := actual[line][pixel]
			bothNaN := math.IsNaN(expectedValue) && math.IsNaN(actualValue)
			if !bothNaN && expectedValue != actualValue {
				sigolo.Errorb(1, "Value at line %d, pixel %d differs.\nExpected: %v\nActual  : %v", line, pixel, expectedValue, actualValue)
				t.Fail()
			}
		}
	}
}

// printStringDiff prints both strings line by line side by side and marks the lines that differ.
func printStringDiff(expected string, actual string) {
	expectedLines := strings.Split(strings.ReplaceAll(expected, "\n", "\\n\n"), "\n")
	actualLines := strings.Split(strings.ReplaceAll(actual, "\n", "\\n\n"), "\n")

	sigolo.Errorb(2, "Expect to be equal.\n|   | %-50s | %-50s |", "Expected", "Actual")
	fmt.Printf("|%s|\n", strings.Repeat("-", 109))

	lineCount := max(len(expectedLines), len(actualLines))
	for i := 0; i < lineCount; i++ {
		expectedLine := lineOrEmpty(expectedLines, i)
		actualLine := lineOrEmpty(actualLines, i)

		changeMark := " "
		if i >= len(expectedLines) || i >= len(actualLines) || expectedLine != actualLine {
			changeMark = "*"
		}

		fmt.Printf("| %s | %-50s | %-50s |\n", changeMark, expectedLine, actualLine)
	}
}

func lineOrEmpty(lines []string, i int) string {
	if i >= len(lines) {
		return ""
	}
	return "\"" + lines[i] + "\""
}

func AssertNil(t *testing.T, value any) {
	if !isNil(value) {
		sigolo.Errorb(1, "Expect to be 'nil' but was: %#v", value)
		t.Fail()
	}
}

func AssertNotNil(t *testing.T, value any) {
	if isNil(value) {
		sigolo.Errorb(1, "Expect NOT to be 'nil' but was: %#v", value)
		t.Fail()
	}
}

// isNil is true for nil and nil values of nillable kinds, e.g. a nil pointer within an interface.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return reflect.ValueOf(value).IsNil()
	}
	return false
}

// AssertError checks the message of the error. A nil error fails the test.
func AssertError(t *testing.T, expectedMessage string, err error) {
	if err == nil {
		sigolo.Errorb(1, "Expected error with message: %s\nActual error: nil", expectedMessage)
		t.FailNow()
	}
	if expectedMessage != err.Error() {
		sigolo.Errorb(1, "Expected message: %s\nActual error message: %s", expectedMessage, err.Error())
		t.Fail()
	}
}

// AssertErrorIs checks that the error or one of the errors it wraps is the expected error.
func AssertErrorIs(t *testing.T, expected error, err error) {
	if !errors.Is(err, expected) {
		sigolo.Errorb(1, "Expected error wrapping: %v\nActual error: %v", expected, err)
		t.Fail()
	}
}

func AssertTrue(t *testing.T, b bool) {
	if !b {
		sigolo.Errorb(1, "Expected true but got false")
		t.Fail()
	}
}

func AssertFalse(t *testing.T, b bool) {
	if b {
		sigolo.Errorb(1, "Expected false but got true")
		t.Fail()
	}
}
