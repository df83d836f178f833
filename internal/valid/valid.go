// valid checks identifiers that come from users before they reach the DB.
package valid

import (
	"fmt"
	"net/http"
	"regexp"
)

var (
	eventID = regexp.MustCompile(`^[0-9]+[a-z]?[0-9]+$`) // event ids are of the form 2024p256871 or a number e.g., 345679
	// alpha, number, _, ?, * and "--" (exactly 2 hyphens only).
	code = regexp.MustCompile(`^([\w*?]+|--)$`)
)

type Validator func(string) error

// implements weft.Error
type Error struct {
	Code int
	Err  error
}

func (s Error) Error() string {
	if s.Err == nil {
		return "<nil>"
	}
	return s.Err.Error()
}

func (s Error) Status() int {
	return s.Code
}

// EventID for validating earthquake event ids.
func EventID(s string) error {
	if eventID.MatchString(s) {
		return nil
	}

	return Error{Code: http.StatusBadRequest, Err: fmt.Errorf("invalid event id: %s", s)}
}

// Code for validating network, station and location codes that may use the
// * and ? wildcards.
func Code(s string) error {
	if code.MatchString(s) {
		return nil
	}

	return Error{Code: http.StatusBadRequest, Err: fmt.Errorf("invalid code: %s", s)}
}
