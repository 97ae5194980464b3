// Package identifier issues the human-readable codes for patients,
// appointments and treatments.
package identifier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jwalitptl/hospital-api/pkg/errors"
)

// Category describes one family of codes: a fixed prefix and the minimum
// number of digits after it.
type Category struct {
	Name   string
	Prefix string
	Width  int
}

var (
	Patient     = Category{Name: "patient", Prefix: "P", Width: 2}
	Appointment = Category{Name: "appointment", Prefix: "APT", Width: 3}
	Treatment   = Category{Name: "treatment", Prefix: "TRT", Width: 3}
)

// Categories lists every category, keyed by Name.
var Categories = map[string]Category{
	Patient.Name:     Patient,
	Appointment.Name: Appointment,
	Treatment.Name:   Treatment,
}

// Format renders n zero-padded to the category width. Wider numbers are
// never truncated, so P99 is followed by P100.
func Format(cat Category, n int) string {
	return fmt.Sprintf("%s%0*d", cat.Prefix, cat.Width, n)
}

// Parse returns the numeric suffix of code.
func Parse(cat Category, code string) (int, error) {
	digits, ok := strings.CutPrefix(code, cat.Prefix)
	if !ok || digits == "" {
		return 0, errors.MalformedIdentifier(code, fmt.Errorf("expected prefix %q followed by digits", cat.Prefix))
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, errors.MalformedIdentifier(code, fmt.Errorf("non-digit %q in suffix", r))
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, errors.MalformedIdentifier(code, err)
	}
	return n, nil
}

// Next returns the code following last. An empty last yields the first code.
func Next(cat Category, last string) (string, error) {
	if last == "" {
		return Format(cat, 1), nil
	}
	n, err := Parse(cat, last)
	if err != nil {
		return "", err
	}
	return Format(cat, n+1), nil
}
