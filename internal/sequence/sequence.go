// Package sequence issues human-readable, day-scoped codes such as
// RSV-20251210-0007.
package sequence

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

const dayLayout = "20060102"

// Well-known prefixes
const (
	PrefixReservation = "RSV"
	PrefixSale        = "SAL"
	PrefixInvoice     = "INV"
)

var (
	prefixPattern = regexp.MustCompile(`^[A-Z]{2,8}$`)
	codePattern   = regexp.MustCompile(`^([A-Z]{2,8})-(\d{8})-(\d{4,})$`)
)

// Counter atomically advances the counter row of (prefix, day).
// store.Queries satisfies it when bound to a write transaction.
type Counter interface {
	NextSequence(ctx context.Context, prefix, scopeDate string) (int, error)
}

// Code is a parsed sequence code
type Code struct {
	Prefix string
	Day    time.Time
	Number int
}

func (c Code) String() string {
	return Format(c.Prefix, c.Day, c.Number)
}

// Format renders PREFIX-YYYYMMDD-NNNN
func Format(prefix string, day time.Time, n int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format(dayLayout), n)
}

// Parse splits a code into its parts
func Parse(code string) (Code, error) {
	m := codePattern.FindStringSubmatch(code)
	if m == nil {
		return Code{}, errors.Validation("malformed code %q", code)
	}
	day, err := time.Parse(dayLayout, m[2])
	if err != nil {
		return Code{}, errors.Validation("malformed code date in %q", code)
	}
	n, err := strconv.Atoi(m[3])
	if err != nil || n <= 0 {
		return Code{}, errors.Validation("malformed code number in %q", code)
	}
	return Code{Prefix: m[1], Day: day, Number: n}, nil
}

// Next returns the next code for prefix on day. Two calls in different
// transactions never return the same code because the counter row is
// advanced under the database write lock.
func Next(ctx context.Context, counter Counter, prefix string, day time.Time) (string, error) {
	if !prefixPattern.MatchString(prefix) {
		return "", errors.Validation("invalid code prefix %q", prefix)
	}
	n, err := counter.NextSequence(ctx, prefix, day.Format(dayLayout))
	if err != nil {
		return "", err
	}
	return Format(prefix, day, n), nil
}
