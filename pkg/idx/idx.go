// Package idx mints the time-ordered identifiers used for login attempts,
// audit entries and request ids.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a canonical 26 character ULID.
type ID string

const Zero ID = ""

var ErrInvalid = errors.New("idx: invalid ulid")

// ulid.MonotonicEntropy is not goroutine safe.
var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

func New() ID { return NewAt(time.Now()) }

// NewAt stamps the ID with t, truncated to the millisecond. IDs minted in
// the same millisecond still sort in creation order.
func NewAt(t time.Time) ID {
	mu.Lock()
	u := ulid.MustNew(ulid.Timestamp(t), entropy)
	mu.Unlock()
	return ID(u.String())
}

func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

func (id ID) IsZero() bool   { return id == Zero }
func (id ID) String() string { return string(id) }

// Time is the embedded timestamp in UTC, or the zero time for a malformed ID.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time()).UTC()
}
