package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber returns a human-readable order number such as ORD-4821337-9F3A.
func NewOrderNumber(now time.Time) string {
	ts := now.UnixMilli() % 10_000_000
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])

	return fmt.Sprintf("ORD-%d-%s", ts, suffix)
}
