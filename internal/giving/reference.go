package giving

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// NewReference builds the external-facing idempotency key for a
// transaction, e.g. "GIV-1714651200-042137".
func NewReference(prefix string) string {
	timestamp := time.Now().Unix()
	random := rand.Intn(999999)
	return fmt.Sprintf("%s-%d-%06d", prefix, timestamp, random)
}

// NewSessionID returns the opaque id handed to the gateway for one charge
// attempt. Every attempt gets a fresh one, retries included.
func NewSessionID() string {
	return uuid.NewString()
}
