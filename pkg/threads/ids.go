package threads

import (
	"crypto/rand"
	"fmt"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// randSuffix returns a short random base36 string. Combined with the
// millisecond timestamp this makes collisions vanishingly unlikely within
// a single store's lifetime; a collision is not recoverable and is not
// handled.
func randSuffix() string {
	b := make([]byte, 9)
	if _, err := rand.Read(b); err != nil {
		// degrade to a time-derived suffix rather than fail id generation
		n := time.Now().UnixNano()
		for i := range b {
			b[i] = base36[n%36]
			n /= 36
		}
		return string(b)
	}
	for i := range b {
		b[i] = base36[int(b[i])%36]
	}
	return string(b)
}

// GenThreadID returns a fresh thread identifier.
func GenThreadID() string {
	return fmt.Sprintf("thread_%d_%s", time.Now().UnixMilli(), randSuffix())
}

// GenMessageID returns a fresh message identifier.
func GenMessageID() string {
	return fmt.Sprintf("msg_%d_%s", time.Now().UnixMilli(), randSuffix())
}
