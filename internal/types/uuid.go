package types

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	UUID_PREFIX_COMPANY         = "comp"
	UUID_PREFIX_COMPANY_BILLING = "bill"
	UUID_PREFIX_WEBHOOK_EVENT   = "wevt"
	UUID_PREFIX_TAG_ORDER       = "tago"
	UUID_PREFIX_REQUEST         = "req"
)

// GenerateUUID returns a lowercase ULID, sortable by creation time.
func GenerateUUID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}

// GenerateUUIDWithPrefix returns a prefixed ULID, e.g. "comp_01H...".
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}
