// Package idempotency generates deterministic keys for operations that must
// apply at most once. Keys are scoped and built from sorted parameters so
// the same logical operation always hashes identically.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Scope namespaces idempotency keys per operation family.
type Scope string

const (
	ScopeWebhookEvent Scope = "webhook_event"
	ScopeTagOrder     Scope = "tag_order"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey returns a stable hex key for the scope and parameters.
func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, params[k]))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
