package service

import (
	"strings"

	"github.com/tradeflowhq/tradeflow/internal/config"
)

// BypassResolver decides whether an email belongs to the operator allowlist
// granted top-tier entitlements without a real subscription. It is a single
// injected capability so the classifier and the resolver cannot drift apart,
// and tests can substitute it deterministically.
type BypassResolver interface {
	ResolveBypass(email string) bool
}

type allowlistBypassResolver struct {
	emails map[string]struct{}
}

// NewBypassResolver builds a resolver from the configured allowlist.
// Matching is case-insensitive and ignores surrounding whitespace.
func NewBypassResolver(cfg *config.Configuration) BypassResolver {
	emails := make(map[string]struct{}, len(cfg.Auth.BypassEmails))
	for _, email := range cfg.Auth.BypassEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			emails[email] = struct{}{}
		}
	}
	return &allowlistBypassResolver{emails: emails}
}

func (r *allowlistBypassResolver) ResolveBypass(email string) bool {
	if email == "" {
		return false
	}
	_, ok := r.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
