package harness

import (
	"context"
	"os"
	"os/user"
	"strings"
)

// DeriveName derives the remote deployment name from the test group name and
// the invoking principal's identity. Every run of non-alphanumeric characters
// collapses to a single hyphen, so the result contains only [A-Za-z0-9-].
// The derivation is pure: the same inputs always yield the same name, which
// makes re-runs update the existing remote stack instead of creating a new
// one per run.
func DeriveName(group, principal string) string {
	return sanitizeName(group + "-" + principal)
}

func sanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// EnvIdentity resolves the principal from the STACKPROBE_PRINCIPAL
// environment variable, falling back to the OS user name. Used when no
// cloud identity resolver is configured.
type EnvIdentity struct{}

// Principal implements IdentityResolver.
func (EnvIdentity) Principal(_ context.Context) (string, error) {
	if p := os.Getenv("STACKPROBE_PRINCIPAL"); p != "" {
		return p, nil
	}
	u, err := user.Current()
	if err != nil {
		return "", NewConfigurationError("cannot resolve invoking principal", err)
	}
	return u.Username, nil
}
