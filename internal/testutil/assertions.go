package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertLogged checks that every given substring shows up on a single line
// of the captured log output.
func AssertLogged(t *testing.T, logs *SafeBuffer, parts ...string) {
	t.Helper()

	for _, line := range strings.Split(logs.String(), "\n") {
		found := true
		for _, p := range parts {
			if !strings.Contains(line, p) {
				found = false
				break
			}
		}
		if found {
			return
		}
	}
	require.Failf(t, "log line not found", "no line contains all of %q in:\n%s", parts, logs.String())
}
