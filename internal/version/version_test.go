package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	v, sha, built := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = v, sha, built }()

	Version, GitSHA, BuildTime = "1.2.0", "abc123", "2026-01-01T00:00:00Z"
	assert.Equal(t, "broadside 1.2.0 (abc123, built 2026-01-01T00:00:00Z)", String())
}
