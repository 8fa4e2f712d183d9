package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImportFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[rule]]
type = "ignore_merchant"
[rule.payload]
merchant = "Netflix"

[[rule]]
type = "threshold"
enabled = false
[rule.payload]
minAmount = 25.0
`), 0o644))

	got, err := ImportFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, TypeIgnoreMerchant, got[0].Type)
	require.True(t, got[0].Enabled)
	require.JSONEq(t, `{"merchant":"Netflix"}`, string(got[0].Payload))

	require.Equal(t, TypeThreshold, got[1].Type)
	require.False(t, got[1].Enabled)
	require.JSONEq(t, `{"minAmount":25}`, string(got[1].Payload))
}

func TestImportFileRejectsUnknownType(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[rule]]
type = "mute_everything"
`), 0o644))

	_, err := ImportFile(path)
	require.ErrorContains(t, err, "unknown type")
}
