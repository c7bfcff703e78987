package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot_Subcommands(t *testing.T) {
	t.Parallel()
	cmd := Root()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"init", "deploy", "analyze", "dns", "accounts", "health", "version", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestRoot_VerboseFlag(t *testing.T) {
	t.Parallel()
	flag := Root().PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
	assert.Equal(t, "false", flag.DefValue)
}
