package root_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mhagen/fintrack/cmd/root"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "fintrack", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "deduplication")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
}

func TestRootCommand_Flags(t *testing.T) {
	root.Init()

	assert.NotNil(t, root.Cmd.PersistentFlags().Lookup("db"))
	assert.NotNil(t, root.Cmd.PersistentFlags().Lookup("threshold"))
}
