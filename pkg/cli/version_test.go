package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "gradpath-engine version test-version-1.0.0")
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}

	assert.True(t, names["serve"])
	assert.True(t, names["export-faculty"])
	assert.True(t, names["version"])
}

func TestRootCmd_AcceptsServeFlags(t *testing.T) {
	flag := rootCmd.Flags().Lookup("max-tasks")
	if assert.NotNil(t, flag, "bare invocation runs serve, so it takes serve's flags") {
		assert.Equal(t, "4", flag.DefValue)
	}
}
