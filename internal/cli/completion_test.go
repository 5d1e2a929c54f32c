package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompletion_Bash tests bash completion script generation.
func TestCompletion_Bash(t *testing.T) {
	var buf bytes.Buffer

	// Call the completion generator directly with the root command
	err := rootCmd.GenBashCompletion(&buf)
	require.NoError(t, err)

	// Verify output is not empty
	output := buf.String()
	assert.NotEmpty(t, output, "bash completion should generate output")
	assert.Contains(t, output, "bash", "completion should mention bash")
}

// TestCompletion_Zsh tests zsh completion script generation.
func TestCompletion_Zsh(t *testing.T) {
	var buf bytes.Buffer

	// Call the completion generator directly
	err := rootCmd.GenZshCompletion(&buf)
	require.NoError(t, err)

	// Verify output is not empty
	output := buf.String()
	assert.NotEmpty(t, output)
	assert.Greater(t, len(output), 10, "zsh completion should have content")
}

// TestCompletion_Fish tests fish completion script generation.
func TestCompletion_Fish(t *testing.T) {
	var buf bytes.Buffer

	// Call the completion generator directly
	err := rootCmd.GenFishCompletion(&buf, true)
	require.NoError(t, err)

	// Verify output is not empty
	output := buf.String()
	assert.NotEmpty(t, output)
	assert.Contains(t, output, "complete") // fish uses 'complete' command
}

// TestCompletion_PowerShell tests powershell completion script generation.
func TestCompletion_PowerShell(t *testing.T) {
	var buf bytes.Buffer

	// Call the completion generator directly
	err := rootCmd.GenPowerShellCompletionWithDesc(&buf)
	require.NoError(t, err)

	// Verify output is not empty
	output := buf.String()
	assert.NotEmpty(t, output)
	assert.Contains(t, output, "Register-ArgumentCompleter") // PowerShell completion marker
}

// TestCompletion_Command runs the completion command for every shell.
func TestCompletion_Command(t *testing.T) {
	node := newTestNode(t)
	testEnv(t, node.URL, deadURL(t))

	tests := []struct {
		shell  string
		marker string
	}{
		{"bash", "__start_loopchain"},
		{"zsh", "#compdef loopchain"},
		{"fish", "complete -c loopchain"},
		{"powershell", "Register-ArgumentCompleter"},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			stdout, _, err := runCLI(t, "completion", tt.shell)
			require.NoError(t, err, "completion generation should succeed for %s", tt.shell)
			assert.Contains(t, stdout, tt.marker)
		})
	}
}

// TestCompletion_InvalidShell rejects shells without a generator.
func TestCompletion_InvalidShell(t *testing.T) {
	node := newTestNode(t)
	testEnv(t, node.URL, deadURL(t))

	_, _, err := runCLI(t, "completion", "tcsh")
	require.Error(t, err)
}
