package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/cub/internal/ident"
)

func findCommand(parent *cobra.Command, name string) *cobra.Command {
	for _, c := range parent.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func TestIDCommand_Registered(t *testing.T) {
	idGroup := findCommand(rootCmd, "id")
	require.NotNil(t, idGroup, "the id command family must be registered on the root command")

	for _, name := range []string{"parse", "parent", "next-letter", "next-char"} {
		assert.NotNil(t, findCommand(idGroup, name), "cub id %s must be registered", name)
	}
}

func TestRootCommand_CoreCommandsRegistered(t *testing.T) {
	for _, name := range []string{"init", "spec", "task", "verify-push", "hooks", "status"} {
		assert.NotNil(t, findCommand(rootCmd, name), "cub %s must be registered", name)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"cub-054", "specification"},
		{"cub-054A", "plan"},
		{"cub-054A-0", "epic"},
		{"cub-054A-0.1", "task"},
		{"cub-054A-0.1.2", "subtask"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ident.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kindOf(p))
		})
	}
}
