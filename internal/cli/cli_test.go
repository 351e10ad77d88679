package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/knitgrid/internal/app"
)

func TestParse(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse([]string{
		"-p", "scarf",
		"-format", "JSON",
		"-workers", "2",
		"-max-rows", "500",
		"-publish-url", "http://localhost:3000/socket.io/",
		"-publish-timeout", "3s",
		"a.hcl", "lib",
	}, out)
	require.NoError(t, err)
	require.False(t, shouldExit)

	assert.Equal(t, []string{"a.hcl", "lib"}, cfg.Paths)
	assert.Equal(t, "scarf", cfg.Pattern)
	assert.Equal(t, app.FormatJSON, cfg.Format)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 500, cfg.MaxRows)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "/", cfg.Publish.Namespace)
	assert.Equal(t, "sheet", cfg.Publish.Event)
	assert.Equal(t, 3*time.Second, cfg.Publish.Timeout)
}

func TestParse_PatternFlagWins(t *testing.T) {
	cfg, _, err := Parse([]string{"-pattern", "a", "-p", "b", "x.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.Pattern)
}

func TestParse_ServerWithoutPaths(t *testing.T) {
	cfg, shouldExit, err := Parse([]string{"-http-port", "8080"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Empty(t, cfg.Paths)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, app.DefaultMaxRows, cfg.MaxRows)
}

func TestParse_NoArgsPrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown flag", args: []string{"-nope"}, want: "flag provided but not defined"},
		{name: "format", args: []string{"-format", "yaml", "a.hcl"}, want: "invalid format"},
		{name: "log format", args: []string{"-log-format", "xml", "a.hcl"}, want: "invalid log-format"},
		{name: "log level", args: []string{"-log-level", "loud", "a.hcl"}, want: "invalid log-level"},
		{name: "workers", args: []string{"-workers", "-3", "a.hcl"}, want: "must not be negative"},
		{name: "max rows", args: []string{"-max-rows", "-1", "a.hcl"}, want: "max rows must not be negative"},
		{name: "publish url", args: []string{"-publish-url", "localhost", "a.hcl"}, want: "scheme and a host"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}
