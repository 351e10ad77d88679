package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("debug", "json", &buf)
	logger.Debug("hello", "rows", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "knitgrid", rec["app"])
	assert.EqualValues(t, 3, rec["rows"])
}

func TestNewLogger_Levels(t *testing.T) {
	testCases := []struct {
		level string
		debug bool
		info  bool
	}{
		{level: "debug", debug: true, info: true},
		{level: "info", info: true},
		{level: "warn"},
		{level: "bogus"},
		{level: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(tc.level, "text", &buf)
			logger.Debug("d")
			assert.Equal(t, tc.debug, bytes.Contains(buf.Bytes(), []byte("msg=d")))
			buf.Reset()
			logger.Info("i")
			assert.Equal(t, tc.info, bytes.Contains(buf.Bytes(), []byte("msg=i")))
		})
	}
}
