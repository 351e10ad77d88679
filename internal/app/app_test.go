package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/knitgrid/internal/compiler"
)

const scarfSource = `
pattern "scarf" {
  row {
    stitches = [CO(8)]
  }
  repeat {
    times = 3
    row {
      stitches = [to_end(K, P)]
    }
    row {
      stitches = [to_end(K, P)]
    }
  }
  row {
    stitches = [to_end(BO)]
  }
}

show "Scarf" {
  pattern = scarf
}
`

const mismatchSource = `
pattern "main" {
  row {
    stitches = [CO(20)]
  }
  block {
    lanes = [fill(stst, 18, 2), fill(stst, 20, 2)]
  }
}
`

func writePattern(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))
	return path
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(Config{Paths: []string{"a.hcl"}})
	require.NoError(t, err)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, DefaultWorkerCount, cfg.WorkerCount)
	assert.Equal(t, DefaultMaxRows, cfg.MaxRows)

	cfg, err = NewConfig(Config{HTTPPort: 8080})
	require.NoError(t, err)
	assert.Empty(t, cfg.Paths)

	testCases := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "no path", cfg: Config{}, want: "path is required"},
		{name: "bad format", cfg: Config{Paths: []string{"a"}, Format: "yaml"}, want: "invalid format"},
		{name: "negative workers", cfg: Config{Paths: []string{"a"}, WorkerCount: -1}, want: "must not be negative"},
		{name: "negative max rows", cfg: Config{Paths: []string{"a"}, MaxRows: -1}, want: "max rows must not be negative"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(tc.cfg)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestRun_Text(t *testing.T) {
	a, out, logs, err := SetupAppTest(t, Config{Paths: []string{writePattern(t, scarfSource)}})
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t,
		"CO 8.\n"+
			"**\n"+
			"WS: *K, P; rep from * to end. (8 sts)\n"+
			"RS: *K, P; rep from * to end. (8 sts)\n"+
			"rep from ** 3 times\n"+
			"WS: *BO; rep from * to end. (8 sts bound off)\n",
		out.String())
	assert.Contains(t, logs.String(), "Compilation finished.")
}

func TestRun_JSON(t *testing.T) {
	a, out, _, err := SetupAppTest(t, Config{
		Paths:  []string{writePattern(t, scarfSource)},
		Format: FormatJSON,
	})
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()))

	var resp struct {
		Sheets []*compiler.Sheet `json:"sheets"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.String()), &resp))
	require.Len(t, resp.Sheets, 1)
	s := resp.Sheets[0]
	assert.Equal(t, "Scarf", s.Title)
	assert.Equal(t, "scarf", s.Pattern)
	assert.Equal(t, 8, s.CastOn)
	assert.Equal(t, 8, s.Height)
}

func TestRun_CompileErrorDiagnostics(t *testing.T) {
	path := writePattern(t, mismatchSource)
	a, out, _, err := SetupAppTest(t, Config{Paths: []string{path}})
	require.NoError(t, err)

	runErr := a.Run(context.Background())
	require.Error(t, runErr)
	assert.Empty(t, out.String())

	var b strings.Builder
	require.NoError(t, WriteDiagnostics(&b, a.Model().Files, runErr))
	text := b.String()
	assert.Contains(t, text, "Error: StitchCountMismatch")
	assert.Contains(t, text, "main.hcl")
}

func TestNewApp_LoadError(t *testing.T) {
	_, _, _, err := SetupAppTest(t, Config{Paths: []string{writePattern(t, "pattern \"x\" {")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load patterns")

	var b strings.Builder
	require.NoError(t, WriteDiagnostics(&b, nil, err))
	assert.Contains(t, b.String(), "Error: ")
}

func TestCompile_NoWorkspace(t *testing.T) {
	a, _, _, err := SetupAppTest(t, Config{HTTPPort: 1})
	require.NoError(t, err)
	_, err = a.Compile(context.Background())
	assert.ErrorIs(t, err, ErrNoWorkspace)
}

func TestHandler_Health(t *testing.T) {
	a, _, _, err := SetupAppTest(t, Config{HTTPPort: 1})
	require.NoError(t, err)
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_Compile(t *testing.T) {
	a, _, _, err := SetupAppTest(t, Config{HTTPPort: 1})
	require.NoError(t, err)
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	t.Run("ok", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/compile?pattern=scarf", "text/plain", strings.NewReader(scarfSource))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body sheetsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Sheets, 1)
		assert.Equal(t, "scarf", body.Sheets[0].Title)
		assert.Equal(t, "CO 8.", body.Sheets[0].Lines[0])
	})

	t.Run("diagnostic", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/compile", "text/plain", strings.NewReader(mismatchSource))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var body struct {
			Error struct {
				Kind     string `json:"kind"`
				Row      int    `json:"row"`
				Expected int    `json:"expected"`
				Actual   int    `json:"actual"`
				Lanes    []int  `json:"lanes"`
			} `json:"error"`
			Subject    string `json:"subject"`
			Diagnostic string `json:"diagnostic"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "StitchCountMismatch", body.Error.Kind)
		assert.Equal(t, 2, body.Error.Row)
		assert.Equal(t, 20, body.Error.Expected)
		assert.Equal(t, 38, body.Error.Actual)
		assert.Equal(t, []int{18, 20}, body.Error.Lanes)
		assert.Contains(t, body.Subject, requestFilename)
		assert.Contains(t, body.Diagnostic, "StitchCountMismatch")
	})

	t.Run("row limit", func(t *testing.T) {
		src := `
pattern "huge" {
  row {
    stitches = [CO(4)]
  }
  repeat {
    times = 2000000000
    row {
      stitches = [to_end(K)]
    }
  }
}
`
		resp, err := http.Post(srv.URL+"/compile?pattern=huge", "text/plain", strings.NewReader(src))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var body struct {
			Error struct {
				Kind     string `json:"kind"`
				Expected int    `json:"expected"`
			} `json:"error"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "RowLimit", body.Error.Kind)
		assert.Equal(t, DefaultMaxRows, body.Error.Expected)
	})

	t.Run("imports refused", func(t *testing.T) {
		src := `using "lib" {}`
		resp, err := http.Post(srv.URL+"/compile", "text/plain", strings.NewReader(src))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("method", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/compile")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}
