// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docxify/internal/journal"
	"github.com/pdiddy/docxify/pkg/types"
)

func TestConfigFromDefaults(t *testing.T) {
	c, err := configFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), c)
}

func TestConfigFromYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
server:
  addr: ":9090"
  max_upload_bytes: 1048576
  workers: 3
  shutdown_timeout: 5s
converter:
  backend: container
  image: pandoc/core:3.1
  timeout: 30s
journal:
  path: ""
log:
  level: debug
  json: true
`)))

	c, err := configFrom(v)
	require.NoError(t, err)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, int64(1<<20), c.Server.MaxUploadBytes)
	assert.Equal(t, 3, c.Server.Workers)
	assert.Equal(t, 5*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, types.BackendContainer, c.Converter.Backend)
	assert.Equal(t, "pandoc/core:3.1", c.Converter.Image)
	assert.Equal(t, 30*time.Second, c.Converter.Timeout)
	assert.Equal(t, "", c.Journal.Path, "an explicit empty path disables the journal")
	assert.Equal(t, "debug", c.Log.Level)
	assert.True(t, c.Log.JSON)
	assert.Equal(t, "pandoc", c.Converter.Binary, "unset keys keep defaults")
}

func TestConfigFromInvalid(t *testing.T) {
	v := viper.New()
	v.Set("converter.backend", "wasm")
	v.Set("server.workers", -1)

	_, err := configFrom(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend")
	assert.Contains(t, err.Error(), "workers")
}

func sampleReport() historyReport {
	return historyReport{
		Stats: journal.Stats{
			Total:       2,
			ByStatus:    map[types.ConversionStatus]int{types.ConversionDone: 1, types.ConversionFailed: 1},
			ByFormat:    map[types.FormatID]int{types.FormatCommonMark: 2},
			AvgDuration: 1500 * time.Millisecond,
			OutputBytes: 12000,
		},
		Entries: []journal.Entry{
			{ID: "b", StartedAt: time.Now().Add(-time.Minute), Source: "web", InputExt: "md", Format: types.FormatCommonMark,
				Status: types.ConversionFailed, ErrorKind: types.KindConverterFailed, Duration: time.Second},
			{ID: "a", StartedAt: time.Now().Add(-time.Hour), Source: "cli", InputExt: "md", Format: types.FormatCommonMark,
				Status: types.ConversionDone, Duration: 2 * time.Second, InputBytes: 10, OutputBytes: 12000},
		},
	}
}

func TestWriteHistoryTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHistory(&buf, "table", sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "converter_failed")
	assert.Contains(t, out, "12 kB")
	assert.Contains(t, out, "2 conversions, 1 converted, 1 failed; avg 1.5s, 12 kB produced")
	assert.Less(t, strings.Index(out, "converter_failed"), strings.Index(out, "12 kB"), "newest entry first")
}

func TestWriteHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHistory(&buf, "", historyReport{}))
	assert.Equal(t, "No conversions recorded.\n", buf.String())
}

func TestWriteHistoryJSONAndYAML(t *testing.T) {
	var js bytes.Buffer
	require.NoError(t, writeHistory(&js, "json", sampleReport()))
	var decoded historyReport
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Stats.Total)
	require.Len(t, decoded.Entries, 2)
	assert.Equal(t, types.KindConverterFailed, decoded.Entries[0].ErrorKind)

	var ym bytes.Buffer
	require.NoError(t, writeHistory(&ym, "yaml", sampleReport()))
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &raw))
	assert.Contains(t, raw, "stats")
	assert.Contains(t, ym.String(), "status: failed")
}

func TestWriteHistoryUnknownOutput(t *testing.T) {
	err := writeHistory(&bytes.Buffer{}, "xml", historyReport{})
	assert.ErrorContains(t, err, "unsupported output")
}

func TestWriteVersion(t *testing.T) {
	b := buildInfo{Version: "1.4.0", Revision: "0123456789ab", Go: "go1.24.1", Platform: "linux/amd64"}

	var text bytes.Buffer
	require.NoError(t, writeVersion(&text, b, false))
	assert.Equal(t, "docxify 1.4.0 (0123456789ab) go1.24.1 linux/amd64\n", text.String())

	text.Reset()
	b.Revision = ""
	require.NoError(t, writeVersion(&text, b, false))
	assert.Equal(t, "docxify 1.4.0 go1.24.1 linux/amd64\n", text.String())

	var js bytes.Buffer
	require.NoError(t, writeVersion(&js, b, true))
	var decoded buildInfo
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, b, decoded)
	assert.NotContains(t, js.String(), "revision")
}

func TestCurrentBuild(t *testing.T) {
	b := currentBuild()
	assert.Equal(t, version, b.Version)
	assert.Equal(t, runtime.Version(), b.Go)
	assert.Contains(t, b.Platform, "/")
}
