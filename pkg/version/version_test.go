package version

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInfo() Info {
	return Info{
		Version:   "0.3.0",
		GitCommit: "abc123",
		BuildTime: "2025-08-25T09:34:29Z",
		GoVersion: "go1.25.1",
	}
}

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, GitCommit, info.GitCommit)
	assert.Equal(t, BuildTime, info.BuildTime)
	assert.Contains(t, info.GoVersion, "go")
}

func TestInfo_String(t *testing.T) {
	assert.Equal(t, "skillchef 0.3.0 (commit abc123, built 2025-08-25T09:34:29Z, go1.25.1)", sampleInfo().String())
}

func TestInfo_JSON(t *testing.T) {
	jsonString, err := sampleInfo().JSON()
	require.NoError(t, err)

	var parsed Info
	require.NoError(t, json.Unmarshal([]byte(jsonString), &parsed))
	assert.Equal(t, sampleInfo(), parsed)

	expectedJSON := `{
  "version": "0.3.0",
  "gitCommit": "abc123",
  "buildTime": "2025-08-25T09:34:29Z",
  "goVersion": "go1.25.1"
}`
	assert.Equal(t, expectedJSON, jsonString)
}
