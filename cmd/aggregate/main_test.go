package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twaggregate/internal/allocation"
	"twaggregate/internal/config"
)

func TestSampleCmd(t *testing.T) {
	cmd := sampleCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, allocation.SampleDocument, out.String())
}

func TestPathCmd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AGGREGATE_CONFIG_DIR", dir)
	config.Bind(viper.GetViper())

	cmd := pathCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--start", "20210723T000000Z", "--end", "20210730T000000Z"})
	require.NoError(t, cmd.Execute())

	got := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(got, filepath.Join(dir, "allocation", "2021")), got)
	assert.True(t, strings.HasSuffix(got, ".json"), got)
	assert.Contains(t, filepath.Base(got), "week-of-")
}

func TestPathCmdRequiresFlags(t *testing.T) {
	cmd := pathCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--start", "20210723T000000Z"})
	assert.Error(t, cmd.Execute())
}

func TestInteractive(t *testing.T) {
	assert.False(t, interactive(strings.NewReader("")))

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, interactive(f))
}

func TestCheckCmd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AGGREGATE_CONFIG_DIR", dir)
	t.Setenv("AGGREGATE_SAMPLE", "1")
	config.Bind(viper.GetViper())

	cmd := checkCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--start", "20210723T120000Z", "--end", "20210724T120000Z"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), " OK")
	assert.Contains(t, out.String(), "office project")
	assert.Contains(t, out.String(), "4 hrs 0 mins")
}

func TestConfigShowCmd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AGGREGATE_CONFIG_DIR", dir)
	config.Bind(viper.GetViper())

	cmd := configShowCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"config_dir": "`+dir+`"`)
	assert.Contains(t, out.String(), `"format": "text"`)
}
