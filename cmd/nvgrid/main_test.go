package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  width: 120\nfont:\n  guifont: Iosevka:h14\n"), 0o644))

	out, err := execute(t, "config", "--config", path, "--srv", "/tmp/nvgrid-test")
	require.NoError(t, err)

	var got struct {
		Srv string `yaml:"srv"`
		UI  struct {
			Width          int    `yaml:"width"`
			Height         int    `yaml:"height"`
			ResizeDebounce string `yaml:"resize_debounce"`
		} `yaml:"ui"`
		Font struct {
			Guifont string `yaml:"guifont"`
		} `yaml:"font"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "/tmp/nvgrid-test", got.Srv)
	assert.Equal(t, 120, got.UI.Width)
	assert.Equal(t, 30, got.UI.Height)
	assert.Equal(t, "10ms", got.UI.ResizeDebounce)
	assert.Equal(t, "Iosevka:h14", got.Font.Guifont)
}

func TestInputCmdRejectsBadKeys(t *testing.T) {
	_, err := execute(t, "input", "--key", "NoSuchKey")
	assert.ErrorContains(t, err, "unknown key")

	_, err = execute(t, "input", "--mod", "hyper", "--key", "Escape")
	assert.ErrorContains(t, err, "unknown modifier")

	_, err = execute(t, "input")
	assert.ErrorContains(t, err, "nothing to send")
}

func TestResizeCmdArgs(t *testing.T) {
	_, err := execute(t, "resize", "wide", "600")
	assert.ErrorContains(t, err, "bad width")
}
