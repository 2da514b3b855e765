package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, 200*time.Millisecond, cfg.Refresh)
	assert.Equal(t, 5*time.Second, cfg.Window)
	assert.Equal(t, 255, cfg.HistoryCapacity)
	assert.Equal(t, 10, cfg.PruneEvery)
	assert.Equal(t, "bpf/netmon.bpf.o", cfg.BPFObject)
	assert.Empty(t, cfg.Listen)
	assert.False(t, cfg.Plain)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"zero refresh", KeyRefresh, 0},
		{"negative window", KeyWindow, "-1s"},
		{"capacity one", KeyHistoryCapacity, 1},
		{"prune zero", KeyPruneEvery, 0},
		{"no object", KeyBPFObject, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestDemoDoesNotNeedObject(t *testing.T) {
	v := newViper()
	v.Set(KeyDemo, true)
	v.Set(KeyBPFObject, "")

	_, err := Load(v)
	assert.NoError(t, err)
}

func TestReadInExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "netmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: 10s\nprune_every: 3\nlisten: \":9100\"\n"), 0o600))

	v := newViper()
	require.NoError(t, ReadIn(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Window)
	assert.Equal(t, 3, cfg.PruneEvery)
	assert.Equal(t, ":9100", cfg.Listen)
}

func TestReadInHomeConfigAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "netmon")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("history_capacity: 64\n"), 0o600))
	t.Setenv("NETMON_REFRESH", "1s")

	v := newViper()
	require.NoError(t, ReadIn(v, ""))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.HistoryCapacity)
	assert.Equal(t, time.Second, cfg.Refresh)
}

func TestReadInMissingExplicitFile(t *testing.T) {
	err := ReadIn(newViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestResolveObject(t *testing.T) {
	exeDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(exeDir, "bpf"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(exeDir, "bpf", "netmon.bpf.o"), nil, 0o600))

	t.Chdir(t.TempDir())
	abs := filepath.Join(t.TempDir(), "x.o")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"next to executable", "bpf/netmon.bpf.o", filepath.Join(exeDir, "bpf", "netmon.bpf.o")},
		{"absolute untouched", abs, abs},
		{"missing everywhere", "bpf/other.o", "bpf/other.o"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveObject(tt.path, exeDir))
		})
	}
}

func TestResolveObjectPrefersWorkingDir(t *testing.T) {
	wd := t.TempDir()
	t.Chdir(wd)
	require.NoError(t, os.WriteFile("local.o", nil, 0o600))
	exeDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(exeDir, "local.o"), nil, 0o600))

	assert.Equal(t, "local.o", resolveObject("local.o", exeDir))
}
