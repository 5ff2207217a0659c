package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	for _, key := range keys {
		t.Setenv(EnvPrefix+"_"+strings.ToUpper(key), "")
	}

	cfg, err := Load(home)
	require.NoError(t, err)

	settings := FromViper(cfg)
	assert.Equal(t, filepath.Join(home, ".claude", "agent_network.db"), settings.DB)
	assert.Equal(t, filepath.Join(home, ".claude", "agent_network.log"), settings.LogPath)
	assert.Equal(t, filepath.Join(home, ".claude", "agent_network", "sessions"), settings.SessionsDir)
	assert.Equal(t, DefaultListen, settings.Listen)
	assert.Equal(t, DefaultLogLevel, settings.LogLevel)
	assert.Equal(t, DefaultPeerTimeout, settings.PeerTimeout)
	assert.Empty(t, settings.SessionID)
}

func TestLoadLayersFileEnvFileAndEnvironment(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".claude"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".claude", "agent_network.toml"), []byte(
		"machine_name = \"from-file\"\nlisten = \"127.0.0.1:9000\"\npeer_timeout = \"3s\"\n",
	), 0o600))

	envFile := filepath.Join(home, "agent.env")
	require.NoError(t, os.WriteFile(envFile, []byte("AGENT_NETWORK_HTTP_URL=http://10.0.0.5:7777/\n"), 0o600))

	t.Setenv("AGENT_NETWORK_MACHINE_NAME", "from-env")
	t.Setenv("AGENT_NETWORK_SESSION_ID", " abc ")
	t.Setenv("AGENT_NETWORK_HTTP_URL", "")
	require.NoError(t, os.Unsetenv("AGENT_NETWORK_HTTP_URL"))

	cfg, err := Load(home, envFile, filepath.Join(home, "missing.env"))
	require.NoError(t, err)

	settings := FromViper(cfg)
	assert.Equal(t, "from-env", settings.MachineName)
	assert.Equal(t, "127.0.0.1:9000", settings.Listen)
	assert.Equal(t, 3*time.Second, settings.PeerTimeout)
	assert.Equal(t, "abc", settings.SessionID)
	assert.Equal(t, "http://10.0.0.5:7777", settings.HTTPURL)
}

func TestLoadRejectsMalformedConfigFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".claude"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".claude", "agent_network.toml"), []byte("listen = ["), 0o600))

	_, err := Load(home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}
