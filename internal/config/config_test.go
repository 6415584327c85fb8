package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 9901,
		"session_path": "/tmp/sessions.json",
		"admin_secret": "secret",
		"ai": {"keys": ["k1", "k2"]},
		"source": {"type": "local", "data": {"dir": "/tmp/docs"}}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9901, cfg.Port)
	require.Equal(t, 15, cfg.Chat.CooldownSeconds)
	require.Equal(t, 10, cfg.Chat.MaxHistoryTurns)
	require.Equal(t, 4096, cfg.Chat.MaxMessageLen)
	require.Equal(t, "gemini", cfg.AI.Provider)
	require.Equal(t, 3, cfg.AI.MaxAttempts)
	require.Equal(t, 85, cfg.AI.KBMatchThreshold)
	require.Equal(t, 800, cfg.Index.WindowWords)
	require.Equal(t, 100, cfg.Index.OverlapWords)
	require.Equal(t, 5, cfg.Index.TopK)
	require.Equal(t, "memory", cfg.Vector.Type)
	require.Equal(t, "allow_all", cfg.Member.Mode)
}

func TestLoadRequiresPort(t *testing.T) {
	path := writeConfig(t, `{
		"session_path": "/tmp/sessions.json",
		"admin_secret": "secret",
		"ai": {"keys": ["k1"]},
		"source": {"type": "local"}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRequiresKeys(t *testing.T) {
	path := writeConfig(t, `{
		"port": 9901,
		"session_path": "/tmp/sessions.json",
		"admin_secret": "secret",
		"source": {"type": "local"}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsOverlapNotSmallerThanWindow(t *testing.T) {
	path := writeConfig(t, `{
		"port": 9901,
		"session_path": "/tmp/sessions.json",
		"admin_secret": "secret",
		"ai": {"keys": ["k1"]},
		"source": {"type": "local"},
		"index": {"window_words": 100, "overlap_words": 100}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownMemberMode(t *testing.T) {
	path := writeConfig(t, `{
		"port": 9901,
		"session_path": "/tmp/sessions.json",
		"admin_secret": "secret",
		"ai": {"keys": ["k1"]},
		"source": {"type": "local"},
		"member": {"mode": "ldap"}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadStaticMemberNeedsAllowlist(t *testing.T) {
	path := writeConfig(t, `{
		"port": 9901,
		"session_path": "/tmp/sessions.json",
		"admin_secret": "secret",
		"ai": {"keys": ["k1"]},
		"source": {"type": "local"},
		"member": {"mode": "static"}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}
