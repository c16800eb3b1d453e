package providers

import (
	"barcodedrop/internal/structures"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeEnum_String(t *testing.T) {
	assert.Equal(t, "app", TypeApp.String())
	assert.Equal(t, "api", TypeApi.String())
	assert.Equal(t, "channel", TypeChannel.String())
	assert.Equal(t, "store", TypeStore.String())
	assert.Equal(t, "clipboard", TypeClipboard.String())
	assert.Equal(t, "http", TypeHttp.String())
	assert.Equal(t, "app", TypeEnum(99).String())
}

func TestNewLogProvider_CreatesLogFiles(t *testing.T) {
	dir := t.TempDir()
	conf := &structures.Config{
		AppName: AppName,
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   dir,
		},
	}

	logger, err := NewLogProvider(conf)
	require.NoError(t, err)

	logger.Infof(TypeApp, "test message")
	logger.Debugf(TypeStore, "dropped below level")
	logger.Warnf(TypeChannel, "socket closed: %s", "eof")
	logger.Close()

	appLog, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(appLog), "test message")
	assert.NotContains(t, string(appLog), "dropped below level")
	assert.NotContains(t, string(appLog), "socket closed")

	channelLog, err := os.ReadFile(filepath.Join(dir, "channel.log"))
	require.NoError(t, err)
	assert.Contains(t, string(channelLog), "socket closed: eof")
	assert.True(t, strings.Contains(string(channelLog), `"type":"channel"`))
}

func TestNewLogProvider_InvalidDir(t *testing.T) {
	conf := &structures.Config{
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/nonexistent/directory/path",
		},
	}

	_, err := NewLogProvider(conf)
	assert.Error(t, err)
}

func TestNewLogProvider_InvalidLevel(t *testing.T) {
	conf := &structures.Config{
		Logger: structures.LoggerConfig{
			Level: "verbose",
			Mode:  0644,
			Dir:   t.TempDir(),
		},
	}

	_, err := NewLogProvider(conf)
	assert.Error(t, err)
}
