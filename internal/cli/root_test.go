package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "trash-notify", cmd.Use)

	for _, name := range []string{"serve", "notify", "migrate"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	flag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestMigrateCreatesSQLiteSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bot.db")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "sqlite schema up to date\n", out)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)

	// Running it again is harmless.
	_, err = execute(t, "migrate")
	require.NoError(t, err)
}

func TestMigrateNoopForMemory(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "memory driver has no schema\n", out)
}

func TestNotifyWithEmptyStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LINE_CHANNEL_SECRET", "secret")
	t.Setenv("LINE_CHANNEL_TOKEN", "token")

	out, err := execute(t, "notify")
	require.NoError(t, err)
	assert.Equal(t, "sent 0\n", out)
}

func TestNotifyRequiresLineCredentials(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	_, err := execute(t, "notify")
	assert.ErrorContains(t, err, "LINE_CHANNEL_SECRET")
}

func TestInvalidConfigFailsEveryCommand(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := execute(t, "migrate")
	assert.ErrorContains(t, err, "load config")
}
