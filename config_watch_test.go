package ember

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchLogLevelReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ember.conf")
	require.NoError(t, os.WriteFile(path, []byte("log_level = info\n"), 0o644))

	var buf bytes.Buffer
	logger := newLogger(&buf, "", "info")

	w, err := WatchLogLevel(path, logger)
	require.NoError(t, err)
	defer w.Close()

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	require.NoError(t, os.WriteFile(path, []byte("log_level = debug\n"), 0o644))

	assert.Eventually(t, func() bool {
		buf.Reset()
		logger.Debug("now visible")
		return buf.Len() > 0
	}, 2*time.Second, 10*time.Millisecond)
}
