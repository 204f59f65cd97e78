package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pitchcraft/logger"
)

func captureLogs(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, level)
	t.Cleanup(func() { logger.Init("info", false) })
	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		out = append(out, entry)
	}
	return out
}

func TestGormLoggerLevels(t *testing.T) {
	buf := captureLogs(t, "warn")
	l := newGormLogger(gormlogger.Warn, 10*time.Millisecond)
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT * FROM pitches", 2 }

	l.Trace(ctx, time.Now(), sql, nil)
	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	l.Trace(ctx, time.Now(), sql, errors.New("disk I/O error"))
	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	l.Info(ctx, "migrating %s", "pitches")

	lines := logLines(t, buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "slow sql", lines[0]["message"])
	assert.Equal(t, "gorm", lines[0]["component"])
	assert.Equal(t, "SELECT * FROM pitches", lines[0]["sql"])

	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "sql error", lines[1]["message"])
	assert.Equal(t, "disk I/O error", lines[1]["error"])
}

func TestGormLoggerSilent(t *testing.T) {
	buf := captureLogs(t, "debug")
	l := newGormLogger(gormlogger.Warn, time.Millisecond).LogMode(gormlogger.Silent)

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	l.Error(context.Background(), "boom")

	assert.Empty(t, buf.String())
}
