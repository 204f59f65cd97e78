package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pitchcraft/logger"
)

// gormLogger forwards GORM output to the process logger at matching levels:
// SQL errors as errors, slow queries as warnings, other statements as debug.
type gormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

var _ gormlogger.Interface = (*gormLogger)(nil)

func newGormLogger(level gormlogger.LogLevel, slow time.Duration) *gormLogger {
	return &gormLogger{level: level, slowThreshold: slow}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	out := *l
	out.level = level
	return &out
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.event(zerolog.InfoLevel).Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.event(zerolog.WarnLevel).Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.event(zerolog.ErrorLevel).Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.event(zerolog.ErrorLevel).Err(err).Str("sql", sql).Int64("rows", rows).
			Dur("elapsed", elapsed).Msg("sql error")
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.event(zerolog.WarnLevel).Str("sql", sql).Int64("rows", rows).
			Dur("elapsed", elapsed).Dur("threshold", l.slowThreshold).Msg("slow sql")
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.event(zerolog.DebugLevel).Str("sql", sql).Int64("rows", rows).
			Dur("elapsed", elapsed).Msg("sql")
	}
}

func (l *gormLogger) event(level zerolog.Level) *zerolog.Event {
	return logger.Get().WithLevel(level).Str("component", "gorm")
}
