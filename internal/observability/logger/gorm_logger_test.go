package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("select * from settlements"))
	assert.Equal(t, "INSERT", operationFromSQL("WITH x AS (select 1) INSERT INTO settlements"))
	assert.Equal(t, "UPDATE", operationFromSQL("WITH due AS (SELECT id FROM settlements WHERE status = 'PENDING') UPDATE settlements SET status = 'PAID'"))
	assert.Equal(t, "DELETE", operationFromSQL("delete from settlements where id in (select id from stale)"))
	assert.Equal(t, "SELECT", operationFromSQL("(SELECT 1)"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
	assert.Equal(t, gormlogger.Warn, GormLevel("info"))
	assert.Equal(t, gormlogger.Silent, GormLevel("off"))
}

func TestGormLoggerTraceLogsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), DefaultGormLoggerConfig())

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "INSERT INTO settlements (id) VALUES (1)", 0
	}, errors.New("boom"))

	entries := logs.FilterMessage("gorm.query").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Equal(t, "INSERT", entries[0].ContextMap()["operation"])
	}
}

func TestGormLoggerIgnoresRecordNotFound(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), DefaultGormLoggerConfig())

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM settlements", 0
	}, gormlogger.ErrRecordNotFound)

	assert.Zero(t, logs.Len())
}
