package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

const EnvDevelopment = "development"

var (
	once   sync.Once
	logger zerolog.Logger
)

// LevelFor keeps trace output to development so production files stay small.
func LevelFor(env string) zerolog.Level {
	if env == EnvDevelopment {
		return zerolog.TraceLevel
	}
	return zerolog.InfoLevel
}

// NewLogger writes json lines to w with trace ids pulled from the event context.
func NewLogger(w io.Writer, env string) zerolog.Logger {
	return zerolog.New(w).
		Level(LevelFor(env)).
		Hook(AttachTraceIdFromContext()).
		With().
		Timestamp().
		Caller().
		Stack().
		Int("pid", os.Getpid()).
		Logger()
}

// InitLogger builds the process logger once, writing to stdout and a rotated file at
// filepath.
func InitLogger(filepath string, env string) zerolog.Logger {
	once.Do(func() {
		zerolog.DurationFieldUnit = time.Microsecond
		zerolog.ErrorFieldName = "error"
		zerolog.ErrorStackFieldName = "stack-trace"
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimestampFieldName = "timestamp"

		rotated := &lumberjack.Logger{
			Filename:   filepath,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		logger = NewLogger(zerolog.MultiLevelWriter(os.Stdout, rotated), env)
		zerolog.DefaultContextLogger = &logger

		logger.Info().
			Str(KeyTag, "InitLogger").
			Str(KeyProcess, "initializing logger").
			Str("env", env).
			Msg("initialized logger")
	})
	return logger
}
