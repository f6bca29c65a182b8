package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var Log zerolog.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures the global logger. Development gets a human readable console
// writer, production gets JSON lines.
func Init(environment string, debug bool) {
	InitWithWriter(environment, debug, os.Stderr)
}

func InitWithWriter(environment string, debug bool, w io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	if environment == "production" {
		Log = zerolog.New(w).Level(level).With().Timestamp().Logger()
		return
	}

	Log = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05.000",
	}).Level(level).With().Timestamp().Logger()
}

func fields(event *zerolog.Event, keyValues []interface{}) *zerolog.Event {
	for i := 0; i < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			key = fmt.Sprint(keyValues[i])
		}
		if i+1 >= len(keyValues) {
			event = event.Interface(key, nil)
			break
		}
		event = event.Interface(key, keyValues[i+1])
	}
	return event
}

func Debug(msg string, keyValues ...interface{}) {
	fields(Log.Debug(), keyValues).Msg(msg)
}

func Info(msg string, keyValues ...interface{}) {
	fields(Log.Info(), keyValues).Msg(msg)
}

func Infof(format string, args ...interface{}) {
	Log.Info().Msgf(format, args...)
}

func Warn(msg string, keyValues ...interface{}) {
	fields(Log.Warn(), keyValues).Msg(msg)
}

// Error logs msg with err attached. err may be nil.
func Error(msg string, err error, keyValues ...interface{}) {
	fields(Log.Error().Err(err), keyValues).Msg(msg)
}

// Fatal logs and exits the process.
func Fatal(msg string, err error, keyValues ...interface{}) {
	fields(Log.Fatal().Err(err), keyValues).Msg(msg)
}
