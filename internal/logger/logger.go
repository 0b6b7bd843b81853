// Package logger는 구조화된 로깅을 제공합니다.
// 기본 출력은 JSON이며, 개발 시 가독성을 위해 text 포맷을 지원합니다.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/godoty/editor-bridge/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup은 로거를 초기화합니다.
func Setup(cfg config.LoggingConfig) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			log.Warn().Err(err).Str("file", cfg.File).Msg("로그 파일을 열 수 없어 stdout을 사용합니다")
		} else {
			output = file
		}
	}

	if cfg.Format == "text" {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
		log.Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}
}

// parseLevel은 문자열 레벨을 zerolog.Level로 변환합니다.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug는 디버그 레벨 로그를 기록합니다.
func Debug() *zerolog.Event {
	return log.Debug()
}

// Info는 정보 레벨 로그를 기록합니다.
func Info() *zerolog.Event {
	return log.Info()
}

// Warn은 경고 레벨 로그를 기록합니다.
func Warn() *zerolog.Event {
	return log.Warn()
}

// Error는 오류 레벨 로그를 기록합니다.
func Error() *zerolog.Event {
	return log.Error()
}

// WithComponent는 컴포넌트 이름이 포함된 로거를 반환합니다.
func WithComponent(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
