// Package config는 에디터 브리지의 설정 관리를 담당합니다.
// 설정 우선순위: 플래그 > 환경변수 > 설정파일 > 기본값.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config는 전체 애플리케이션 설정을 나타냅니다.
type Config struct {
	Editor  EditorConfig  `mapstructure:"editor" yaml:"editor"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// EditorConfig는 에디터 플러그인 연결 설정입니다.
type EditorConfig struct {
	// Host는 에디터 호스트입니다.
	Host string `mapstructure:"host" yaml:"host"`
	// Port는 에디터 플러그인 WebSocket 포트입니다.
	Port int `mapstructure:"port" yaml:"port"`
	// ConnectTimeoutSeconds는 연결 시도 1회의 타임아웃(초)입니다.
	ConnectTimeoutSeconds float64 `mapstructure:"connect_timeout_seconds" yaml:"connect_timeout_seconds"`
	// MaxRetries는 연결 시도 횟수입니다.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	// RetryDelaySeconds는 재시도 백오프의 초기 지연(초)입니다.
	RetryDelaySeconds float64 `mapstructure:"retry_delay_seconds" yaml:"retry_delay_seconds"`
	// MaxRetryDelaySeconds는 재시도 백오프의 최대 지연(초)입니다.
	MaxRetryDelaySeconds float64 `mapstructure:"max_retry_delay_seconds" yaml:"max_retry_delay_seconds"`
	// CommandTimeoutSeconds는 커맨드 응답 대기 타임아웃(초)입니다.
	CommandTimeoutSeconds float64 `mapstructure:"command_timeout_seconds" yaml:"command_timeout_seconds"`
}

// LoggingConfig는 로깅 설정입니다.
type LoggingConfig struct {
	// Level은 로그 레벨입니다 (debug, info, warn, error).
	Level string `mapstructure:"level" yaml:"level"`
	// Format은 로그 포맷입니다 (json, text).
	Format string `mapstructure:"format" yaml:"format"`
	// File은 로그 파일 경로입니다. 비어있으면 stdout으로 출력합니다.
	File string `mapstructure:"file" yaml:"file,omitempty"`
}

// Load는 설정을 로드하고 Config 구조체를 반환합니다.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("설정 파싱 실패: %w", err)
	}

	cfg.Logging.File = expandPath(cfg.Logging.File)

	return &cfg, nil
}

// ConnectTimeout은 연결 타임아웃을 Duration으로 반환합니다.
func (e *EditorConfig) ConnectTimeout() time.Duration {
	return secondsToDuration(e.ConnectTimeoutSeconds, 10*time.Second)
}

// RetryDelay는 백오프 초기 지연을 Duration으로 반환합니다.
func (e *EditorConfig) RetryDelay() time.Duration {
	return secondsToDuration(e.RetryDelaySeconds, 2*time.Second)
}

// MaxRetryDelay는 백오프 최대 지연을 Duration으로 반환합니다.
func (e *EditorConfig) MaxRetryDelay() time.Duration {
	return secondsToDuration(e.MaxRetryDelaySeconds, 30*time.Second)
}

// CommandTimeout은 커맨드 타임아웃을 Duration으로 반환합니다.
func (e *EditorConfig) CommandTimeout() time.Duration {
	return secondsToDuration(e.CommandTimeoutSeconds, 30*time.Second)
}

// secondsToDuration은 초 단위 실수를 Duration으로 변환합니다.
// 0 이하이면 기본값을 반환합니다.
func secondsToDuration(seconds float64, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds * float64(time.Second))
}

// Validate는 설정의 유효성을 검사합니다.
func (c *Config) Validate() error {
	if c.Editor.Host == "" {
		return fmt.Errorf("editor.host가 비어 있습니다")
	}
	if c.Editor.Port <= 0 || c.Editor.Port > 65535 {
		return fmt.Errorf("유효하지 않은 포트: %d (1-65535 범위)", c.Editor.Port)
	}
	if c.Editor.MaxRetries < 1 {
		return fmt.Errorf("max_retries는 1 이상이어야 합니다")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("유효하지 않은 로그 레벨: %s (debug, info, warn, error 중 하나)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("유효하지 않은 로그 포맷: %s (json, text 중 하나)", c.Logging.Format)
	}

	return nil
}

// Default는 기본값으로 채워진 설정을 반환합니다.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			Host:                  "localhost",
			Port:                  9001,
			ConnectTimeoutSeconds: 10,
			MaxRetries:            3,
			RetryDelaySeconds:     2,
			MaxRetryDelaySeconds:  30,
			CommandTimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// expandPath는 ~를 홈 디렉토리로 확장합니다.
func expandPath(path string) string {
	if path == "" {
		return ""
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// EnsureConfigDir는 설정 디렉토리가 존재하는지 확인하고 없으면 생성합니다.
func EnsureConfigDir() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("홈 디렉토리를 찾을 수 없습니다: %w", err)
	}

	configDir := filepath.Join(home, ".config", "godoty")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("설정 디렉토리 생성 실패: %w", err)
	}

	return nil
}

// DefaultConfigPath는 기본 설정 파일 경로를 반환합니다.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "godoty", "config.yaml")
}
