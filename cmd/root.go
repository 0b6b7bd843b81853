// Package cmd는 Godoty Editor Bridge CLI의 명령어를 정의합니다.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/godoty/editor-bridge/internal/config"
	"github.com/godoty/editor-bridge/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// 전역 플래그
	cfgFile string
	verbose bool

	// 버전 정보 (main에서 주입)
	appVersion   string
	appCommit    string
	appBuildDate string
)

// rootCmd는 CLI의 루트 명령어입니다.
var rootCmd = &cobra.Command{
	Use:   "godoty-bridge",
	Short: "Godoty Editor Bridge CLI",
	Long: `Godoty Editor Bridge는 실행 중인 Godot 에디터 플러그인과
WebSocket으로 통신하는 전송/상관관계 계층입니다.

에이전트 프로세스가 보내는 커맨드를 에디터로 중계하고,
에디터가 푸시하는 비동기 이벤트를 수신합니다.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger()
	},
}

// Execute는 루트 명령어를 실행합니다.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo는 버전 정보를 설정합니다.
func SetVersionInfo(version, commit, buildDate string) {
	appVersion = version
	appCommit = commit
	appBuildDate = buildDate
}

// GetVersionInfo는 버전 정보를 반환합니다.
func GetVersionInfo() (version, commit, buildDate string) {
	return appVersion, appCommit, appBuildDate
}

func init() {
	cobra.OnInitialize(initConfig)

	// 전역 플래그 정의
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"설정 파일 경로 (기본값: ~/.config/godoty/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"상세 로그 출력 (debug 레벨)")
}

// initConfig는 설정 파일을 초기화합니다.
// 설정 우선순위: 플래그 > 환경변수 > 설정파일 > 기본값.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "홈 디렉토리를 찾을 수 없습니다: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "godoty")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// 환경변수 자동 바인딩 (GODOTY_ 접두사)
	viper.SetEnvPrefix("GODOTY")
	viper.AutomaticEnv()

	setDefaults()

	// 설정 파일 읽기 (없어도 오류 아님)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "설정 파일 읽기 실패: %v\n", err)
		}
	}
}

// setDefaults는 기본 설정값을 정의합니다.
func setDefaults() {
	// 에디터 연결 설정
	viper.SetDefault("editor.host", "localhost")
	viper.SetDefault("editor.port", 9001)
	viper.SetDefault("editor.connect_timeout_seconds", 10)
	viper.SetDefault("editor.max_retries", 3)
	viper.SetDefault("editor.retry_delay_seconds", 2)
	viper.SetDefault("editor.max_retry_delay_seconds", 30)
	viper.SetDefault("editor.command_timeout_seconds", 30)

	// 로깅 설정
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.file", "")
}

// initLogger는 로거를 초기화합니다.
func initLogger() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("설정 로드 실패: %w", err)
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger.Setup(cfg.Logging)
	return nil
}
