package cmd

import (
	"fmt"
	"os"

	"github.com/godoty/editor-bridge/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd는 설정 관리 명령어 그룹입니다.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "설정을 관리합니다",
}

// configShowCmd는 현재 적용된 설정을 출력합니다.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "현재 설정을 출력합니다",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("설정 직렬화 실패: %w", err)
		}

		fmt.Print(string(data))
		return nil
	},
}

// configInitCmd는 기본 설정 파일을 생성합니다.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "기본 설정 파일을 생성합니다",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath()
		if path == "" {
			return fmt.Errorf("설정 파일 경로를 결정할 수 없습니다")
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("설정 파일이 이미 존재합니다: %s", path)
		}

		if err := config.EnsureConfigDir(); err != nil {
			return err
		}

		data, err := yaml.Marshal(config.Default())
		if err != nil {
			return fmt.Errorf("설정 직렬화 실패: %w", err)
		}

		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("설정 파일 쓰기 실패: %w", err)
		}

		fmt.Printf("설정 파일을 생성했습니다: %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
