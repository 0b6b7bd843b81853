package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/godoty/editor-bridge/internal/config"
	"github.com/spf13/cobra"
)

var statusJSON bool

// StatusInfo는 status 명령어의 출력 구조입니다.
type StatusInfo struct {
	URL           string `json:"url"`
	Connected     bool   `json:"connected"`
	State         string `json:"state"`
	ProjectPath   string `json:"project_path,omitempty"`
	ProjectName   string `json:"project_name,omitempty"`
	EditorVersion string `json:"editor_version,omitempty"`
	PluginVersion string `json:"plugin_version,omitempty"`
	ProjectReady  bool   `json:"project_ready"`
	LastError     string `json:"last_error,omitempty"`
}

// statusCmd는 에디터 연결 상태를 확인하는 명령어입니다.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "에디터 플러그인 연결 상태를 확인합니다",
	Long: `에디터 플러그인에 연결을 시도하고 프로젝트 정보를 조회합니다.

연결에 성공하면 프로젝트 경로, 에디터 버전 등의 정보를 출력합니다.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "JSON 형식으로 출력")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := newBridgeClient(cfg)
	status := StatusInfo{URL: client.URL()}

	ctx := context.Background()
	if client.Connect(ctx) {
		defer client.Disconnect()

		status.Connected = true
		if info, err := client.GetProjectInfo(ctx); err == nil {
			status.ProjectPath = info.ProjectPath
			status.ProjectName = info.ProjectName
			status.EditorVersion = info.EditorVersion
			status.PluginVersion = info.PluginVersion
			status.ProjectReady = info.IsReady
		}
	} else if lastErr := client.LastError(); lastErr != nil {
		status.LastError = fmt.Sprintf("%s (%s)", lastErr.Message, lastErr.Kind)
	}
	status.State = client.State().String()

	if statusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	printStatus(status)
	return nil
}

func printStatus(status StatusInfo) {
	fmt.Printf("에디터 URL:    %s\n", status.URL)
	fmt.Printf("연결 상태:     %s\n", status.State)

	if !status.Connected {
		if status.LastError != "" {
			fmt.Printf("마지막 오류:   %s\n", status.LastError)
		}
		return
	}

	if status.ProjectName != "" {
		fmt.Printf("프로젝트:      %s\n", status.ProjectName)
	}
	if status.ProjectPath != "" {
		fmt.Printf("프로젝트 경로: %s\n", status.ProjectPath)
	}
	if status.EditorVersion != "" {
		fmt.Printf("에디터 버전:   %s\n", status.EditorVersion)
	}
	if status.PluginVersion != "" {
		fmt.Printf("플러그인 버전: %s\n", status.PluginVersion)
	}
	fmt.Printf("프로젝트 준비: %t\n", status.ProjectReady)
}
