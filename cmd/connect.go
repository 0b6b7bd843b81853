package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godoty/editor-bridge/internal/bridge"
	"github.com/godoty/editor-bridge/internal/config"
	"github.com/godoty/editor-bridge/internal/logger"
	"github.com/spf13/cobra"
)

// connectCmd는 에디터 플러그인에 연결하고 세션을 유지하는 명령어입니다.
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "에디터 플러그인에 연결하고 세션을 유지합니다",
	Long: `실행 중인 Godot 에디터 플러그인에 WebSocket으로 연결합니다.

연결에 성공하면 에디터가 푸시하는 이벤트를 수신하며 세션을 유지합니다.
Ctrl+C (SIGINT) 또는 SIGTERM을 받으면 정상적으로 연결을 해제합니다.`,
	RunE: runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := newBridgeClient(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !client.Connect(ctx) {
		if lastErr := client.LastError(); lastErr != nil {
			return fmt.Errorf("에디터 연결 실패: %s (%s)", lastErr.Message, lastErr.Kind)
		}
		return fmt.Errorf("에디터 연결 실패: %s", client.URL())
	}

	fmt.Printf("에디터 플러그인에 연결되었습니다: %s\n", client.URL())

	client.AddConnectionCallback(func(connected bool) {
		if !connected {
			logger.Warn().Msg("에디터 연결이 끊어졌습니다")
		}
	})

	// 종료 시그널까지 세션 유지
	<-ctx.Done()

	fmt.Println("연결을 해제합니다...")
	client.Disconnect()
	return nil
}

// newBridgeClient는 설정으로부터 브리지 클라이언트를 생성합니다.
func newBridgeClient(cfg *config.Config) *bridge.Client {
	return bridge.NewClient(
		cfg.Editor.Host,
		cfg.Editor.Port,
		bridge.WithConnectTimeout(cfg.Editor.ConnectTimeout()),
		bridge.WithMaxRetries(cfg.Editor.MaxRetries),
		bridge.WithCommandTimeout(cfg.Editor.CommandTimeout()),
		bridge.WithBackoffPolicy(bridge.NewBackoffPolicy(
			cfg.Editor.RetryDelay(),
			cfg.Editor.MaxRetryDelay(),
		)),
	)
}
