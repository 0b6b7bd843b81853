// Package main은 Godoty Editor Bridge CLI의 진입점입니다.
// 실행 중인 Godot 에디터 플러그인과 WebSocket으로 통신하여
// AI 에이전트의 커맨드를 중계합니다.
package main

import (
	"os"

	"github.com/godoty/editor-bridge/cmd"
)

// 빌드 시 ldflags로 주입되는 버전 정보
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
