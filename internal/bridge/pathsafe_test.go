package bridge

import (
	"os"
	"path/filepath"
	"testing"
)

// newClientWithRoot는 프로젝트 루트 캐시가 채워진 클라이언트를 생성합니다.
func newClientWithRoot(t *testing.T, root string) *Client {
	t.Helper()
	client := NewClient(DefaultHost, DefaultPort)
	client.setProjectInfo(&ProjectInfo{ProjectPath: root, IsReady: true})
	return client
}

// projectDir은 심볼릭 링크가 해석된 테스트용 프로젝트 디렉토리를 생성합니다.
// macOS의 /tmp처럼 임시 디렉토리 자체가 심볼릭 링크인 환경을 보정합니다.
func projectDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks 오류: %v", err)
	}
	return dir
}

// TestIsPathSafe는 프로젝트 루트 기준 경로 검증을 확인합니다.
func TestIsPathSafe(t *testing.T) {
	root := projectDir(t)
	client := newClientWithRoot(t, root)

	tests := []struct {
		name string
		path string
		want bool
	}{
		{
			name: "루트 자체",
			path: root,
			want: true,
		},
		{
			name: "루트 안의 존재하지 않는 파일",
			path: filepath.Join(root, "scenes", "main.tscn"),
			want: true,
		},
		{
			name: "상대 표기를 포함하지만 루트 안",
			path: filepath.Join(root, "scenes", "..", "project.godot"),
			want: true,
		},
		{
			name: "루트 밖 절대 경로",
			path: "/etc/passwd",
			want: false,
		},
		{
			name: "상향 탈출 시도",
			path: filepath.Join(root, "..", "..", "etc", "passwd"),
			want: false,
		},
		{
			name: "루트와 이름만 비슷한 이웃 디렉토리",
			path: root + "-evil/scene.tscn",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := client.IsPathSafe(tt.path); got != tt.want {
				t.Errorf("IsPathSafe(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// TestIsPathSafe_NoProjectInfo는 프로젝트 정보가 없을 때 현재 작업
// 디렉토리를 기준으로 검사하는지 검증합니다.
func TestIsPathSafe_NoProjectInfo(t *testing.T) {
	client := NewClient(DefaultHost, DefaultPort)

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd 오류: %v", err)
	}

	if !client.IsPathSafe(filepath.Join(cwd, "somefile.go")) {
		t.Error("작업 디렉토리 내 경로가 안전하지 않다고 판정되었습니다")
	}
	if client.IsPathSafe("/definitely/not/under/cwd") {
		t.Error("작업 디렉토리 밖 경로가 안전하다고 판정되었습니다")
	}
}

// TestIsPathSafe_SymlinkEscape는 루트 안의 심볼릭 링크가 루트 밖을
// 가리키는 경우를 검증합니다.
func TestIsPathSafe_SymlinkEscape(t *testing.T) {
	root := projectDir(t)
	outside := projectDir(t)
	client := newClientWithRoot(t, root)

	link := filepath.Join(root, "sneaky")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("심볼릭 링크를 생성할 수 없습니다: %v", err)
	}

	if client.IsPathSafe(link) {
		t.Error("루트 밖을 가리키는 심볼릭 링크가 안전하다고 판정되었습니다")
	}
	if client.IsPathSafe(filepath.Join(link, "asset.png")) {
		t.Error("탈출 링크 하위 경로가 안전하다고 판정되었습니다")
	}
}

// TestResolvePath_NonExistent는 존재하지 않는 경로의 조상 기반 해석을 검증합니다.
func TestResolvePath_NonExistent(t *testing.T) {
	root := projectDir(t)

	target := filepath.Join(root, "a", "b", "c.txt")
	resolved, err := resolvePath(target)
	if err != nil {
		t.Fatalf("resolvePath() 오류: %v", err)
	}
	if resolved != target {
		t.Errorf("resolvePath(%q) = %q, want %q", target, resolved, target)
	}
}

// TestValidateProjectRoot는 프로젝트 루트 판별을 검증합니다.
func TestValidateProjectRoot(t *testing.T) {
	root := projectDir(t)

	// 마커 파일이 없으면 유효하지 않음
	if ValidateProjectRoot(root) {
		t.Error("마커 파일 없는 디렉토리가 유효하다고 판정되었습니다")
	}

	marker := filepath.Join(root, "project.godot")
	if err := os.WriteFile(marker, []byte("config_version=5\n"), 0644); err != nil {
		t.Fatalf("마커 파일 생성 오류: %v", err)
	}

	if !ValidateProjectRoot(root) {
		t.Error("유효한 프로젝트 루트가 거부되었습니다")
	}
	if ValidateProjectRoot("") {
		t.Error("빈 경로가 유효하다고 판정되었습니다")
	}
	if ValidateProjectRoot(filepath.Join(root, "nonexistent")) {
		t.Error("존재하지 않는 경로가 유효하다고 판정되었습니다")
	}
	// 파일은 루트가 될 수 없음
	if ValidateProjectRoot(marker) {
		t.Error("일반 파일이 프로젝트 루트로 판정되었습니다")
	}
}

// TestToResourcePath는 절대 경로의 res:// 변환을 검증합니다.
func TestToResourcePath(t *testing.T) {
	root := "/home/dev/game"

	tests := []struct {
		name string
		abs  string
		want string
	}{
		{
			name: "루트 안 경로",
			abs:  "/home/dev/game/scenes/main.tscn",
			want: "res://scenes/main.tscn",
		},
		{
			name: "루트 자체",
			abs:  "/home/dev/game",
			want: "res://.",
		},
		{
			name: "루트 밖 경로는 그대로 반환",
			abs:  "/etc/passwd",
			want: "/etc/passwd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToResourcePath(tt.abs, root); got != tt.want {
				t.Errorf("ToResourcePath(%q, %q) = %q, want %q", tt.abs, root, got, tt.want)
			}
		})
	}

	// 루트가 비어 있으면 변환하지 않음
	if got := ToResourcePath("/home/dev/game/a.tscn", ""); got != "/home/dev/game/a.tscn" {
		t.Errorf("루트 없는 ToResourcePath() = %q, 입력을 그대로 반환해야 합니다", got)
	}
}

// TestToAbsolutePath는 res:// 경로의 절대 경로 변환을 검증합니다.
func TestToAbsolutePath(t *testing.T) {
	root := "/home/dev/game"

	if got := ToAbsolutePath("res://scenes/main.tscn", root); got != filepath.Join(root, "scenes", "main.tscn") {
		t.Errorf("ToAbsolutePath() = %q, want %q", got, filepath.Join(root, "scenes", "main.tscn"))
	}
	// res:// 접두사가 없으면 그대로 반환
	if got := ToAbsolutePath("/already/absolute", root); got != "/already/absolute" {
		t.Errorf("ToAbsolutePath() = %q, 접두사 없는 입력을 그대로 반환해야 합니다", got)
	}
}
