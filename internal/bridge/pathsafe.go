// Package bridge는 Godot 에디터 플러그인과의 WebSocket 통신을 담당합니다.
// pathsafe.go는 경로가 프로젝트 루트를 벗어나지 않는지 검증합니다.
package bridge

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// resourcePrefix는 에디터 리소스 경로 접두사입니다.
const resourcePrefix = "res://"

// projectMarkerFile은 프로젝트 루트를 식별하는 마커 파일입니다.
const projectMarkerFile = "project.godot"

// IsPathSafe는 경로가 캐시된 프로젝트 루트 안에 있는지 검증합니다.
// 프로젝트 정보가 없으면 현재 작업 디렉토리를 기준으로 검사합니다.
// 경로 해석이 실패하면(심볼릭 링크 오류, 권한 오류 등) 항상 안전하지
// 않은 것으로 간주합니다 (fail closed).
func (c *Client) IsPathSafe(path string) bool {
	root := c.ProjectPath()
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return false
		}
		root = cwd
	}

	resolvedRoot, err := resolvePath(root)
	if err != nil {
		return false
	}
	resolvedTarget, err := resolvePath(path)
	if err != nil {
		return false
	}

	return isWithin(resolvedRoot, resolvedTarget)
}

// resolvePath는 경로를 절대 경로로 만들고 심볼릭 링크를 해석합니다.
// 아직 존재하지 않는 경로는 존재하는 가장 깊은 조상까지 해석한 뒤
// 나머지를 이어 붙입니다. 존재하지 않음 이외의 해석 오류는 그대로
// 반환합니다.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)

	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	dir := abs
	suffix := ""
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			// 루트까지 아무것도 존재하지 않음
			return abs, nil
		}
		suffix = filepath.Join(filepath.Base(dir), suffix)
		dir = parent

		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(resolved, suffix), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
}

// isWithin은 target이 root와 같거나 그 하위인지 확인합니다.
func isWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ValidateProjectRoot는 경로가 유효한 프로젝트 루트인지 확인합니다.
// 존재하는 디렉토리이면서 project.godot 마커 파일을 포함해야 합니다.
func ValidateProjectRoot(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}

	marker, err := os.Stat(filepath.Join(path, projectMarkerFile))
	return err == nil && !marker.IsDir()
}

// ToResourcePath는 절대 경로를 에디터의 res:// 경로로 변환합니다.
// 프로젝트 루트 밖이거나 변환에 실패하면 입력을 그대로 반환합니다.
func ToResourcePath(absPath, projectRoot string) string {
	if projectRoot == "" {
		return absPath
	}

	rel, err := filepath.Rel(projectRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return absPath
	}
	return resourcePrefix + filepath.ToSlash(rel)
}

// ToAbsolutePath는 res:// 경로를 파일시스템 절대 경로로 변환합니다.
// res:// 접두사가 없는 경로는 그대로 반환합니다.
func ToAbsolutePath(resPath, projectRoot string) string {
	if !strings.HasPrefix(resPath, resourcePrefix) {
		return resPath
	}
	rel := strings.TrimPrefix(resPath, resourcePrefix)
	return filepath.Join(projectRoot, filepath.FromSlash(rel))
}
