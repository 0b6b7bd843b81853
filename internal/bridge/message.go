// Package bridge는 Godot 에디터 플러그인과의 WebSocket 통신을 담당합니다.
// message.go는 에디터 프로토콜의 프레임 타입을 정의합니다.
package bridge

import (
	"encoding/json"
	"time"
)

// 에디터가 푸시하는 수신 메시지 타입입니다.
const (
	// MsgProjectInfo는 프로젝트 메타데이터 푸시 메시지입니다.
	MsgProjectInfo = "project_info"
	// MsgCommandResponse는 커맨드 실행 결과 메시지입니다.
	MsgCommandResponse = "command_response"
	// MsgError는 에디터 측 오류 알림 메시지입니다.
	MsgError = "error"
	// MsgStatus는 에디터 상태 알림 메시지입니다.
	MsgStatus = "status"
)

// ProjectInfo는 연결된 에디터 프로젝트의 메타데이터입니다.
// project_info 푸시 메시지로만 갱신되는 캐시이며, 연결이 끊어지면 비워집니다.
type ProjectInfo struct {
	// ProjectPath는 프로젝트 루트의 절대 경로입니다.
	ProjectPath string `json:"project_path"`
	// ProjectName은 프로젝트 이름입니다.
	ProjectName string `json:"project_name"`
	// EditorVersion은 에디터 버전입니다.
	EditorVersion string `json:"editor_version"`
	// PluginVersion은 에디터 플러그인 버전입니다.
	PluginVersion string `json:"plugin_version"`
	// Settings는 프로젝트 설정 스냅샷입니다.
	Settings map[string]interface{} `json:"settings"`
	// IsReady는 프로젝트가 작업 가능한 상태인지 여부입니다.
	IsReady bool `json:"is_ready"`
}

// CommandResponse는 커맨드 실행 결과를 호출자에게 돌려주는 값입니다.
// 모든 공개 연산은 예외를 던지는 대신 이 타입으로 성공/실패를 반환합니다.
type CommandResponse struct {
	// Success는 커맨드 성공 여부입니다.
	Success bool `json:"success"`
	// Data는 커맨드 결과 페이로드입니다.
	Data json.RawMessage `json:"data,omitempty"`
	// Error는 실패 시 사람이 읽을 수 있는 오류 설명입니다.
	Error string `json:"error,omitempty"`
	// CommandID는 요청에 부여된 상관관계 ID입니다.
	CommandID string `json:"command_id,omitempty"`
}

// Message는 에디터가 보내는 수신 프레임입니다.
// type 필드로 구분되며, 타입별로 사용하는 필드가 다릅니다.
type Message struct {
	// Type은 메시지 타입 구분자입니다.
	Type string `json:"type"`
	// ID는 command_response에서 요청 ID를 에코합니다.
	ID string `json:"id,omitempty"`
	// Success는 command_response의 명시적 성공 플래그입니다 (없을 수 있음).
	Success *bool `json:"success,omitempty"`
	// Status는 Success가 없을 때 사용하는 문자열 성공 표기입니다 ("success" 등).
	Status string `json:"status,omitempty"`
	// Data는 타입별 페이로드입니다.
	Data json.RawMessage `json:"data,omitempty"`
	// Error는 문자열 또는 {"message": ...} 객체 형태의 오류입니다.
	Error json.RawMessage `json:"error,omitempty"`
	// Message는 최상위 오류/알림 텍스트입니다.
	Message string `json:"message,omitempty"`
}

// errorText는 Error 필드를 문자열로 해석합니다.
// 문자열과 {"message": ...} 객체 두 형태를 모두 허용합니다.
func (m *Message) errorText() string {
	if len(m.Error) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(m.Error, &text); err == nil {
		return text
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(m.Error, &obj); err == nil {
		return obj.Message
	}

	// 해석 불가한 형태는 원문 그대로 전달
	return string(m.Error)
}

// newCommandEnvelope는 송신 커맨드 프레임을 생성합니다.
// 와이어 포맷: {"id", "action", "timestamp"} + 커맨드별 파라미터 (최상위 평탄화).
// 예약 키(id/action/timestamp)는 파라미터보다 우선합니다.
func newCommandEnvelope(id, action string, params map[string]interface{}) map[string]interface{} {
	envelope := make(map[string]interface{}, len(params)+3)
	for k, v := range params {
		envelope[k] = v
	}
	envelope["id"] = id
	envelope["action"] = action
	envelope["timestamp"] = float64(time.Now().UnixNano()) / float64(time.Second)
	return envelope
}
