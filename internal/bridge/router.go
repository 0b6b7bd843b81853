// Package bridge는 Godot 에디터 플러그인과의 WebSocket 통신을 담당합니다.
// router.go는 메시지 타입별 핸들러 등록과 디스패치를 담당합니다.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// HandlerFunc는 특정 메시지 타입에 대한 핸들러 함수입니다.
type HandlerFunc func(ctx context.Context, msg Message) error

// Router는 메시지 타입에 따라 적절한 핸들러로 라우팅합니다.
// 기본 핸들러(project_info, command_response, error, status)는 생성 시 등록되며,
// 리스너 재시작 없이 런타임에 핸들러를 추가할 수 있습니다.
type Router struct {
	// handlers는 메시지 타입별 핸들러 맵입니다.
	handlers map[string]HandlerFunc
	// mu는 handlers 맵 접근을 보호하는 뮤텍스입니다.
	mu sync.RWMutex
}

// newRouter는 Client의 기본 핸들러가 등록된 Router를 생성합니다.
func newRouter(c *Client) *Router {
	r := &Router{
		handlers: make(map[string]HandlerFunc),
	}
	r.Register(MsgProjectInfo, c.handleProjectInfo)
	r.Register(MsgCommandResponse, c.handleCommandResponse)
	r.Register(MsgError, c.handleEditorError)
	r.Register(MsgStatus, c.handleEditorStatus)
	return r
}

// Register는 메시지 타입에 대한 핸들러를 등록합니다.
// 동일 타입에 재등록하면 기존 핸들러를 대체합니다.
func (r *Router) Register(msgType string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[msgType] = handler
}

// Dispatch는 메시지를 타입에 맞는 핸들러로 전달합니다.
// 핸들러가 없는 타입은 무시하고, 핸들러 오류는 메시지 단위로 격리합니다.
func (r *Router) Dispatch(ctx context.Context, msg Message) {
	r.mu.RLock()
	handler := r.handlers[msg.Type]
	r.mu.RUnlock()

	if handler == nil {
		// 새 푸시 메시지 종류에 대한 전방 호환
		log.Warn().Str("type", msg.Type).Msg("핸들러가 없는 메시지 타입을 수신했습니다")
		return
	}

	if err := handler(ctx, msg); err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("메시지 핸들러 처리 실패")
	}
}

// handleProjectInfo는 project_info 푸시로 프로젝트 캐시를 통째로 교체합니다.
// 알 수 없는 필드는 디코딩 과정에서 방어적으로 걸러집니다.
func (c *Client) handleProjectInfo(ctx context.Context, msg Message) error {
	var info ProjectInfo
	if err := json.Unmarshal(msg.Data, &info); err != nil {
		return fmt.Errorf("project_info 페이로드 파싱 실패: %w", err)
	}

	c.setProjectInfo(&info)
	c.log.Info().
		Str("project_path", info.ProjectPath).
		Str("editor_version", info.EditorVersion).
		Bool("is_ready", info.IsReady).
		Msg("프로젝트 정보를 갱신했습니다")
	return nil
}

// handleCommandResponse는 응답을 대기 중인 커맨드 슬롯에 전달합니다.
// 성공 판정은 명시적 success 불리언을 우선하고, 없으면 status == "success"
// 문자열 표기를 사용합니다. 둘 다 없으면 실패로 간주합니다.
func (c *Client) handleCommandResponse(ctx context.Context, msg Message) error {
	if msg.ID == "" {
		c.log.Warn().Msg("커맨드 ID가 없는 command_response를 수신했습니다")
		return nil
	}

	success := false
	switch {
	case msg.Success != nil:
		success = *msg.Success
	case msg.Status != "":
		success = msg.Status == "success"
	}

	errText := msg.errorText()
	if errText == "" && !success {
		errText = msg.Message
	}

	c.pending.Resolve(msg.ID, CommandResponse{
		Success:   success,
		Data:      msg.Data,
		Error:     errText,
		CommandID: msg.ID,
	})
	return nil
}

// handleEditorError는 에디터 측 오류 알림을 기록합니다.
// 정보성 메시지이므로 대기 중인 커맨드에는 영향을 주지 않습니다.
func (c *Client) handleEditorError(ctx context.Context, msg Message) error {
	message := msg.Message
	if message == "" {
		message = msg.errorText()
	}
	c.log.Error().Str("message", message).Msg("에디터 플러그인 오류")
	return nil
}

// handleEditorStatus는 에디터 상태 알림을 디버그 레벨로 기록합니다.
func (c *Client) handleEditorStatus(ctx context.Context, msg Message) error {
	c.log.Debug().Str("data", string(msg.Data)).Msg("에디터 상태 알림")
	return nil
}
