// Package bridge는 Godot 에디터 플러그인과의 WebSocket 통신을 담당합니다.
// pending.go는 커맨드 ID와 응답 슬롯의 상관관계 테이블을 구현합니다.
package bridge

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// PendingCommands는 진행 중인 커맨드의 응답 슬롯을 추적합니다 (커맨드 ID -> 슬롯).
// 슬롯은 용량 1의 채널이며, 테이블에서 제거한 뒤에만 송신하므로
// 각 커맨드는 정확히 한 번만 해소됩니다. FailAll은 뮤텍스로 등록과 직렬화되어
// 일괄 실패 도중 새 커맨드가 끼어들 수 없습니다.
type PendingCommands struct {
	// mu는 slots 접근을 보호하는 뮤텍스입니다.
	mu sync.Mutex
	// slots는 커맨드 ID별 응답 슬롯 맵입니다.
	slots map[string]chan CommandResponse
}

// newPendingCommands는 새로운 PendingCommands를 생성합니다.
func newPendingCommands() *PendingCommands {
	return &PendingCommands{
		slots: make(map[string]chan CommandResponse),
	}
}

// Register는 커맨드 ID에 대한 응답 슬롯을 등록합니다.
// 동일 ID가 이미 살아 있으면 오류를 반환합니다 (ID 재사용 금지 불변식).
func (p *PendingCommands) Register(id string) (<-chan CommandResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.slots[id]; exists {
		return nil, fmt.Errorf("커맨드 ID가 이미 등록되어 있습니다: %s", id)
	}

	slot := make(chan CommandResponse, 1)
	p.slots[id] = slot
	return slot, nil
}

// Resolve는 커맨드 ID의 슬롯에 응답을 전달하고 테이블에서 제거합니다.
// 알 수 없는 ID는 경고만 남기고 무시합니다 (중복/지연 응답 처리).
func (p *PendingCommands) Resolve(id string, resp CommandResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, exists := p.slots[id]
	if !exists {
		log.Warn().Str("command_id", id).Msg("알 수 없는 커맨드 응답을 수신했습니다")
		return
	}

	delete(p.slots, id)
	slot <- resp
}

// Expire는 응답 없이 슬롯을 테이블에서 제거합니다 (타임아웃/송신 실패 시).
// 알 수 없는 ID는 경고만 남기고 무시합니다.
func (p *PendingCommands) Expire(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.slots[id]; !exists {
		log.Warn().Str("command_id", id).Msg("이미 제거된 커맨드를 만료 처리하려 했습니다")
		return
	}
	delete(p.slots, id)
}

// FailAll은 모든 대기 중인 커맨드를 지정된 오류로 일괄 해소하고
// 테이블을 비웁니다. 해소된 커맨드 수를 반환합니다.
func (p *PendingCommands) FailAll(reason string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.slots)
	for id, slot := range p.slots {
		slot <- CommandResponse{
			Success:   false,
			Error:     reason,
			CommandID: id,
		}
	}
	p.slots = make(map[string]chan CommandResponse)
	return n
}

// Len은 대기 중인 커맨드 수를 반환합니다.
func (p *PendingCommands) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.slots)
}
