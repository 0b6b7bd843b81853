package bridge

import (
	"encoding/json"
	"testing"

	"github.com/gorilla/websocket"
)

// newTestUpgrader는 테스트용 WebSocket 업그레이더를 생성합니다.
func newTestUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// receivedCommand는 가짜 에디터가 수신한 커맨드 프레임입니다.
type receivedCommand struct {
	ID     string  `json:"id"`
	Action string  `json:"action"`
	Raw    []byte  `json:"-"`
	Ts     float64 `json:"timestamp"`
}

// mockConn은 가짜 에디터 세션의 소켓 헬퍼입니다.
// 프로토콜 프레임 단위의 읽기/쓰기를 감싸 세션 함수를 단순하게 만듭니다.
type mockConn struct {
	t    *testing.T
	conn *websocket.Conn
}

// readCommand는 커맨드 프레임 하나를 읽어 파싱합니다.
func (m *mockConn) readCommand() receivedCommand {
	_, data, err := m.conn.ReadMessage()
	if err != nil {
		m.t.Logf("mock editor: read failed: %v", err)
		return receivedCommand{}
	}

	var cmd receivedCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		m.t.Errorf("mock editor: invalid command frame: %v", err)
		return receivedCommand{}
	}
	cmd.Raw = data
	return cmd
}

// respond는 수신한 커맨드에 대한 성공 응답을 보냅니다.
// 응답 데이터에 action을 에코하여 상관관계 검증에 사용합니다.
func (m *mockConn) respond(cmd receivedCommand) {
	m.writeJSON(map[string]interface{}{
		"type":    MsgCommandResponse,
		"id":      cmd.ID,
		"success": true,
		"data":    map[string]interface{}{"action": cmd.Action},
	})
}

// writeJSON은 객체를 JSON 텍스트 프레임으로 송신합니다.
func (m *mockConn) writeJSON(v interface{}) {
	if err := m.conn.WriteJSON(v); err != nil {
		m.t.Logf("mock editor: write failed: %v", err)
	}
}

// writeRaw는 바이트를 텍스트 프레임으로 그대로 송신합니다.
func (m *mockConn) writeRaw(data []byte) {
	if err := m.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		m.t.Logf("mock editor: raw write failed: %v", err)
	}
}

// waitClose는 클라이언트가 연결을 닫을 때까지 읽기를 계속합니다.
// 세션을 유지해야 하는 테스트의 마지막에 호출합니다.
func (m *mockConn) waitClose() {
	for {
		if _, _, err := m.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// close는 종료 프레임 없이 연결을 즉시 닫습니다 (비정상 종료 시뮬레이션).
func (m *mockConn) close() {
	_ = m.conn.Close()
}
