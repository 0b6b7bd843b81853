// Package bridge는 Godot 에디터 플러그인과의 WebSocket 통신을 담당합니다.
// listener.go는 소켓에서 프레임을 읽어 라우터로 전달하는 백그라운드
// 태스크를 구현합니다.
package bridge

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
)

// startListener는 연결 1개당 하나의 리스너 태스크를 시작합니다.
// lifecycleMu를 잡은 상태에서만 호출해야 합니다.
func (c *Client) startListener(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.listenerCancel = cancel
	c.listenerDone = done
	go c.listen(ctx, conn, done)
}

// listen은 소켓이 닫히거나 태스크가 취소될 때까지 프레임을 읽습니다.
// 잘못된 JSON은 기록 후 건너뛰며 치명적이지 않습니다. 읽기 오류로
// 종료될 때는 연결 자원을 정리하고 대기 커맨드를 일괄 실패시킵니다.
// 취소에 의한 종료는 Disconnect가 정리를 담당하므로 그대로 반환합니다.
func (c *Client) listen(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	c.log.Debug().Msg("메시지 리스너를 시작합니다")
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// 블로킹 읽기. 종료 시 conn.Close()가 ReadMessage를 깨웁니다.
		// gorilla/websocket은 읽기 오류 후 재시도를 허용하지 않으므로
		// 오류가 나면 즉시 루프를 빠져나갑니다.
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				// 요청된 종료: 정리는 Disconnect의 몫
				return
			default:
			}
			c.handleListenerFailure(err)
			return
		}

		var msg Message
		if unmarshalErr := json.Unmarshal(data, &msg); unmarshalErr != nil {
			c.log.Warn().Err(unmarshalErr).Msg("잘못된 JSON 프레임을 수신하여 건너뜁니다")
			continue
		}
		if msg.Type == "" {
			c.log.Warn().Msg("type 필드가 없는 프레임을 수신하여 건너뜁니다")
			continue
		}

		c.router.Dispatch(ctx, msg)
	}
}

// handleListenerFailure는 읽기 오류로 리스너가 종료될 때의 정리 경로입니다.
// 정상 종료 프레임이면 Disconnected, 그 외에는 Error로 전이한 뒤
// Disconnect와 동일한 일괄 실패 루틴을 호출하여 어떤 커맨드도 영원히
// 매달리지 않게 합니다.
func (c *Client) handleListenerFailure(err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.log.Info().Msg("에디터가 연결을 정상 종료했습니다")
		c.setState(StateDisconnected)
	} else {
		info := Classify(err)
		c.recordError(info)
		c.log.Warn().
			Str("kind", info.Kind.String()).
			Str("error", info.Message).
			Msg("리스너가 읽기 오류로 종료됩니다")
		c.setState(StateError)
	}

	c.closeConn()
	c.clearProjectInfo()
	if n := c.pending.FailAll(errConnectionClosed); n > 0 {
		c.log.Warn().Int("count", n).Msg("대기 중이던 커맨드를 연결 끊김으로 해소했습니다")
	}
	c.notifyCallbacks(false)
}
