package bridge

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/gorilla/websocket"
)

// timeoutError는 net.Error 인터페이스를 구현하는 테스트용 타임아웃 오류입니다.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o wait exceeded" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// TestClassify는 전송 계층 오류의 분류 규칙을 검증합니다.
func TestClassify(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantKind        ErrorKind
		wantRecoverable bool
	}{
		{
			name:            "연결 거부 (syscall)",
			err:             fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED),
			wantKind:        ErrorRefused,
			wantRecoverable: true,
		},
		{
			name:            "연결 거부 (문자열)",
			err:             errors.New("dial tcp 127.0.0.1:9001: connect: connection refused"),
			wantKind:        ErrorRefused,
			wantRecoverable: true,
		},
		{
			name:            "컨텍스트 데드라인 초과",
			err:             context.DeadlineExceeded,
			wantKind:        ErrorTimeout,
			wantRecoverable: true,
		},
		{
			name:            "net.Error 타임아웃",
			err:             timeoutError{},
			wantKind:        ErrorTimeout,
			wantRecoverable: true,
		},
		{
			name:            "네트워크 도달 불가",
			err:             fmt.Errorf("dial tcp: %w", syscall.ENETUNREACH),
			wantKind:        ErrorNetwork,
			wantRecoverable: false,
		},
		{
			name:            "호스트 도달 불가",
			err:             fmt.Errorf("dial tcp: %w", syscall.EHOSTUNREACH),
			wantKind:        ErrorNetwork,
			wantRecoverable: false,
		},
		{
			name:            "인증 거부 (401)",
			err:             errors.New("websocket: bad handshake: 401 Unauthorized"),
			wantKind:        ErrorAuth,
			wantRecoverable: false,
		},
		{
			name:            "인증 거부 (forbidden)",
			err:             errors.New("handshake rejected: forbidden"),
			wantKind:        ErrorAuth,
			wantRecoverable: false,
		},
		{
			name:            "WebSocket 종료 프레임",
			err:             &websocket.CloseError{Code: websocket.CloseAbnormalClosure, Text: "abnormal"},
			wantKind:        ErrorWebsocket,
			wantRecoverable: true,
		},
		{
			name:            "닫힌 소켓 사용",
			err:             errors.New("read tcp: use of closed network connection"),
			wantKind:        ErrorWebsocket,
			wantRecoverable: true,
		},
		{
			name:            "피어 리셋",
			err:             errors.New("read: connection reset by peer"),
			wantKind:        ErrorWebsocket,
			wantRecoverable: true,
		},
		{
			name:            "분류 불가 오류",
			err:             errors.New("something odd happened"),
			wantKind:        ErrorUnknown,
			wantRecoverable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Classify(tt.err)
			if info.Kind != tt.wantKind {
				t.Errorf("Classify(%v).Kind = %v, want %v", tt.err, info.Kind, tt.wantKind)
			}
			if info.Recoverable != tt.wantRecoverable {
				t.Errorf("Classify(%v).Recoverable = %v, want %v", tt.err, info.Recoverable, tt.wantRecoverable)
			}
			if info.Message != tt.err.Error() {
				t.Errorf("Classify(%v).Message = %q, want %q", tt.err, info.Message, tt.err.Error())
			}
			if info.Timestamp.IsZero() {
				t.Error("Classify().Timestamp이 비어 있습니다")
			}
		})
	}
}

// TestErrorKind_String은 ErrorKind의 문자열 표현을 검증합니다.
func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{ErrorUnknown, "unknown_error"},
		{ErrorNetwork, "network_error"},
		{ErrorTimeout, "timeout_error"},
		{ErrorRefused, "refused_error"},
		{ErrorWebsocket, "websocket_error"},
		{ErrorAuth, "auth_error"},
		{ErrorKind(99), "unknown_error"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
