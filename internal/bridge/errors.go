// Package bridge는 Godot 에디터 플러그인과의 WebSocket 통신을 담당합니다.
// errors.go는 전송 계층 오류를 타입화된 분류 체계로 매핑합니다.
package bridge

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// ErrorKind는 연결 오류의 분류입니다.
type ErrorKind int

const (
	// ErrorUnknown은 분류할 수 없는 오류입니다 (보수적으로 재시도 허용).
	ErrorUnknown ErrorKind = iota
	// ErrorNetwork는 네트워크 도달 불가 오류입니다 (재시도 무의미).
	ErrorNetwork
	// ErrorTimeout은 연결/응답 타임아웃입니다.
	ErrorTimeout
	// ErrorRefused는 연결 거부입니다 (에디터가 아직 실행 전인 경우).
	ErrorRefused
	// ErrorWebsocket은 닫힌 소켓 등 WebSocket 계층 오류입니다.
	ErrorWebsocket
	// ErrorAuth는 핸드셰이크 인증 거부입니다.
	ErrorAuth
)

// String은 ErrorKind의 문자열 표현을 반환합니다.
func (k ErrorKind) String() string {
	switch k {
	case ErrorNetwork:
		return "network_error"
	case ErrorTimeout:
		return "timeout_error"
	case ErrorRefused:
		return "refused_error"
	case ErrorWebsocket:
		return "websocket_error"
	case ErrorAuth:
		return "auth_error"
	default:
		return "unknown_error"
	}
}

// ConnectionError는 연결 실패 한 건에 대한 진단 정보입니다.
// 가장 최근 값이 Client에 보관되어 진단에 사용됩니다.
type ConnectionError struct {
	// Kind는 오류 분류입니다.
	Kind ErrorKind
	// Message는 원본 오류 메시지입니다.
	Message string
	// Timestamp는 오류 발생 시각입니다.
	Timestamp time.Time
	// RetryCount는 오류가 발생한 재시도 회차입니다 (0부터 시작).
	RetryCount int
	// Recoverable은 재시도가 의미 있는 오류인지 여부입니다.
	Recoverable bool
}

// Classify는 전송 계층 오류를 ConnectionError로 분류합니다.
// 분류 규칙:
//   - 연결 거부           -> ErrorRefused   (재시도 가능: 에디터 기동 대기)
//   - 타임아웃            -> ErrorTimeout   (재시도 가능)
//   - 네트워크 도달 불가  -> ErrorNetwork   (재시도 불가: 호스트 자체가 없음)
//   - 인증 거부           -> ErrorAuth      (재시도 불가)
//   - 닫힌 소켓           -> ErrorWebsocket (재시도 가능)
//   - 그 외               -> ErrorUnknown   (보수적으로 재시도 가능)
func Classify(err error) ConnectionError {
	info := ConnectionError{
		Message:   err.Error(),
		Timestamp: time.Now(),
	}
	lower := strings.ToLower(info.Message)

	switch {
	case errors.Is(err, syscall.ECONNREFUSED) ||
		strings.Contains(lower, "connection refused"):
		info.Kind = ErrorRefused
		info.Recoverable = true

	case errors.Is(err, context.DeadlineExceeded) ||
		isNetTimeout(err) ||
		strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "deadline exceeded"):
		info.Kind = ErrorTimeout
		info.Recoverable = true

	case errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		strings.Contains(lower, "network is unreachable") ||
		strings.Contains(lower, "no route to host"):
		info.Kind = ErrorNetwork
		info.Recoverable = false

	case strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "forbidden") ||
		strings.Contains(lower, "401") ||
		strings.Contains(lower, "403"):
		info.Kind = ErrorAuth
		info.Recoverable = false

	case isClosedSocket(err):
		info.Kind = ErrorWebsocket
		info.Recoverable = true

	default:
		info.Kind = ErrorUnknown
		info.Recoverable = true
	}

	return info
}

// isNetTimeout은 net.Error 기준의 타임아웃 여부를 확인합니다.
func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isClosedSocket은 닫힌 소켓 계열 오류인지 확인합니다.
func isClosedSocket(err error) bool {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return true
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "websocket: close") ||
		strings.Contains(lower, "use of closed network connection") ||
		strings.Contains(lower, "connection reset by peer") ||
		strings.Contains(lower, "broken pipe")
}
