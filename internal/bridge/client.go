// Package bridge는 Godot 에디터 플러그인과의 WebSocket 통신을 담당합니다.
// 단일 소켓 위에서 다수의 동시 호출자가 커맨드를 보내고, 에디터의 비동기
// 푸시 메시지를 수신하는 전송/상관관계 계층입니다. 커맨드의 의미는
// 해석하지 않습니다.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// 기본 설정값
const (
	// DefaultHost는 기본 에디터 호스트입니다.
	DefaultHost = "localhost"
	// DefaultPort는 기본 에디터 플러그인 포트입니다.
	DefaultPort = 9001
	// DefaultConnectTimeout은 연결 시도 1회의 타임아웃입니다.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultMaxRetries는 연결 시도 횟수입니다.
	DefaultMaxRetries = 3
	// DefaultCommandTimeout은 커맨드 응답 대기 타임아웃입니다.
	DefaultCommandTimeout = 30 * time.Second

	// WriteTimeout은 프레임 쓰기 타임아웃입니다.
	WriteTimeout = 10 * time.Second
	// MaxMessageSize는 최대 수신 메시지 크기입니다 (1MB).
	MaxMessageSize = 1024 * 1024

	// maxNonRecoverableStreak는 연속 복구 불가 오류가 이 횟수에 도달하면
	// 재시도 루프를 조기 중단하는 기준입니다.
	maxNonRecoverableStreak = 3
)

// errConnectionClosed는 연결 해제 시 대기 커맨드에 전달되는 오류 텍스트입니다.
// 에이전트 대화 기록으로 그대로 흘러가므로 프로토콜 원문(영문)을 유지합니다.
const errConnectionClosed = "connection closed"

// ConnectionState는 연결 상태를 나타냅니다.
type ConnectionState int32

const (
	// StateDisconnected는 연결되지 않은 상태입니다.
	StateDisconnected ConnectionState = iota
	// StateConnecting은 연결 시도 중인 상태입니다.
	StateConnecting
	// StateConnected는 연결된 상태입니다.
	StateConnected
	// StateError는 연결 실패 또는 비정상 종료 상태입니다.
	StateError
)

// String은 ConnectionState의 문자열 표현을 반환합니다.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Client는 에디터 플러그인과의 WebSocket 브리지입니다.
// 소켓과 상태 머신을 단독 소유하며, 연결/해제/재시도/커맨드 상관관계를
// 관리합니다. 종료 상태가 없으므로 connect/disconnect를 반복해 재사용할
// 수 있습니다.
type Client struct {
	// host는 에디터 호스트입니다.
	host string
	// port는 에디터 플러그인 포트입니다.
	port int
	// connectTimeout은 연결 시도 1회의 타임아웃입니다.
	connectTimeout time.Duration
	// maxRetries는 연결 시도 횟수입니다.
	maxRetries int
	// commandTimeout은 커맨드 응답 대기 타임아웃입니다.
	commandTimeout time.Duration

	// sessionID는 동시 실행되는 브리지 인스턴스를 로그에서 구분하는 ID입니다.
	sessionID string
	// log는 세션 컨텍스트가 포함된 로거입니다.
	log zerolog.Logger

	// conn은 WebSocket 연결입니다.
	conn *websocket.Conn
	// connMu는 conn 접근을 보호하는 뮤텍스입니다.
	connMu sync.RWMutex
	// writeMu는 소켓 쓰기를 직렬화하는 뮤텍스입니다.
	// gorilla/websocket은 동시 쓰기를 지원하지 않으므로 모든 쓰기를 직렬화합니다.
	writeMu sync.Mutex

	// state는 현재 연결 상태입니다.
	state atomic.Int32
	// lifecycleMu는 connect/disconnect 수명주기 전이를 직렬화하는 뮤텍스입니다.
	lifecycleMu sync.Mutex

	// backoff는 재시도 지연 정책입니다.
	backoff *BackoffPolicy
	// lastErr는 가장 최근의 연결 오류입니다 (진단용).
	lastErr *ConnectionError
	// lastErrMu는 lastErr 접근을 보호하는 뮤텍스입니다.
	lastErrMu sync.RWMutex

	// pending은 커맨드 ID -> 응답 슬롯 테이블입니다.
	pending *PendingCommands
	// router는 수신 메시지 라우터입니다.
	router *Router
	// cmdSeq는 단조 증가 커맨드 ID 시퀀스입니다.
	cmdSeq atomic.Uint64

	// projectInfo는 에디터가 푸시한 프로젝트 메타데이터 캐시입니다.
	projectInfo *ProjectInfo
	// projectInfoMu는 projectInfo 접근을 보호하는 뮤텍스입니다.
	projectInfoMu sync.RWMutex

	// callbacks는 연결 상태 변화 콜백 맵입니다 (등록 ID -> 콜백).
	callbacks map[int]func(connected bool)
	// callbacksMu는 callbacks 접근을 보호하는 뮤텍스입니다.
	callbacksMu sync.Mutex
	// callbackSeq는 콜백 등록 ID 시퀀스입니다.
	callbackSeq int

	// listenerCancel은 리스너 태스크를 취소하는 함수입니다.
	listenerCancel context.CancelFunc
	// listenerDone은 리스너 태스크 종료를 알리는 채널입니다.
	listenerDone chan struct{}
}

// ClientOption은 Client 설정 옵션입니다.
type ClientOption func(*Client)

// WithConnectTimeout은 연결 시도 타임아웃을 설정합니다.
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithMaxRetries는 연결 시도 횟수를 설정합니다.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithCommandTimeout은 커맨드 응답 대기 타임아웃을 설정합니다.
func WithCommandTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.commandTimeout = d
		}
	}
}

// WithBackoffPolicy는 재시도 지연 정책을 설정합니다.
func WithBackoffPolicy(p *BackoffPolicy) ClientOption {
	return func(c *Client) {
		if p != nil {
			c.backoff = p
		}
	}
}

// NewClient는 새로운 에디터 브리지 클라이언트를 생성합니다.
// 초기 상태는 Disconnected입니다.
func NewClient(host string, port int, opts ...ClientOption) *Client {
	if host == "" {
		host = DefaultHost
	}
	if port <= 0 {
		port = DefaultPort
	}

	c := &Client{
		host:           host,
		port:           port,
		connectTimeout: DefaultConnectTimeout,
		maxRetries:     DefaultMaxRetries,
		commandTimeout: DefaultCommandTimeout,
		sessionID:      uuid.New().String(),
		backoff:        DefaultBackoffPolicy(),
		pending:        newPendingCommands(),
		callbacks:      make(map[int]func(bool)),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.log = log.With().
		Str("component", "bridge").
		Str("session_id", c.sessionID).
		Logger()
	c.router = newRouter(c)
	c.state.Store(int32(StateDisconnected))
	return c
}

// URL은 에디터 플러그인 WebSocket URL을 반환합니다.
func (c *Client) URL() string {
	return fmt.Sprintf("ws://%s:%d", c.host, c.port)
}

// State는 현재 연결 상태를 반환합니다.
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// setState는 연결 상태를 전이하고 변화를 기록합니다.
func (c *Client) setState(next ConnectionState) {
	prev := ConnectionState(c.state.Swap(int32(next)))
	if prev != next {
		c.log.Debug().
			Stringer("from", prev).
			Stringer("to", next).
			Msg("연결 상태 전이")
	}
}

// Connect는 에디터 플러그인에 연결합니다. 이미 연결된 경우 즉시 true를
// 반환합니다(멱등). 최대 maxRetries회 시도하며, 시도 사이에는 백오프
// 지연을 둡니다. 연속 복구 불가 오류가 기준 횟수에 도달하면 조기
// 중단합니다. 모든 시도가 실패하면 Error 상태로 전이하고 false를
// 반환합니다. 오류를 던지지 않습니다.
func (c *Client) Connect(ctx context.Context) bool {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.State() == StateConnected {
		c.log.Debug().Msg("이미 연결되어 있습니다")
		return true
	}

	c.setState(StateConnecting)
	c.log.Info().Str("url", c.URL()).Msg("에디터 플러그인에 연결을 시도합니다")

	nonRecoverableStreak := 0
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff.Delay(attempt)
			c.log.Debug().
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("재시도 전 대기")
			select {
			case <-ctx.Done():
				c.setState(StateError)
				return false
			case <-time.After(delay):
			}
		}

		conn, err := c.dial(ctx)
		if err == nil {
			conn.SetReadLimit(MaxMessageSize)
			c.connMu.Lock()
			c.conn = conn
			c.connMu.Unlock()

			c.clearLastError()
			c.setState(StateConnected)
			c.startListener(conn)
			c.notifyCallbacks(true)
			c.log.Info().Int("attempt", attempt+1).Msg("에디터 플러그인에 연결되었습니다")
			return true
		}

		info := Classify(err)
		info.RetryCount = attempt
		c.recordError(info)
		c.log.Warn().
			Int("attempt", attempt+1).
			Str("kind", info.Kind.String()).
			Bool("recoverable", info.Recoverable).
			Str("error", info.Message).
			Msg("연결 시도 실패")

		if info.Recoverable {
			nonRecoverableStreak = 0
		} else {
			nonRecoverableStreak++
			if nonRecoverableStreak >= maxNonRecoverableStreak {
				c.log.Error().
					Int("streak", nonRecoverableStreak).
					Msg("복구 불가 오류가 연속되어 재시도를 중단합니다")
				break
			}
		}
	}

	c.setState(StateError)
	c.log.Error().Msg("모든 연결 시도가 실패했습니다")
	return false
}

// dial은 타임아웃이 적용된 WebSocket 다이얼을 수행합니다.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	dialer := websocket.Dialer{
		HandshakeTimeout: c.connectTimeout,
	}
	conn, _, err := dialer.DialContext(dialCtx, c.URL(), nil)
	return conn, err
}

// Disconnect는 리스너 태스크를 취소(종료 대기 포함)하고 소켓을 닫은 뒤
// Disconnected 상태로 전이합니다. 프로젝트 캐시를 비우고 대기 중인 모든
// 커맨드를 연결 종료 오류로 해소합니다. 이미 해제된 상태에서 호출해도
// 안전합니다.
func (c *Client) Disconnect() {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	prev := c.State()
	if prev == StateDisconnected {
		return
	}

	if c.listenerCancel != nil {
		c.listenerCancel()
	}
	c.closeConn()
	if c.listenerDone != nil {
		<-c.listenerDone
	}
	c.listenerCancel = nil
	c.listenerDone = nil

	c.setState(StateDisconnected)
	c.clearProjectInfo()

	if n := c.pending.FailAll(errConnectionClosed); n > 0 {
		c.log.Warn().Int("count", n).Msg("대기 중이던 커맨드를 연결 종료로 해소했습니다")
	}

	if prev == StateConnected {
		c.notifyCallbacks(false)
	}
	c.log.Info().Msg("에디터 플러그인 연결을 해제했습니다")
}

// closeConn은 소켓에 종료 프레임을 보내고 연결을 닫습니다.
func (c *Client) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		c.writeMu.Unlock()
		_ = c.conn.Close()
		c.conn = nil
	}
}

// IsConnected는 상태가 Connected이고 핑 프로브가 성공할 때만 true를
// 반환합니다. 프로브 실패는 소켓이 조용히 죽은 경우이므로 즉시 Error
// 상태로 전이합니다.
func (c *Client) IsConnected() bool {
	if c.State() != StateConnected {
		return false
	}

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return false
	}

	c.writeMu.Lock()
	err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WriteTimeout))
	c.writeMu.Unlock()
	if err != nil {
		c.log.Warn().Err(err).Msg("핑 프로브 실패 - 연결이 유효하지 않습니다")
		c.setState(StateError)
		return false
	}
	return true
}

// SendCommand는 커맨드를 전송하고 응답을 기다립니다.
// 연결되어 있지 않으면 자동으로 연결을 시도하고, 실패하면 연결 오류를
// 담은 실패 응답을 즉시 반환합니다. 타임아웃/송신 실패 시에도 오류를
// 던지지 않고 실패 CommandResponse를 반환하며, 어떤 경우에도 대기
// 테이블에 항목을 남기지 않습니다.
func (c *Client) SendCommand(ctx context.Context, action string, params map[string]interface{}) CommandResponse {
	if !c.IsConnected() {
		c.log.Info().Str("action", action).Msg("연결되어 있지 않아 자동 연결을 시도합니다")
		if !c.Connect(ctx) {
			return CommandResponse{
				Success: false,
				Error:   "failed to connect to editor plugin",
			}
		}
	}

	id := fmt.Sprintf("cmd_%d", c.cmdSeq.Add(1))

	data, err := json.Marshal(newCommandEnvelope(id, action, params))
	if err != nil {
		return CommandResponse{
			Success:   false,
			Error:     fmt.Sprintf("failed to encode command: %v", err),
			CommandID: id,
		}
	}

	slot, err := c.pending.Register(id)
	if err != nil {
		return CommandResponse{
			Success:   false,
			Error:     fmt.Sprintf("failed to register command: %v", err),
			CommandID: id,
		}
	}

	if err := c.writeFrame(data); err != nil {
		c.pending.Expire(id)
		c.log.Error().Err(err).Str("command_id", id).Str("action", action).Msg("커맨드 송신 실패")
		return CommandResponse{
			Success:   false,
			Error:     fmt.Sprintf("failed to send command: %v", err),
			CommandID: id,
		}
	}
	c.log.Debug().Str("command_id", id).Str("action", action).Msg("커맨드를 송신했습니다")

	timer := time.NewTimer(c.commandTimeout)
	defer timer.Stop()

	select {
	case resp := <-slot:
		return resp
	case <-timer.C:
		c.pending.Expire(id)
		c.log.Warn().Str("command_id", id).Str("action", action).Msg("커맨드 응답 타임아웃")
		return CommandResponse{
			Success:   false,
			Error:     fmt.Sprintf("command %s timed out after %s", id, c.commandTimeout),
			CommandID: id,
		}
	case <-ctx.Done():
		c.pending.Expire(id)
		return CommandResponse{
			Success:   false,
			Error:     fmt.Sprintf("command cancelled: %v", ctx.Err()),
			CommandID: id,
		}
	}
}

// writeFrame은 쓰기 뮤텍스 아래에서 텍스트 프레임 하나를 송신합니다.
func (c *Client) writeFrame(data []byte) error {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return errors.New("연결이 없습니다")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// RegisterHandler는 수신 메시지 타입에 대한 커스텀 핸들러를 등록합니다.
// 리스너 재시작 없이 즉시 적용됩니다.
func (c *Client) RegisterHandler(msgType string, handler HandlerFunc) {
	c.router.Register(msgType, handler)
}

// AddConnectionCallback은 연결 상태 변화 콜백을 등록하고 해제용 ID를
// 반환합니다. 연결 성공 시 true, 연결 해제 시 false로 호출됩니다.
func (c *Client) AddConnectionCallback(fn func(connected bool)) int {
	c.callbacksMu.Lock()
	defer c.callbacksMu.Unlock()

	c.callbackSeq++
	c.callbacks[c.callbackSeq] = fn
	return c.callbackSeq
}

// RemoveConnectionCallback은 등록된 콜백을 제거합니다.
func (c *Client) RemoveConnectionCallback(id int) {
	c.callbacksMu.Lock()
	defer c.callbacksMu.Unlock()

	delete(c.callbacks, id)
}

// notifyCallbacks는 등록된 모든 콜백을 호출합니다.
func (c *Client) notifyCallbacks(connected bool) {
	c.callbacksMu.Lock()
	fns := make([]func(bool), 0, len(c.callbacks))
	for _, fn := range c.callbacks {
		fns = append(fns, fn)
	}
	c.callbacksMu.Unlock()

	for _, fn := range fns {
		fn(connected)
	}
}

// LastError는 가장 최근의 연결 오류를 반환합니다. 없으면 nil입니다.
func (c *Client) LastError() *ConnectionError {
	c.lastErrMu.RLock()
	defer c.lastErrMu.RUnlock()

	if c.lastErr == nil {
		return nil
	}
	copied := *c.lastErr
	return &copied
}

// recordError는 연결 오류를 기록합니다.
func (c *Client) recordError(info ConnectionError) {
	c.lastErrMu.Lock()
	defer c.lastErrMu.Unlock()
	c.lastErr = &info
}

// clearLastError는 기록된 연결 오류를 지웁니다.
func (c *Client) clearLastError() {
	c.lastErrMu.Lock()
	defer c.lastErrMu.Unlock()
	c.lastErr = nil
}

// GetProjectInfo는 프로젝트 정보를 반환합니다. 캐시가 준비 상태이면
// 캐시를 사용하고, 아니면 get_project_info 커맨드로 조회하여 캐시합니다.
func (c *Client) GetProjectInfo(ctx context.Context) (*ProjectInfo, error) {
	if info := c.cachedProjectInfo(); info != nil && info.IsReady {
		return info, nil
	}

	resp := c.SendCommand(ctx, "get_project_info", nil)
	if !resp.Success {
		return nil, fmt.Errorf("프로젝트 정보 조회 실패: %s", resp.Error)
	}

	var info ProjectInfo
	if err := json.Unmarshal(resp.Data, &info); err != nil {
		return nil, fmt.Errorf("프로젝트 정보 파싱 실패: %w", err)
	}
	c.setProjectInfo(&info)
	return &info, nil
}

// ProjectPath는 캐시된 프로젝트 루트 경로를 반환합니다. 없으면 빈 문자열입니다.
func (c *Client) ProjectPath() string {
	if info := c.cachedProjectInfo(); info != nil {
		return info.ProjectPath
	}
	return ""
}

// IsProjectReady는 연결 상태이고 프로젝트가 준비되었는지 확인합니다.
func (c *Client) IsProjectReady() bool {
	info := c.cachedProjectInfo()
	return c.State() == StateConnected && info != nil && info.IsReady
}

// cachedProjectInfo는 캐시된 프로젝트 정보의 사본을 반환합니다.
func (c *Client) cachedProjectInfo() *ProjectInfo {
	c.projectInfoMu.RLock()
	defer c.projectInfoMu.RUnlock()

	if c.projectInfo == nil {
		return nil
	}
	copied := *c.projectInfo
	return &copied
}

// setProjectInfo는 프로젝트 캐시를 통째로 교체합니다.
func (c *Client) setProjectInfo(info *ProjectInfo) {
	c.projectInfoMu.Lock()
	defer c.projectInfoMu.Unlock()
	c.projectInfo = info
}

// clearProjectInfo는 프로젝트 캐시를 비웁니다.
func (c *Client) clearProjectInfo() {
	c.projectInfoMu.Lock()
	defer c.projectInfoMu.Unlock()
	c.projectInfo = nil
}
