// Package bridge는 Godot 에디터 플러그인과의 WebSocket 통신을 담당합니다.
// backoff.go는 재연결 지연 계산을 담당합니다.
package bridge

import (
	"math"
	"math/rand"
	"time"
)

// JitterRatio는 지연 시간에 적용되는 지터 비율입니다 (±25%).
// 여러 브리지 인스턴스가 동시에 재연결을 몰아치는 것을 방지합니다.
const JitterRatio = 0.25

// BackoffPolicy는 상한이 있는 지수 백오프 지연을 계산합니다.
// 공식: min(base * 2^attempt, max) ± 25% 지터.
type BackoffPolicy struct {
	// base는 초기 지연 시간입니다.
	base time.Duration
	// max는 최대 지연 시간입니다.
	max time.Duration
}

// DefaultBackoffPolicy는 기본값(base 2초, max 30초)을 사용하는 정책을 생성합니다.
func DefaultBackoffPolicy() *BackoffPolicy {
	return NewBackoffPolicy(2*time.Second, 30*time.Second)
}

// NewBackoffPolicy는 새로운 백오프 정책을 생성합니다.
// base 또는 max가 0 이하이면 기본값으로 보정합니다.
func NewBackoffPolicy(base, max time.Duration) *BackoffPolicy {
	if base <= 0 {
		base = 2 * time.Second
	}
	if max <= 0 {
		max = 30 * time.Second
	}
	if max < base {
		max = base
	}
	return &BackoffPolicy{base: base, max: max}
}

// Delay는 attempt번째 재시도 전 대기 시간을 반환합니다.
// 지터를 적용한 뒤에도 결과는 항상 (0, max] 범위에 들어갑니다.
func (p *BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(p.base) * math.Pow(2, float64(attempt))
	if delay > float64(p.max) {
		delay = float64(p.max)
	}

	// ±JitterRatio 범위의 지터 적용
	jitter := 1 + (rand.Float64()*2-1)*JitterRatio
	delay *= jitter

	if delay > float64(p.max) {
		delay = float64(p.max)
	}
	if delay < 1 {
		delay = 1
	}
	return time.Duration(delay)
}

// Base는 초기 지연 시간을 반환합니다.
func (p *BackoffPolicy) Base() time.Duration {
	return p.base
}

// Max는 최대 지연 시간을 반환합니다.
func (p *BackoffPolicy) Max() time.Duration {
	return p.max
}
