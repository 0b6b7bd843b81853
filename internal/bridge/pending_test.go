package bridge

import (
	"sync"
	"testing"
)

// TestPendingCommands_RegisterResolve는 등록-해소의 기본 흐름을 검증합니다.
func TestPendingCommands_RegisterResolve(t *testing.T) {
	pending := newPendingCommands()

	slot, err := pending.Register("cmd_1")
	if err != nil {
		t.Fatalf("Register() 오류: %v", err)
	}
	if pending.Len() != 1 {
		t.Errorf("Len() = %d, want 1", pending.Len())
	}

	pending.Resolve("cmd_1", CommandResponse{Success: true, CommandID: "cmd_1"})

	resp := <-slot
	if !resp.Success {
		t.Errorf("resp.Success = false, want true")
	}
	if resp.CommandID != "cmd_1" {
		t.Errorf("resp.CommandID = %q, want %q", resp.CommandID, "cmd_1")
	}
	if pending.Len() != 0 {
		t.Errorf("해소 후 Len() = %d, want 0", pending.Len())
	}
}

// TestPendingCommands_DuplicateRegister는 동일 ID 재등록이 거부되는지 검증합니다.
func TestPendingCommands_DuplicateRegister(t *testing.T) {
	pending := newPendingCommands()

	if _, err := pending.Register("cmd_1"); err != nil {
		t.Fatalf("첫 Register() 오류: %v", err)
	}
	if _, err := pending.Register("cmd_1"); err == nil {
		t.Error("중복 Register()가 오류를 반환하지 않았습니다")
	}
	if pending.Len() != 1 {
		t.Errorf("Len() = %d, want 1", pending.Len())
	}
}

// TestPendingCommands_ResolveUnknown은 알 수 없는 ID 해소가 무해한지 검증합니다.
func TestPendingCommands_ResolveUnknown(t *testing.T) {
	pending := newPendingCommands()

	// 패닉 없이 무시되어야 함
	pending.Resolve("ghost", CommandResponse{Success: true})
	pending.Expire("ghost")

	if pending.Len() != 0 {
		t.Errorf("Len() = %d, want 0", pending.Len())
	}
}

// TestPendingCommands_Expire는 만료 처리 후 지연 응답이 무시되는지 검증합니다.
func TestPendingCommands_Expire(t *testing.T) {
	pending := newPendingCommands()

	slot, err := pending.Register("cmd_1")
	if err != nil {
		t.Fatalf("Register() 오류: %v", err)
	}

	pending.Expire("cmd_1")
	if pending.Len() != 0 {
		t.Errorf("만료 후 Len() = %d, want 0", pending.Len())
	}

	// 만료 이후 도착한 지연 응답은 슬롯에 전달되지 않음
	pending.Resolve("cmd_1", CommandResponse{Success: true})
	select {
	case resp := <-slot:
		t.Errorf("만료된 슬롯에 응답이 전달되었습니다: %+v", resp)
	default:
	}
}

// TestPendingCommands_FailAll은 일괄 실패 처리를 검증합니다.
func TestPendingCommands_FailAll(t *testing.T) {
	pending := newPendingCommands()

	ids := []string{"cmd_1", "cmd_2", "cmd_3"}
	slots := make(map[string]<-chan CommandResponse)
	for _, id := range ids {
		slot, err := pending.Register(id)
		if err != nil {
			t.Fatalf("Register(%s) 오류: %v", id, err)
		}
		slots[id] = slot
	}

	n := pending.FailAll("connection closed")
	if n != len(ids) {
		t.Errorf("FailAll() = %d, want %d", n, len(ids))
	}
	if pending.Len() != 0 {
		t.Errorf("FailAll 후 Len() = %d, want 0", pending.Len())
	}

	for id, slot := range slots {
		resp := <-slot
		if resp.Success {
			t.Errorf("%s: resp.Success = true, want false", id)
		}
		if resp.Error != "connection closed" {
			t.Errorf("%s: resp.Error = %q, want %q", id, resp.Error, "connection closed")
		}
		if resp.CommandID != id {
			t.Errorf("%s: resp.CommandID = %q, want %q", id, resp.CommandID, id)
		}
	}
}

// TestPendingCommands_FailAllEmpty는 빈 테이블의 일괄 실패를 검증합니다.
func TestPendingCommands_FailAllEmpty(t *testing.T) {
	pending := newPendingCommands()

	if n := pending.FailAll("connection closed"); n != 0 {
		t.Errorf("FailAll() = %d, want 0", n)
	}
}

// TestPendingCommands_ConcurrentAccess는 동시 등록/해소의 안전성을 검증합니다.
func TestPendingCommands_ConcurrentAccess(t *testing.T) {
	pending := newPendingCommands()

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()

			id := "cmd_" + string(rune('a'+n))
			slot, err := pending.Register(id)
			if err != nil {
				t.Errorf("Register(%s) 오류: %v", id, err)
				return
			}
			pending.Resolve(id, CommandResponse{Success: true, CommandID: id})
			resp := <-slot
			if resp.CommandID != id {
				t.Errorf("resp.CommandID = %q, want %q", resp.CommandID, id)
			}
		}(i)
	}
	wg.Wait()

	if pending.Len() != 0 {
		t.Errorf("Len() = %d, want 0", pending.Len())
	}
}
