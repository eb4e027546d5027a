package dashboard

import (
	"strconv"
	"sync"
	"testing"

	"github.com/coder/websocket"
)

type fakeConn struct {
	mu     sync.Mutex
	closed bool
	code   websocket.StatusCode
}

func (c *fakeConn) Close(code websocket.StatusCode, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.code = code
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestSessionManager_Register(t *testing.T) {
	sm := NewSessionManager(nil)
	conn := &fakeConn{}

	sm.Register("tab-1", conn)

	if active := sm.activeConn("tab-1"); active != conn {
		t.Errorf("Expected connection %v, got %v", conn, active)
	}
	if sm.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", sm.Count())
	}
}

func TestSessionManager_ReplaceClosesPrevious(t *testing.T) {
	sm := NewSessionManager(nil)
	first := &fakeConn{}
	second := &fakeConn{}

	sm.Register("tab-1", first)
	sm.Register("tab-1", second)

	if !first.isClosed() {
		t.Error("Expected replaced connection to be closed")
	}
	if second.isClosed() {
		t.Error("Expected new connection to stay open")
	}
	if active := sm.activeConn("tab-1"); active != second {
		t.Errorf("Expected second connection active, got %v", active)
	}
}

func TestSessionManager_UnregisterStale(t *testing.T) {
	sm := NewSessionManager(nil)
	first := &fakeConn{}
	second := &fakeConn{}

	sm.Register("tab-1", first)
	sm.Register("tab-1", second)

	// The replaced connection's deferred unregister must not drop the new one.
	sm.Unregister("tab-1", first)
	if active := sm.activeConn("tab-1"); active != second {
		t.Errorf("Expected second connection to remain, got %v", active)
	}

	sm.Unregister("tab-1", second)
	if active := sm.activeConn("tab-1"); active != nil {
		t.Errorf("Expected nil connection, got %v", active)
	}
}

func TestSessionManager_CloseAll(t *testing.T) {
	sm := NewSessionManager(nil)
	conns := []*fakeConn{{}, {}, {}}
	for i, c := range conns {
		sm.Register("tab-"+strconv.Itoa(i), c)
	}

	sm.CloseAll()

	for i, c := range conns {
		if !c.isClosed() || c.code != websocket.StatusGoingAway {
			t.Errorf("conn %d: expected closed with going away, got closed=%v code=%v", i, c.closed, c.code)
		}
	}
	if sm.Count() != 0 {
		t.Errorf("Expected no sessions, got %d", sm.Count())
	}
}

func TestSessionManager_ConcurrentAccess(t *testing.T) {
	sm := NewSessionManager(nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			sm.Register("tab-"+strconv.Itoa(i), &fakeConn{})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			sm.activeConn("tab-" + strconv.Itoa(i))
		}
	}()
	wg.Wait()

	if sm.Count() != 1000 {
		t.Errorf("Expected 1000 sessions, got %d", sm.Count())
	}
}
