package stub

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/muurk/sbgecom/internal/transport"
)

func TestResponderQueuesReplies(t *testing.T) {
	s := New(func(tx []byte) [][]byte {
		return [][]byte{append([]byte("re:"), tx...)}
	})

	if err := s.Send([]byte("ping")); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 4)
	var got []byte
	for s.Pending() > 0 {
		n, err := s.Receive(buf, time.Millisecond)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != "re:ping" {
		t.Errorf("received %q, want re:ping split across reads", got)
	}
	if sent := s.Sent(); len(sent) != 1 || !bytes.Equal(sent[0], []byte("ping")) {
		t.Errorf("Sent() = %q", sent)
	}
}

func TestEmptyReceiveWaitsForTimeout(t *testing.T) {
	s := New(nil)
	polls := 0
	s.Idle = func() { polls++ }

	start := time.Now()
	n, err := s.Receive(make([]byte, 8), 5*time.Millisecond)
	if n != 0 || err != nil {
		t.Fatalf("Receive() = %d, %v; want 0, nil", n, err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("Receive() returned before the timeout")
	}
	if polls != 1 {
		t.Errorf("Idle called %d times, want 1", polls)
	}
}

func TestFailuresAndClose(t *testing.T) {
	boom := errors.New("cable unplugged")
	s := New(nil)
	s.FailSend = boom
	if err := s.Send([]byte{1}); !errors.Is(err, boom) {
		t.Errorf("Send() error = %v, want injected error", err)
	}
	if len(s.Sent()) != 0 {
		t.Error("failed send was recorded")
	}

	_ = s.Close()
	if _, err := s.Receive(make([]byte, 1), time.Millisecond); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("Receive() after Close error = %v, want ErrClosed", err)
	}
}
