package scheduler

import (
	"sync"
	"testing"
	"time"
)

func TestJanitorRunsSweep(t *testing.T) {
	fired := make(chan struct{})
	var once sync.Once
	j := New(time.Second, func() int {
		once.Do(func() { close(fired) })
		return 1
	})
	if err := j.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer j.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatalf("sweep did not run within the interval")
	}
}

func TestJanitorWithoutSweepIsInert(t *testing.T) {
	j := New(time.Second, nil)
	if err := j.Start(); err != nil {
		t.Fatalf("start without sweep must not fail: %v", err)
	}
	j.Stop()
}
