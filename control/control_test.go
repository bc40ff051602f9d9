package control

import (
	"testing"
	"time"
)

func TestInitializeDefaultsToRunning(t *testing.T) {
	p := New()
	p.Initialize("scan-1")
	isPaused, isStopped := p.Snapshot("scan-1")
	if isPaused || isStopped {
		t.Errorf("Snapshot() = (%v, %v), want (false, false)", isPaused, isStopped)
	}
}

func TestPauseResumeIdempotent(t *testing.T) {
	p := New()
	p.Initialize("scan-1")

	p.Pause("scan-1")
	p.Pause("scan-1")
	if isPaused, _ := p.Snapshot("scan-1"); !isPaused {
		t.Fatal("expected paused after Pause()")
	}

	p.Resume("scan-1")
	p.Resume("scan-1")
	if isPaused, _ := p.Snapshot("scan-1"); isPaused {
		t.Fatal("expected not paused after Resume()")
	}
}

func TestStopIsSticky(t *testing.T) {
	p := New()
	p.Initialize("scan-1")
	p.Stop("scan-1")
	p.Resume("scan-1")

	_, isStopped := p.Snapshot("scan-1")
	if !isStopped {
		t.Fatal("Stop should remain set even after Resume")
	}
	if err := p.WaitIfPaused("scan-1"); err != ErrStopped {
		t.Errorf("WaitIfPaused() = %v, want ErrStopped", err)
	}
}

func TestWaitIfPausedBlocksUntilResumed(t *testing.T) {
	p := New()
	p.Initialize("scan-1")
	p.Pause("scan-1")

	done := make(chan error, 1)
	go func() {
		done <- p.WaitIfPaused("scan-1")
	}()

	select {
	case <-done:
		t.Fatal("WaitIfPaused returned before Resume was called")
	case <-time.After(150 * time.Millisecond):
	}

	p.Resume("scan-1")
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitIfPaused() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not return after Resume")
	}
}

func TestUnknownScanIDIsSafeNoOp(t *testing.T) {
	p := New()
	p.Pause("unknown")
	p.Resume("unknown")
	p.Stop("unknown")
	isPaused, isStopped := p.Snapshot("unknown")
	if isPaused || isStopped {
		t.Errorf("Snapshot(unknown) = (%v, %v), want (false, false)", isPaused, isStopped)
	}
}

func TestCleanupRemovesEntry(t *testing.T) {
	p := New()
	p.Initialize("scan-1")
	p.Cleanup("scan-1")
	isPaused, isStopped := p.Snapshot("scan-1")
	if isPaused || isStopped {
		t.Errorf("Snapshot() after Cleanup = (%v, %v), want (false, false)", isPaused, isStopped)
	}
}
