package store

import (
	"sync"
	"testing"
)

func TestKeyedMutexReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.lock(7)
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
	if k.size() != 0 {
		t.Fatalf("expected lock entries released, have %d", k.size())
	}
}

func TestIsSQLiteBusy(t *testing.T) {
	if isSQLiteBusy(nil) {
		t.Fatal("nil is not busy")
	}
	if !isSQLiteBusy(errString("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatal("expected busy message to match")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
