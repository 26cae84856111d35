package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerialisesSameKey(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("a")

	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		k.Lock("a")()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder entered while the key was locked")
	case <-time.After(20 * time.Millisecond):
	}

	// Other keys are independent.
	k.Lock("b")()

	unlock()
	<-acquired
	assert.Zero(t, k.Len())
}

func TestKeyedMutex_NoEntriesAfterContention(t *testing.T) {
	k := newKeyedMutex()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("shared")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, counter)
	assert.Zero(t, k.Len())
}
