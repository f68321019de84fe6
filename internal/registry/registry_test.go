package registry

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmt-mods/placement/internal/config"
	"github.com/dmt-mods/placement/internal/storage"
	"github.com/dmt-mods/placement/internal/storage/memory"
	"github.com/dmt-mods/placement/pkg/core"
)

type fakeNotifier struct {
	mu    sync.Mutex
	calls []core.MapTack
	err   error
}

func (f *fakeNotifier) Call(function string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if function == FnMapTackAdd {
		f.calls = append(f.calls, args[0].(core.MapTack))
	}
	return f.err
}

// slowBackend blocks AddMapTack until release is closed.
type slowBackend struct {
	*memory.Backend
	release chan struct{}
}

func (b *slowBackend) AddMapTack(t *core.MapTack) (uint, error) {
	<-b.release
	return b.Backend.AddMapTack(t)
}

type failingBackend struct {
	*memory.Backend
}

func (failingBackend) AddMapTack(*core.MapTack) (uint, error) {
	return 0, errors.New("disk full")
}

type flushCounter struct {
	*memory.Backend
	flushes int
}

func (b *flushCounter) Flush() error {
	b.flushes++
	return nil
}

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, backend storage.Backend, host *fakeNotifier) *Service {
	t.Helper()
	s, err := New(backend, host, nil, 8)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddMapTack_NotifiesAndStores(t *testing.T) {
	host := &fakeNotifier{}
	s := newService(t, memory.New(config.MemoryConfig{}), host)

	s.AddMapTack(core.MapTack{X: 3, Y: 4, Type: "CITY_CENTER", ClassType: "CITY"})

	require.Len(t, host.calls, 1)
	assert.Equal(t, fixedNow, host.calls[0].CreatedAt)
	assert.Equal(t, 3, host.calls[0].X)

	tacks, err := s.List()
	require.NoError(t, err)
	require.Len(t, tacks, 1)
	assert.Equal(t, uint(1), tacks[0].ID)
	assert.Equal(t, fixedNow, tacks[0].CreatedAt)
}

func TestAddMapTack_KeepsExistingTimestamp(t *testing.T) {
	host := &fakeNotifier{}
	s := newService(t, memory.New(config.MemoryConfig{}), host)
	at := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	s.AddMapTack(core.MapTack{CreatedAt: at})

	tacks, _ := s.List()
	assert.Equal(t, at, tacks[0].CreatedAt)
}

func TestAddMapTack_SamePlotTwice(t *testing.T) {
	s := newService(t, memory.New(config.MemoryConfig{}), &fakeNotifier{})

	s.AddMapTack(core.MapTack{X: 1, Y: 1, Type: "IMPROVEMENT_MINE"})
	s.AddMapTack(core.MapTack{X: 1, Y: 1, Type: "IMPROVEMENT_MINE"})

	tacks, _ := s.List()
	require.Len(t, tacks, 2)
	assert.Equal(t, uint(1), tacks[0].ID)
	assert.Equal(t, uint(2), tacks[1].ID)
}

func TestAddMapTack_HostErrorStillStores(t *testing.T) {
	s := newService(t, memory.New(config.MemoryConfig{}), &fakeNotifier{err: errors.New("no callback")})

	s.AddMapTack(core.MapTack{X: 1})

	tacks, _ := s.List()
	assert.Len(t, tacks, 1)
}

func TestAddMapTack_DoesNotWaitForStorage(t *testing.T) {
	host := &fakeNotifier{}
	backend := &slowBackend{Backend: memory.New(config.MemoryConfig{}), release: make(chan struct{})}
	s := newService(t, backend, host)

	returned := make(chan struct{})
	go func() {
		s.AddMapTack(core.MapTack{X: 1})
		s.AddMapTack(core.MapTack{X: 2})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("AddMapTack blocked on storage")
	}
	assert.Len(t, host.calls, 2)

	close(backend.release)
	tacks, err := s.List()
	require.NoError(t, err)
	require.Len(t, tacks, 2)
	assert.Equal(t, 1, tacks[0].X)
	assert.Equal(t, 2, tacks[1].X)
}

func TestAddMapTack_StorageFailureIsLogged(t *testing.T) {
	s := newService(t, failingBackend{memory.New(config.MemoryConfig{})}, &fakeNotifier{})

	s.AddMapTack(core.MapTack{X: 1})

	tacks, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, tacks)
}

func TestFlush_CallsBackendFlusher(t *testing.T) {
	backend := &flushCounter{Backend: memory.New(config.MemoryConfig{})}
	s := newService(t, backend, &fakeNotifier{})

	s.AddMapTack(core.MapTack{X: 1})
	require.NoError(t, s.Flush())
	assert.Equal(t, 1, backend.flushes)
}

func TestClose_DrainsThenDropsLateTacks(t *testing.T) {
	backend := memory.New(config.MemoryConfig{})
	host := &fakeNotifier{}
	s, err := New(backend, host, nil, 8)
	require.NoError(t, err)

	s.AddMapTack(core.MapTack{X: 1})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	s.AddMapTack(core.MapTack{X: 2})

	tacks, _ := backend.ListMapTacks()
	assert.Len(t, tacks, 1)
	assert.Len(t, host.calls, 2, "host is still told about late tacks")
}

func TestAddMapTack_FullQueueWaits(t *testing.T) {
	backend := &slowBackend{Backend: memory.New(config.MemoryConfig{}), release: make(chan struct{})}
	s, err := New(backend, &fakeNotifier{}, nil, 1)
	require.NoError(t, err)
	defer s.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(backend.release)
	}()
	for i := 0; i < 4; i++ {
		s.AddMapTack(core.MapTack{X: i})
	}

	tacks, _ := s.List()
	assert.Len(t, tacks, 4)
}

func TestList_ConcurrentWithAdds(t *testing.T) {
	s := newService(t, memory.New(config.MemoryConfig{}), &fakeNotifier{})

	const n = 500
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			s.AddMapTack(core.MapTack{X: i})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_, err := s.List()
			assert.NoError(t, err)
			assert.NoError(t, s.Flush())
		}
	}()
	wg.Wait()

	tacks, err := s.List()
	require.NoError(t, err)
	assert.Len(t, tacks, n)
}
