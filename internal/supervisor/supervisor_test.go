package supervisor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeduhub/kidra/internal/domain"
	"github.com/openeduhub/kidra/internal/logger"
	"github.com/openeduhub/kidra/internal/metrics"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func respond(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     make(http.Header),
	}
}

type fakeProcess struct {
	pid        int
	terminated atomic.Bool
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Terminate() error {
	p.terminated.Store(true)
	return nil
}

type fakeLauncher struct {
	mu       sync.Mutex
	launched []string
	args     [][]string
	procs    []*fakeProcess
	err      error
}

func (l *fakeLauncher) Launch(binary string, args []string) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	p := &fakeProcess{pid: 1000 + len(l.procs)}
	l.launched = append(l.launched, binary)
	l.args = append(l.args, args)
	l.procs = append(l.procs, p)
	return p, nil
}

func newSupervisor(l Launcher, rt http.RoundTripper, opts Options) *Supervisor {
	if opts.PingInterval == 0 {
		opts.PingInterval = 10 * time.Millisecond
	}
	if opts.PingTimeout == 0 {
		opts.PingTimeout = 100 * time.Millisecond
	}
	return New(l, &http.Client{Transport: rt}, opts, logger.Nop(), metrics.New())
}

func descriptor(name, port string) domain.ServiceDescriptor {
	return domain.NewDescriptor(name, name+"-bin", "localhost", port, "run")
}

func TestEnsureReadySucceedsAfterRefusedConnections(t *testing.T) {
	var calls atomic.Int32
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if calls.Add(1) <= 3 {
			return nil, syscall.ECONNREFUSED
		}
		assert.Equal(t, "http://localhost:1987/_ping", r.URL.String())
		return respond(http.StatusOK), nil
	})

	l := &fakeLauncher{}
	s := newSupervisor(l, rt, Options{})
	d := descriptor("text-statistics", "1987")
	d.AdditionalArgs = map[string]string{"workers": "2"}

	require.NoError(t, s.EnsureReady(context.Background(), d))
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []string{"text-statistics-bin"}, l.launched)
	assert.Equal(t, []string{"--port=1987", "--workers=2"}, l.args[0])
}

func TestEnsureReadyRetriesNon2xx(t *testing.T) {
	var calls atomic.Int32
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if calls.Add(1) <= 2 {
			return respond(http.StatusServiceUnavailable), nil
		}
		return respond(http.StatusNoContent), nil
	})

	s := newSupervisor(&fakeLauncher{}, rt, Options{})
	require.NoError(t, s.EnsureReady(context.Background(), descriptor("svc", "2000")))
	assert.Equal(t, int32(3), calls.Load())
}

func TestEnsureReadyBootTimeout(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, syscall.ECONNREFUSED
	})

	s := newSupervisor(&fakeLauncher{}, rt, Options{PingInterval: 20 * time.Millisecond})
	d := descriptor("never-ready", "2000")
	d.BootTimeout = 150 * time.Millisecond

	start := time.Now()
	err := s.EnsureReady(context.Background(), d)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrBootTimeout)
	assert.GreaterOrEqual(t, elapsed, d.BootTimeout)
	assert.Less(t, elapsed, d.BootTimeout+time.Second)
}

func TestEnsureReadyProbeClampedToBudget(t *testing.T) {
	// a backend that hangs must not hold the probe beyond the boot budget
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	})

	s := newSupervisor(&fakeLauncher{}, rt, Options{PingTimeout: 10 * time.Second})
	d := descriptor("hanging", "2000")
	d.BootTimeout = 100 * time.Millisecond

	start := time.Now()
	err := s.EnsureReady(context.Background(), d)
	require.ErrorIs(t, err, ErrBootTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestEnsureReadySkipsNonAutostart(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		t.Fatal("no probe expected")
		return nil, nil
	})

	l := &fakeLauncher{}
	s := newSupervisor(l, rt, Options{})
	d := descriptor("remote", "")
	d.Autostart = false

	require.NoError(t, s.EnsureReady(context.Background(), d))
	assert.Empty(t, l.launched)
}

func TestEnsureReadyContextCancelLeavesChild(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, syscall.ECONNREFUSED
	})

	l := &fakeLauncher{}
	s := newSupervisor(l, rt, Options{})
	d := descriptor("slow", "2000")
	d.BootTimeout = 0

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.EnsureReady(ctx, d)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, l.procs, 1)
	assert.False(t, l.procs[0].terminated.Load())
}

func TestEnsureReadyLaunchError(t *testing.T) {
	l := &fakeLauncher{err: errors.New("exec: not found")}
	s := newSupervisor(l, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return respond(http.StatusOK), nil
	}), Options{})

	err := s.EnsureReady(context.Background(), descriptor("svc", "2000"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "svc")
}

func TestEnsureAllStopsAtFirstFailure(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.Port() == "2002" {
			return nil, syscall.ECONNREFUSED
		}
		return respond(http.StatusOK), nil
	})

	l := &fakeLauncher{}
	s := newSupervisor(l, rt, Options{})

	broken := descriptor("b", "2002")
	broken.BootTimeout = 50 * time.Millisecond
	ds := []domain.ServiceDescriptor{descriptor("a", "2001"), broken, descriptor("c", "2003")}

	err := s.EnsureAll(context.Background(), ds)
	require.ErrorIs(t, err, ErrBootTimeout)
	assert.Equal(t, []string{"a-bin", "b-bin"}, l.launched)
	assert.Equal(t, []string{"a", "b"}, s.Spawned())
}

func TestShutdownPolicy(t *testing.T) {
	ok := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return respond(http.StatusOK), nil
	})

	t.Run("detached by default", func(t *testing.T) {
		l := &fakeLauncher{}
		s := newSupervisor(l, ok, Options{})
		require.NoError(t, s.EnsureReady(context.Background(), descriptor("a", "2001")))

		require.NoError(t, s.Shutdown())
		assert.False(t, l.procs[0].terminated.Load())
	})

	t.Run("terminate on exit", func(t *testing.T) {
		l := &fakeLauncher{}
		s := newSupervisor(l, ok, Options{TerminateOnExit: true})
		require.NoError(t, s.EnsureAll(context.Background(), []domain.ServiceDescriptor{
			descriptor("a", "2001"), descriptor("b", "2002"),
		}))

		require.NoError(t, s.Shutdown())
		for _, p := range l.procs {
			assert.True(t, p.terminated.Load())
		}
	})
}

func TestExecLauncherMissingBinary(t *testing.T) {
	_, err := ExecLauncher{}.Launch("/nonexistent/kidra-test-binary", nil)
	require.Error(t, err)
}
