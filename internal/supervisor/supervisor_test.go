package supervisor

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"syscall"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"masterybox/internal/hub"
	"masterybox/internal/lcu"
	"masterybox/internal/league"
	"masterybox/internal/procwatch"
	"masterybox/internal/tracker"
)

var errRefused = &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

type fakeStream struct {
	events chan lcu.Event
	done   chan struct{}
	once   sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan lcu.Event), done: make(chan struct{})}
}

func (s *fakeStream) Events() <-chan lcu.Event { return s.events }
func (s *fakeStream) Done() <-chan struct{}    { return s.done }
func (s *fakeStream) Err() error               { return nil }

func (s *fakeStream) Close() error {
	s.once.Do(func() {
		close(s.done)
		close(s.events)
	})
	return nil
}

type fakeClient struct {
	mu        sync.Mutex
	pingErrs  []error
	pings     int
	authAfter int
	authCalls int
	responses map[string]string
	getErrs   map[string][]error
	streams   chan *fakeStream
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		responses: map[string]string{
			lcu.URICurrentSummoner:             `{"summonerId":12345,"displayName":"Faker"}`,
			lcu.ChampionsEndpoint(12345):       `[{"id":1,"name":"Annie","ownership":{"owned":true}}]`,
			lcu.ChampionMasteryEndpoint(12345): `[]`,
			lcu.URIChestEligibility:            `{"earnableChests":1}`,
			lcu.URIGameflowPhase:               `"None"`,
		},
		getErrs: map[string][]error{},
		streams: make(chan *fakeStream, 4),
	}
}

func (c *fakeClient) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings++
	if c.pings <= len(c.pingErrs) {
		return c.pingErrs[c.pings-1]
	}
	return nil
}

func (c *fakeClient) pingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

func (c *fakeClient) IsConnected(context.Context) (bool, error) { return true, nil }

func (c *fakeClient) IsAuthorized(context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authCalls++
	return c.authCalls > c.authAfter, nil
}

func (c *fakeClient) GetJSON(_ context.Context, endpoint string, out any) error {
	c.mu.Lock()
	if errs := c.getErrs[endpoint]; len(errs) > 0 {
		c.getErrs[endpoint] = errs[1:]
		c.mu.Unlock()
		return errs[0]
	}
	body, ok := c.responses[endpoint]
	c.mu.Unlock()
	if !ok {
		return &lcu.StatusError{Endpoint: endpoint, StatusCode: http.StatusNotFound}
	}
	return json.Unmarshal([]byte(body), out)
}

func (c *fakeClient) OpenEventStream(context.Context) (Stream, error) {
	s := newFakeStream()
	c.streams <- s
	return s, nil
}

type harness struct {
	hub     *hub.Hub
	tracker *tracker.Tracker
	sup     *Supervisor
	client  *fakeClient

	mu     sync.Mutex
	states []league.ConnectionState
}

func newHarness(t *testing.T, client *fakeClient) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	h := hub.New(logger)
	t.Cleanup(h.Close)

	hs := &harness{hub: h, client: client}
	h.OnConnectionChange(func(s league.ConnectionState) {
		hs.mu.Lock()
		defer hs.mu.Unlock()
		hs.states = append(hs.states, s)
	})
	hs.tracker = tracker.New(h, nil, logger)
	hs.sup = New(hs.tracker, h, func(procwatch.Process) (Client, error) { return client, nil },
		Options{RetryInterval: 5 * time.Millisecond, AuthPollInterval: 5 * time.Millisecond}, logger)
	t.Cleanup(hs.sup.Stop)
	return hs
}

func (hs *harness) connectionStates() []league.ConnectionState {
	hs.hub.Flush()
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return append([]league.ConnectionState(nil), hs.states...)
}

func nextStream(t *testing.T, c *fakeClient) *fakeStream {
	t.Helper()
	select {
	case s := <-c.streams:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("no event stream opened")
		return nil
	}
}

var running = procwatch.Process{Running: true, CommandLine: "LeagueClientUx.exe --app-port=1 --remoting-auth-token=x --install-directory=/x"}

func TestSupervisor_ConnectsAfterRefusalsAndAuthorizes(t *testing.T) {
	client := newFakeClient()
	client.pingErrs = []error{errRefused, errRefused}
	client.authAfter = 2
	hs := newHarness(t, client)
	ctx := context.Background()

	hs.sup.ProcessChanged(ctx, running)
	stream := nextStream(t, client)

	require.Eventually(t, func() bool {
		return hs.tracker.Summoner().Status == league.StatusLoggedInAuthorized
	}, 5*time.Second, 5*time.Millisecond)

	s := hs.tracker.Summoner()
	assert.Equal(t, int64(12345), s.SummonerID)
	assert.Equal(t, "Faker", s.DisplayName)
	assert.Equal(t, 3, client.pingCount())
	assert.Equal(t, league.Connected, hs.sup.State())

	stream.events <- lcu.Event{URI: lcu.URIGameflowPhase, EventType: "Update", Data: json.RawMessage(`"Lobby"`)}
	require.Eventually(t, func() bool {
		return hs.tracker.Phase() == league.PhaseLobby
	}, 5*time.Second, 5*time.Millisecond)

	hs.sup.ProcessChanged(ctx, procwatch.Process{})

	assert.Equal(t, league.Disconnected, hs.sup.State())
	assert.Equal(t, league.StatusNotChecked, hs.tracker.Summoner().Status)
	assert.Equal(t, league.PhaseNone, hs.tracker.Phase())
	assert.Equal(t, []league.ConnectionState{league.WaitingForServer, league.Connected, league.Disconnected},
		hs.connectionStates())
}

func TestSupervisor_ReconnectsWhenStreamCloses(t *testing.T) {
	client := newFakeClient()
	hs := newHarness(t, client)
	ctx := context.Background()

	hs.sup.ProcessChanged(ctx, running)
	first := nextStream(t, client)
	require.NoError(t, hs.sup.WaitForState(ctx, league.Connected))

	first.Close()
	second := nextStream(t, client)
	require.NotSame(t, first, second)

	hs.sup.Stop()
	assert.Equal(t, 2, client.pingCount())
	assert.Equal(t, []league.ConnectionState{
		league.WaitingForServer, league.Connected,
		league.WaitingForServer, league.Connected,
		league.Disconnected,
	}, hs.connectionStates())
}

func TestSupervisor_ProcessDownWhileWaiting(t *testing.T) {
	client := newFakeClient()
	client.pingErrs = make([]error, 1000)
	for i := range client.pingErrs {
		client.pingErrs[i] = errRefused
	}
	hs := newHarness(t, client)
	ctx := context.Background()

	hs.sup.ProcessChanged(ctx, running)
	require.NoError(t, hs.sup.WaitForState(ctx, league.WaitingForServer))
	hs.sup.ProcessChanged(ctx, running) // already running: no second session

	stopped := make(chan struct{})
	go func() {
		hs.sup.ProcessChanged(ctx, procwatch.Process{})
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("process-down did not cancel the server wait")
	}

	assert.Equal(t, []league.ConnectionState{league.WaitingForServer, league.Disconnected}, hs.connectionStates())
}

func TestSupervisor_FactoryErrorRetries(t *testing.T) {
	logger := zaptest.NewLogger(t)
	h := hub.New(logger)
	defer h.Close()

	var mu sync.Mutex
	attempts := 0
	sup := New(tracker.New(h, nil, logger), h, func(procwatch.Process) (Client, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return nil, errors.New("no credentials")
	}, Options{RetryInterval: time.Millisecond}, logger)

	sup.ProcessChanged(context.Background(), running)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts >= 3
	}, 5*time.Second, time.Millisecond)
	sup.Stop()
	assert.Equal(t, league.Disconnected, sup.State())
}

func TestStateMachine_Transitions(t *testing.T) {
	sm := NewStateMachine()
	assert.Equal(t, league.Disconnected, sm.Current())

	var seen []league.ConnectionState
	sm.OnTransition(func(_, to league.ConnectionState) { seen = append(seen, to) })

	err := sm.TransitionTo(league.Connected)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, league.Disconnected, invalid.From)

	require.NoError(t, sm.TransitionTo(league.WaitingForServer))
	require.Error(t, sm.TransitionTo(league.WaitingForServer))
	require.NoError(t, sm.TransitionTo(league.Connected))
	require.NoError(t, sm.TransitionTo(league.WaitingForServer))
	require.NoError(t, sm.TransitionTo(league.Connected))
	require.NoError(t, sm.TransitionTo(league.Disconnected))

	assert.Equal(t, []league.ConnectionState{
		league.WaitingForServer, league.Connected, league.WaitingForServer, league.Connected, league.Disconnected,
	}, seen)
}

func TestStateMachine_WaitForState(t *testing.T) {
	sm := NewStateMachine()
	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = sm.TransitionTo(league.WaitingForServer)
	}()
	require.NoError(t, sm.WaitForState(context.Background(), league.WaitingForServer))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, sm.WaitForState(ctx, league.Connected), context.DeadlineExceeded)
}

func TestSupervisor_RetriesLoginWhenSummonerFetchFails(t *testing.T) {
	client := newFakeClient()
	client.getErrs[lcu.URICurrentSummoner] = []error{errors.New("read: connection reset by peer")}
	hs := newHarness(t, client)

	hs.sup.ProcessChanged(context.Background(), running)
	nextStream(t, client)

	require.Eventually(t, func() bool {
		return hs.tracker.Summoner().Status == league.StatusLoggedInAuthorized
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, "Faker", hs.tracker.Summoner().DisplayName)

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Empty(t, client.getErrs[lcu.URICurrentSummoner])
	assert.GreaterOrEqual(t, client.authCalls, 2)
}
