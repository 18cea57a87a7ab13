package tracker

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"go.uber.org/zap/zaptest"

	"masterybox/internal/cdragon"
	"masterybox/internal/hub"
	"masterybox/internal/lcu"
	"masterybox/internal/league"
)

type fakeAPI struct {
	mu         sync.Mutex
	responses  map[string]string
	errs       map[string]error
	calls      map[string]int
	connected  bool
	authorized bool
	connErr    error
	authErr    error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		responses: map[string]string{},
		errs:      map[string]error{},
		calls:     map[string]int{},
	}
}

func (f *fakeAPI) set(endpoint, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[endpoint] = body
	delete(f.errs, endpoint)
}

func (f *fakeAPI) fail(endpoint string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[endpoint] = err
}

func (f *fakeAPI) callCount(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func (f *fakeAPI) GetJSON(_ context.Context, endpoint string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[endpoint]++
	if err := f.errs[endpoint]; err != nil {
		return err
	}
	body, ok := f.responses[endpoint]
	if !ok {
		return &lcu.StatusError{Endpoint: endpoint, StatusCode: http.StatusNotFound}
	}
	return json.Unmarshal([]byte(body), out)
}

func (f *fakeAPI) IsConnected(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected, f.connErr
}

func (f *fakeAPI) IsAuthorized(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorized, f.authErr
}

type fakeMeta struct {
	queues map[int]string
	roles  map[league.Role][]int
	err    error
}

func (m *fakeMeta) Describe(_ context.Context, id int) (cdragon.Queue, error) {
	if m.err != nil {
		return cdragon.Queue{}, m.err
	}
	desc, ok := m.queues[id]
	if !ok {
		return cdragon.Queue{}, cdragon.ErrUnknownQueue
	}
	return cdragon.Queue{ID: id, Description: desc}, nil
}

func (m *fakeMeta) ChampionsByRole(_ context.Context, role league.Role) ([]int, error) {
	return m.roles[role], nil
}

// recorder captures every hub notification. Read it after hub.Flush.
type recorder struct {
	mu          sync.Mutex
	summoners   []league.SummonerInfo
	phases      []league.GameflowPhase
	modes       []league.GameMode
	champSelect []league.ChampionSelectInfo
	chests      []league.MasteryChestInfo
	mastery     []map[int]league.ChampionInfo
}

func record(h *hub.Hub) *recorder {
	r := &recorder{}
	h.OnSummonerChange(func(v league.SummonerInfo) { r.lock(func() { r.summoners = append(r.summoners, v) }) })
	h.OnPhaseChange(func(v league.GameflowPhase) { r.lock(func() { r.phases = append(r.phases, v) }) })
	h.OnGameModeChange(func(v league.GameMode) { r.lock(func() { r.modes = append(r.modes, v) }) })
	h.OnChampionSelectChange(func(v league.ChampionSelectInfo) {
		r.lock(func() { r.champSelect = append(r.champSelect, v) })
	})
	h.OnMasteryChestChange(func(v league.MasteryChestInfo) { r.lock(func() { r.chests = append(r.chests, v) }) })
	h.OnChampionMasteryChange(func(v map[int]league.ChampionInfo) { r.lock(func() { r.mastery = append(r.mastery, v) }) })
	return r
}

func (r *recorder) lock(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

func (r *recorder) reset() {
	r.lock(func() {
		r.summoners, r.phases, r.modes = nil, nil, nil
		r.champSelect, r.chests, r.mastery = nil, nil, nil
	})
}

type fixture struct {
	t       *testing.T
	hub     *hub.Hub
	api     *fakeAPI
	meta    *fakeMeta
	tracker *Tracker
	rec     *recorder
}

const (
	summonerJSON = `{"accountId":7,"summonerId":12345,"displayName":"Faker","internalName":"faker","summonerLevel":500}`

	championsJSON = `[
		{"id":-1,"name":"None"},
		{"id":1,"name":"Annie","ownership":{"owned":true}},
		{"id":2,"name":"Olaf","ownership":{"owned":true}},
		{"id":3,"name":"Galio","freeToPlay":true,"ownership":{"owned":false}}
	]`

	masteryJSON = `[
		{"championId":1,"championPoints":21000,"championLevel":5,"chestGranted":true},
		{"championId":2,"championPoints":48000,"championLevel":6,"chestGranted":false},
		{"championId":3,"championPoints":300,"championLevel":1}
	]`
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := hub.New(zaptest.NewLogger(t))
	t.Cleanup(h.Close)

	meta := &fakeMeta{queues: map[int]string{400: "Draft Pick", 430: "Blind Pick", 830: "Co-op vs. AI"}}
	f := &fixture{
		t:       t,
		hub:     h,
		api:     newFakeAPI(),
		meta:    meta,
		tracker: New(h, meta, zaptest.NewLogger(t)),
	}
	f.rec = record(h)
	f.tracker.Attach(f.api)
	return f
}

// loggedIn attaches a client whose login succeeds with the default
// champion inventory, then clears recorded notifications.
func (f *fixture) loggedIn() *fixture {
	f.t.Helper()
	f.api.connected = true
	f.api.authorized = true
	f.api.set(lcu.URICurrentSummoner, summonerJSON)
	f.api.set(lcu.ChampionsEndpoint(12345), championsJSON)
	f.api.set(lcu.ChampionMasteryEndpoint(12345), masteryJSON)
	f.api.set(lcu.URIChestEligibility, `{"nextChestRechargeTime":0,"earnableChests":1}`)
	f.api.set(lcu.URIGameflowPhase, `"Lobby"`)

	ok, err := f.tracker.Login(context.Background())
	if err != nil || !ok {
		f.t.Fatalf("Login() = %v, %v; want true, nil", ok, err)
	}
	f.hub.Flush()
	f.rec.reset()
	return f
}

func (f *fixture) event(uri, eventType, data string) {
	f.tracker.HandleEvent(context.Background(), lcu.Event{URI: uri, EventType: eventType, Data: json.RawMessage(data)})
	f.hub.Flush()
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
