// Package cdragon is a read-through cache over CommunityDragon game data.
package cdragon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"masterybox/internal/league"
)

const (
	DefaultBaseURL = "https://raw.communitydragon.org"
	DefaultVersion = "latest"

	userAgent = "masterybox"

	queuesPath  = "plugins/rcp-be-lol-game-data/global/default/v1/queues.json"
	rolesPath   = "plugins/rcp-fe-lol-champion-statistics/global/default/rcp-fe-lol-champion-statistics.js"
	rolesMarker = "a.exports="

	queuesDataset = "queues"
	rolesDataset  = "championRoles"
)

// ErrUnknownQueue is returned by Describe for ids missing from the
// queue table.
var ErrUnknownQueue = errors.New("cdragon: unknown queue")

type Queue struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	ShortName           string `json:"shortName"`
	Description         string `json:"description"`
	DetailedDescription string `json:"detailedDescription"`
}

// roleRates maps champion id to play rate for one position.
type roleRates map[int]float64

type Options struct {
	BaseURL string
	Version string
	Timeout time.Duration
}

// Cache loads each dataset at most once: from memory, then the snapshot
// store, then CommunityDragon. Fetched datasets are written to the store.
type Cache struct {
	baseURL string
	version string
	client  *http.Client
	store   Store
	logger  *zap.Logger

	mu     sync.Mutex
	queues map[int]Queue
	roles  map[league.Role]roleRates
}

func New(opts Options, store Store, logger *zap.Logger) *Cache {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Cache{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		version: opts.Version,
		client:  &http.Client{Timeout: opts.Timeout},
		store:   store,
		logger:  logger.Named("cdragon"),
	}
}

// Describe returns the queue metadata for id.
func (c *Cache) Describe(ctx context.Context, id int) (Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.queues == nil {
		queues, err := c.loadQueues(ctx)
		if err != nil {
			return Queue{}, err
		}
		c.queues = queues
	}

	q, ok := c.queues[id]
	if !ok {
		return Queue{}, fmt.Errorf("%w: %d", ErrUnknownQueue, id)
	}
	return q, nil
}

// ChampionsByRole returns the ids of champions played in role, ascending.
// RoleAny yields every champion with a known position.
func (c *Cache) ChampionsByRole(ctx context.Context, role league.Role) ([]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.roles == nil {
		roles, err := c.loadRoles(ctx)
		if err != nil {
			return nil, err
		}
		c.roles = roles
	}

	seen := make(map[int]struct{})
	for r, rates := range c.roles {
		if role != league.RoleAny && r != role {
			continue
		}
		for id := range rates {
			seen[id] = struct{}{}
		}
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (c *Cache) loadQueues(ctx context.Context) (map[int]Queue, error) {
	if data, ok := c.fromStore(ctx, queuesDataset); ok {
		var queues map[int]Queue
		if err := json.Unmarshal(data, &queues); err == nil {
			return queues, nil
		}
		c.logger.Warn("Discarding unreadable snapshot", zap.String("dataset", queuesDataset))
	}

	body, err := c.fetch(ctx, queuesPath)
	if err != nil {
		return nil, err
	}
	queues, err := parseQueues(body)
	if err != nil {
		return nil, err
	}

	c.toStore(ctx, queuesDataset, queues)
	return queues, nil
}

func (c *Cache) loadRoles(ctx context.Context) (map[league.Role]roleRates, error) {
	if data, ok := c.fromStore(ctx, rolesDataset); ok {
		var stored map[string]roleRates
		if err := json.Unmarshal(data, &stored); err == nil {
			return rolesFromNames(stored), nil
		}
		c.logger.Warn("Discarding unreadable snapshot", zap.String("dataset", rolesDataset))
	}

	body, err := c.fetch(ctx, rolesPath)
	if err != nil {
		return nil, err
	}
	roles, err := parseRoles(body)
	if err != nil {
		return nil, err
	}

	stored := make(map[string]roleRates, len(roles))
	for r, rates := range roles {
		stored[r.String()] = rates
	}
	c.toStore(ctx, rolesDataset, stored)
	return roles, nil
}

func (c *Cache) fromStore(ctx context.Context, name string) ([]byte, bool) {
	if c.store == nil {
		return nil, false
	}
	data, ok, err := c.store.Load(ctx, name)
	if err != nil {
		c.logger.Warn("Snapshot load failed", zap.String("dataset", name), zap.Error(err))
		return nil, false
	}
	return data, ok
}

func (c *Cache) toStore(ctx context.Context, name string, v any) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err == nil {
		err = c.store.Save(ctx, name, data)
	}
	if err != nil {
		c.logger.Warn("Snapshot save failed", zap.String("dataset", name), zap.Error(err))
		return
	}
	c.logger.Info("Cached dataset", zap.String("dataset", name), zap.String("version", c.version))
}

func (c *Cache) fetch(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + "/" + c.version + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	c.logger.Debug("Fetched dataset", zap.String("url", url), zap.Int("bytes", len(body)))
	return body, nil
}

// parseQueues accepts either an object keyed by queue id or an array of
// queues carrying their own id.
func parseQueues(body []byte) (map[int]Queue, error) {
	var byKey map[string]Queue
	if err := json.Unmarshal(body, &byKey); err == nil {
		out := make(map[int]Queue, len(byKey))
		for k, q := range byKey {
			id, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("failed to parse queue id %q: %w", k, err)
			}
			q.ID = id
			out[id] = q
		}
		return out, nil
	}

	var list []Queue
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse queues: %w", err)
	}
	out := make(map[int]Queue, len(list))
	for _, q := range list {
		out[q.ID] = q
	}
	return out, nil
}

func parseRoles(body []byte) (map[league.Role]roleRates, error) {
	obj, err := extractJSONObject(body, rolesMarker)
	if err != nil {
		return nil, err
	}

	var raw map[string]map[string]float64
	if err := json.Unmarshal(obj, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse role mapping: %w", err)
	}

	byName := make(map[string]roleRates, len(raw))
	for name, rates := range raw {
		converted := make(roleRates, len(rates))
		for k, v := range rates {
			id, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("failed to parse champion id %q: %w", k, err)
			}
			converted[id] = v
		}
		byName[strings.ToUpper(name)] = converted
	}

	support := byName["SUPPORT"]
	if len(support) == 0 {
		support = byName["UTILITY"]
	}
	return map[league.Role]roleRates{
		league.RoleTop:     byName["TOP"],
		league.RoleJungle:  byName["JUNGLE"],
		league.RoleMiddle:  byName["MIDDLE"],
		league.RoleBottom:  byName["BOTTOM"],
		league.RoleSupport: support,
	}, nil
}

var positions = []league.Role{league.RoleTop, league.RoleJungle, league.RoleMiddle, league.RoleBottom, league.RoleSupport}

func rolesFromNames(stored map[string]roleRates) map[league.Role]roleRates {
	out := make(map[league.Role]roleRates, len(positions))
	for _, r := range positions {
		if rates, ok := stored[r.String()]; ok {
			out[r] = rates
		}
	}
	return out
}
