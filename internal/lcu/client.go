package lcu

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	riotUser       = "riot"
	defaultTimeout = 10 * time.Second

	pingEndpoint         = "/riotclient/region-locale"
	loginSessionEndpoint = "/lol-login/v1/session"
	summonerEndpoint     = "/lol-summoner/v1/current-summoner"
)

// ErrNotFound is matched by StatusError values carrying a 404.
var ErrNotFound = errors.New("lcu: resource not found")

// StatusError is returned when the client answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lcu: %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Credentials locate the client's control API on loopback.
type Credentials struct {
	Port  int
	Token string
}

var (
	appPortRe   = regexp.MustCompile(`--app-port=["]?(\d+)`)
	authTokenRe = regexp.MustCompile(`--remoting-auth-token=["]?([\w-]+)`)
)

// CredentialsFromCommandLine extracts the port and auth token from the
// LeagueClientUx command line.
func CredentialsFromCommandLine(cmdline string) (Credentials, error) {
	port := appPortRe.FindStringSubmatch(cmdline)
	token := authTokenRe.FindStringSubmatch(cmdline)
	if port == nil || token == nil {
		return Credentials{}, fmt.Errorf("lcu: command line has no --app-port/--remoting-auth-token")
	}
	p, err := strconv.Atoi(port[1])
	if err != nil {
		return Credentials{}, fmt.Errorf("lcu: parse app port: %w", err)
	}
	return Credentials{Port: p, Token: token[1]}, nil
}

// CredentialsFromLockfile reads the client's lockfile, formatted as
// name:pid:port:password:protocol.
func CredentialsFromLockfile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("lcu: read lockfile: %w", err)
	}
	parts := strings.Split(strings.TrimSpace(string(data)), ":")
	if len(parts) != 5 {
		return Credentials{}, fmt.Errorf("lcu: malformed lockfile %q", path)
	}
	p, err := strconv.Atoi(parts[2])
	if err != nil {
		return Credentials{}, fmt.Errorf("lcu: parse lockfile port: %w", err)
	}
	return Credentials{Port: p, Token: parts[3]}, nil
}

// Client talks to the League client's local control API.
type Client struct {
	baseURL    string
	wsURL      string
	authHeader string
	http       *http.Client
	dialer     *websocket.Dialer
	logger     *zap.Logger
}

// NewClient creates a client for the API listening on 127.0.0.1:creds.Port.
func NewClient(creds Credentials, logger *zap.Logger) *Client {
	// The client serves a self-signed certificate on loopback.
	tlsConfig := &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	host := fmt.Sprintf("127.0.0.1:%d", creds.Port)

	return newClient("https://"+host, "wss://"+host+"/", creds.Token, tlsConfig, logger)
}

func newClient(baseURL, wsURL, token string, tlsConfig *tls.Config, logger *zap.Logger) *Client {
	auth := base64.StdEncoding.EncodeToString([]byte(riotUser + ":" + token))
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		wsURL:      wsURL,
		authHeader: "Basic " + auth,
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
		},
		dialer: &websocket.Dialer{
			TLSClientConfig:  tlsConfig,
			HandshakeTimeout: defaultTimeout,
		},
		logger: logger.Named("lcu"),
	}
}

// Get performs an authenticated GET against the control API.
func (c *Client) Get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")

	return c.http.Do(req)
}

// GetJSON fetches endpoint and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, out any) error {
	resp, err := c.Get(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// Ping issues a lightweight request to check that the server accepts
// requests. Server errors mean it is still starting up.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.Get(ctx, pingEndpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return &StatusError{Endpoint: pingEndpoint, StatusCode: resp.StatusCode}
	}
	return nil
}

// IsConnected reports whether the client has an active login session.
func (c *Client) IsConnected(ctx context.Context) (bool, error) {
	var session LoginSession
	if err := c.GetJSON(ctx, loginSessionEndpoint, &session); err != nil {
		if errors.Is(err, ErrNotFound) || IsConnRefused(err) {
			return false, nil
		}
		return false, err
	}
	return session.State != "" && session.State != LoginStateLoggingOut, nil
}

// IsAuthorized reports whether the login session succeeded and the
// current summoner is readable.
func (c *Client) IsAuthorized(ctx context.Context) (bool, error) {
	var session LoginSession
	if err := c.GetJSON(ctx, loginSessionEndpoint, &session); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if session.State != LoginStateSucceeded {
		return false, nil
	}

	resp, err := c.Get(ctx, summonerEndpoint)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK, nil
}

// IsConnRefused reports whether err means nothing is listening yet.
func IsConnRefused(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	// Windows reports WSAECONNREFUSED with this text.
	return strings.Contains(strings.ToLower(err.Error()), "connection refused") ||
		strings.Contains(err.Error(), "actively refused")
}
