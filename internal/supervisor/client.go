package supervisor

import (
	"context"

	"go.uber.org/zap"

	"masterybox/internal/lcu"
	"masterybox/internal/procwatch"
	"masterybox/internal/tracker"
)

// Stream is an open event subscription.
type Stream interface {
	Events() <-chan lcu.Event
	Done() <-chan struct{}
	Err() error
	Close() error
}

// Client is a control API connection for one client process.
type Client interface {
	tracker.API
	Ping(ctx context.Context) error
	OpenEventStream(ctx context.Context) (Stream, error)
}

// ClientFactory builds a client from the process that was detected.
type ClientFactory func(procwatch.Process) (Client, error)

// LCUClientFactory reads the credentials from the process command line.
func LCUClientFactory(logger *zap.Logger) ClientFactory {
	return func(p procwatch.Process) (Client, error) {
		creds, err := lcu.CredentialsFromCommandLine(p.CommandLine)
		if err != nil {
			return nil, err
		}
		return lcuClient{lcu.NewClient(creds, logger)}, nil
	}
}

type lcuClient struct {
	*lcu.Client
}

func (c lcuClient) OpenEventStream(ctx context.Context) (Stream, error) {
	s, err := c.Client.OpenEventStream(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}
