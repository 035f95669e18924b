package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"toolwire/internal/protocol"
)

// Sink forwards session events to an HTTP collector. Delivery is
// best-effort: a failed post is logged and the stream moves on.
type Sink struct {
	client *retryablehttp.Client
	url    string
	logger *zap.Logger
}

// NewSink constructs a sink posting to url.
func NewSink(url string, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = nil
	return &Sink{client: client, url: url, logger: logger}
}

// Run consumes events until the channel closes or ctx is cancelled.
func (s *Sink) Run(ctx context.Context, events <-chan protocol.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.post(ctx, event)
		}
	}
}

func (s *Sink) post(ctx context.Context, event protocol.Event) {
	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to encode event", zap.Error(err))
		return
	}
	request, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("failed to build sink request", zap.Error(err))
		return
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := s.client.Do(request)
	if err != nil {
		s.logger.Warn("failed to deliver event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}
	_ = response.Body.Close()
}
