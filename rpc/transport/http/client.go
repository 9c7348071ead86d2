package http

import (
	"bytes"
	"context"
	"fmt"
	"github.com/ValentinKolb/kvs/rpc/common"
	"github.com/ValentinKolb/kvs/rpc/transport"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// requestIDHeader carries the request id of a frame over http
const requestIDHeader = "X-Request-Id"

func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{
		replies: make(chan transport.Reply, 64),
	}
}

// httpClientTransport sends every request as its own POST in a goroutine and
// publishes the response as a reply event
type httpClientTransport struct {
	mu        sync.Mutex
	serverURL *url.URL
	client    *http.Client
	ctx       context.Context // cancelled by Close and by a reconnect
	cancel    context.CancelFunc
	replies   chan transport.Reply
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(ctx context.Context, config common.ClientConfig) error {
	endpoint := config.Transport.Endpoint
	if endpoint == "" {
		return fmt.Errorf("no endpoint provided")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	serverURL, err := url.Parse(endpoint)
	if err != nil {
		return err
	}

	client := &http.Client{
		Timeout: config.Timeout(),
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	// the health probe is the acknowledgement that the store is reachable
	probe, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL.JoinPath("health").String(), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(probe)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", serverURL, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to connect to %s: %s", serverURL, resp.Status)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	t.client = client
	t.serverURL = serverURL
	t.ctx, t.cancel = context.WithCancel(context.Background())

	Logger.Infof("Connected to %s using http transport", serverURL)
	return nil
}

func (t *httpClientTransport) Send(shardId uint64, requestID uint64, req []byte) error {
	t.mu.Lock()
	client, serverURL, ctx := t.client, t.serverURL, t.ctx
	t.mu.Unlock()

	if client == nil {
		return fmt.Errorf("http transport not connected")
	}

	requestURL := serverURL.JoinPath(strconv.FormatUint(shardId, 10)).String()
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(req))
	if err != nil {
		return err
	}
	httpRequest.Header.Set(requestIDHeader, strconv.FormatUint(requestID, 10))

	go t.roundTrip(ctx, client, httpRequest, requestID)
	return nil
}

func (t *httpClientTransport) Replies() <-chan transport.Reply {
	return t.replies
}

func (t *httpClientTransport) Pipelining() bool {
	return true
}

func (t *httpClientTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if t.client != nil {
		t.client.CloseIdleConnections()
	}
	t.client = nil
	t.serverURL = nil
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// roundTrip performs one request and publishes its outcome
func (t *httpClientTransport) roundTrip(ctx context.Context, client *http.Client, req *http.Request, requestID uint64) {
	reply := transport.Reply{RequestID: requestID}

	resp, err := client.Do(req)
	if err != nil {
		reply.Err = err
	} else {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			reply.Err = fmt.Errorf("http error: %s", resp.Status)
		} else if reply.Data, err = io.ReadAll(resp.Body); err != nil {
			reply.Err = err
		}
	}

	select {
	case t.replies <- reply:
	case <-ctx.Done():
		// closed or reconnected, nobody waits for this reply anymore
	}
}
