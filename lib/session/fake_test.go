package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ValentinKolb/kvs/lib/store/lstore"
	"github.com/ValentinKolb/kvs/rpc/common"
	"github.com/ValentinKolb/kvs/rpc/serializer"
	"github.com/ValentinKolb/kvs/rpc/server"
	"github.com/ValentinKolb/kvs/rpc/transport"
)

// sentFrame is one request written to the fake transport
type sentFrame struct {
	shardID   uint64
	requestID uint64
	data      []byte
}

// fakeTransport is an in-memory transport. Requests end up on the sent channel,
// replies are injected through reply / breakConnection.
type fakeTransport struct {
	mu         sync.Mutex
	connectErr error
	sendErr    error
	pipelining bool
	connects   int
	closed     bool

	sent    chan sentFrame
	replies chan transport.Reply
}

func newFakeTransport(pipelining bool) *fakeTransport {
	return &fakeTransport{
		pipelining: pipelining,
		sent:       make(chan sentFrame, 1024),
		replies:    make(chan transport.Reply, 1024),
	}
}

func (f *fakeTransport) Connect(_ context.Context, _ common.ClientConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	f.closed = false
	return f.connectErr
}

func (f *fakeTransport) Send(shardId uint64, requestID uint64, req []byte) error {
	f.mu.Lock()
	err := f.sendErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.sent <- sentFrame{shardID: shardId, requestID: requestID, data: req}
	return nil
}

func (f *fakeTransport) Replies() <-chan transport.Reply { return f.replies }

func (f *fakeTransport) Pipelining() bool { return f.pipelining }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) setConnectErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectErr = err
}

func (f *fakeTransport) setSendErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

func (f *fakeTransport) reply(requestID uint64, data []byte) {
	f.replies <- transport.Reply{RequestID: requestID, Data: data}
}

func (f *fakeTransport) breakConnection(err error) {
	f.replies <- transport.Reply{Err: err}
}

// serveFromStore answers every request sent on f from a local store until the test ends
func serveFromStore(t *testing.T, f *fakeTransport, codec serializer.IRPCSerializer) {
	t.Helper()

	st := lstore.NewLocalStore()
	adapter := server.NewIStoreServerAdapter()
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	go func() {
		for {
			select {
			case <-done:
				return
			case frame := <-f.sent:
				var req common.Message
				var resp *common.Message
				if err := codec.Deserialize(frame.data, &req); err != nil {
					resp = common.NewErrorResponse(err.Error())
				} else {
					resp = adapter.Handle(&req, st)
				}
				data, err := codec.Serialize(*resp)
				if err != nil {
					panic(err)
				}
				f.reply(frame.requestID, data)
			}
		}
	}()
}

// encode serializes msg or fails the test
func encode(t *testing.T, codec serializer.IRPCSerializer, msg *common.Message) []byte {
	t.Helper()
	data, err := codec.Serialize(*msg)
	if err != nil {
		t.Fatalf("failed to serialize %+v: %v", msg, err)
	}
	return data
}

var errBroken = errors.New("connection reset by peer")
