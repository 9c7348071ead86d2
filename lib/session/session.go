package session

import (
	"context"
	"sync"
	"time"

	"github.com/ValentinKolb/kvs/rpc/common"
	"github.com/ValentinKolb/kvs/rpc/serializer"
	"github.com/ValentinKolb/kvs/rpc/transport"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
	gometrics "github.com/rcrowley/go-metrics"
)

var Logger = logger.GetLogger("session")

// Session owns one logical connection to a store and the commands issued on it.
// All methods are safe for concurrent use.
type Session struct {
	id        string
	transport transport.IRPCClientTransport
	codec     serializer.IRPCSerializer
	config    common.ClientConfig

	mu        sync.Mutex // guards everything below
	conn      Connection
	observers []Observer
	pending   *PendingTable
	queue     []*Command // issued but not yet sent, only used without pipelining
	inFlight  uint64     // id of the command on the wire without pipelining, 0 = none
	nextID    uint64
	closed    bool

	stopCh   chan struct{}
	registry gometrics.Registry
	latency  gometrics.Timer
}

// New creates a new disconnected session. The reply loop is started right away,
// it runs until Close is called.
func New(t transport.IRPCClientTransport, codec serializer.IRPCSerializer, config common.ClientConfig) *Session {
	registry, latency := newRegistry()

	s := &Session{
		id:        uuid.NewString(),
		transport: t,
		codec:     codec,
		config:    config,
		conn: Connection{
			State:     StateDisconnected,
			CreatedAt: time.Now(),
		},
		pending:  NewPendingTable(),
		stopCh:   make(chan struct{}),
		registry: registry,
		latency:  latency,
	}

	go s.replyLoop()

	Logger.Debugf("[%s] created session for %s", s.id, config.Transport.Endpoint)
	return s
}

// --------------------------------------------------------------------------
// Connection State
// --------------------------------------------------------------------------

// Connect opens the connection to the store.
// It is a no-op while Ready and fails with ErrConnectInProgress while another Connect runs.
// From Disconnected or Failed the session moves to Connecting and, once the transport
// acknowledged the connection, to Ready. On error the session is Failed and the error is returned.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	switch s.conn.State {
	case StateReady:
		s.mu.Unlock()
		return nil
	case StateConnecting:
		s.mu.Unlock()
		return ErrConnectInProgress
	}
	change := s.transitionLocked(StateConnecting, nil)
	s.mu.Unlock()
	change.notify()

	err := s.transport.Connect(ctx, s.config)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		// Close ran while dialing and may have missed the new connection
		_ = s.transport.Close()
		return ErrSessionClosed
	}
	if err != nil {
		terr := newTransportError("connect", err, "failed to connect to "+s.config.Transport.Endpoint)
		change = s.transitionLocked(StateFailed, terr)
		s.mu.Unlock()
		change.notify()
		return terr
	}
	s.inFlight = 0
	change = s.transitionLocked(StateReady, nil)
	s.mu.Unlock()
	change.notify()
	return nil
}

// OnStateChange registers an observer. Observers are called in registration order
// on the goroutine that caused the transition, after the session lock was released.
func (s *Session) OnStateChange(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// State returns the current connection state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.State
}

// Connection returns a snapshot of the connection
func (s *Session) Connection() Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// ID returns the unique id of the session
func (s *Session) ID() string {
	return s.id
}

// Pending returns the number of commands waiting for a reply
func (s *Session) Pending() int {
	return s.pending.Len()
}

// Latency returns the timer tracking the time from issuing a command until its resolution
func (s *Session) Latency() gometrics.Timer {
	return s.latency
}

// Registry returns the metrics registry of the session
func (s *Session) Registry() gometrics.Registry {
	return s.registry
}

// Close stops the reply loop and closes the transport.
// Outstanding commands fail with ErrSessionClosed. Calling Close more than once is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var change *stateChange
	if s.conn.State != StateDisconnected {
		change = s.transitionLocked(StateDisconnected, nil)
	}
	cmds := s.pending.Drain()
	s.queue = nil
	s.inFlight = 0
	s.mu.Unlock()

	close(s.stopCh)
	err := s.transport.Close()
	change.notify()

	for _, cmd := range cmds {
		s.complete(cmd, Result{}, ErrSessionClosed)
	}
	return err
}

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

// Put stores value under key
func (s *Session) Put(key, value string) (*Future, error) {
	return s.issue(CmdPut, key, value)
}

// Get loads the value of key. A missing key resolves with Found == false, not with an error.
func (s *Session) Get(key string) (*Future, error) {
	return s.issue(CmdGet, key, "")
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Session) Delete(key string) (*Future, error) {
	return s.issue(CmdDelete, key, "")
}

// issue creates a command and sends or queues it. Nothing is created if the session is not Ready.
func (s *Session) issue(kind CommandKind, key, value string) (*Future, error) {
	var req *common.Message
	switch kind {
	case CmdPut:
		req = common.NewSetRequest(key, []byte(value))
	case CmdGet:
		req = common.NewGetRequest(key)
	case CmdDelete:
		req = common.NewDeleteRequest(key)
	}

	s.mu.Lock()
	if s.closed || s.conn.State != StateReady {
		s.mu.Unlock()
		return nil, ErrNotConnected
	}

	payload, err := s.codec.Serialize(*req)
	if err != nil {
		s.mu.Unlock()
		return nil, errors.Wrapf(err, "failed to encode %s request", kind)
	}

	s.nextID++
	cmd := &Command{
		ID:        s.nextID,
		Kind:      kind,
		Key:       key,
		Value:     value,
		CreatedAt: time.Now(),
		future:    newFuture(),
		payload:   payload,
	}
	s.pending.Add(cmd)

	sendNow := true
	if !s.pipelining() {
		if s.inFlight == 0 && len(s.queue) == 0 {
			s.inFlight = cmd.ID
		} else {
			s.queue = append(s.queue, cmd)
			sendNow = false
		}
	}
	s.mu.Unlock()

	commandsIssued.Inc()
	Logger.Debugf("[%s] issued %s %q with id %d", s.id, kind, key, cmd.ID)

	if sendNow {
		s.send(cmd)
	}
	return cmd.future, nil
}

// --------------------------------------------------------------------------
// Result Dispatcher
// --------------------------------------------------------------------------

// Resolve delivers the raw reply for the command with the given id.
// Unknown ids, and ids of commands that were not sent yet, are logged as anomalies
// and leave all pending commands untouched.
func (s *Session) Resolve(id uint64, raw []byte) {
	s.mu.Lock()
	// without pipelining only the command on the wire can be answered
	var cmd *Command
	ok := s.pipelining() || (id != 0 && id == s.inFlight)
	if ok {
		cmd, ok = s.pending.Take(id)
	}
	if !ok {
		s.mu.Unlock()
		unexpectedReplies.Inc()
		Logger.Warningf("[%s] %v", s.id, &UnexpectedReplyError{ID: id})
		return
	}
	var next *Command
	if s.inFlight == id {
		s.inFlight = 0
		next = s.dequeueLocked()
	}
	s.mu.Unlock()

	res, err := s.decode(cmd, raw)
	s.complete(cmd, res, err)

	if next != nil {
		s.send(next)
	}
}

// replyLoop consumes the reply events of the transport until the session is closed
func (s *Session) replyLoop() {
	replies := s.transport.Replies()
	for {
		select {
		case <-s.stopCh:
			return
		case reply := <-replies:
			if reply.Err != nil {
				s.fail("receive", reply.Err)
				continue
			}
			s.Resolve(reply.RequestID, reply.Data)
		}
	}
}

// decode turns the raw reply into the outcome of cmd
func (s *Session) decode(cmd *Command, raw []byte) (Result, error) {
	var msg common.Message
	if err := s.codec.Deserialize(raw, &msg); err != nil {
		return Result{}, newTransportError(cmd.Kind.String(), err, "failed to decode reply")
	}

	if msg.IsError() {
		reason := msg.Err
		if reason == "" {
			reason = "store returned an error"
		}
		return Result{}, &TransportError{Op: cmd.Kind.String(), Err: errors.New(reason)}
	}

	want := map[CommandKind]common.MessageType{
		CmdPut:    common.MsgTKVSet,
		CmdGet:    common.MsgTKVGet,
		CmdDelete: common.MsgTKVDelete,
	}[cmd.Kind]
	if msg.MsgType != want {
		return Result{}, &TransportError{
			Op:  cmd.Kind.String(),
			Err: errors.Errorf("unexpected reply type %s, expected %s", msg.MsgType, want),
		}
	}

	if cmd.Kind == CmdGet {
		return Result{Value: string(msg.Value), Found: msg.Ok}, nil
	}
	return Result{}, nil
}

// complete resolves the future of cmd and records the outcome
func (s *Session) complete(cmd *Command, res Result, err error) {
	if !cmd.future.resolve(res, err) {
		return
	}
	s.latency.UpdateSince(cmd.CreatedAt)
	if err != nil {
		commandsFailed.Inc()
		Logger.Debugf("[%s] %s %q (id %d) failed: %v", s.id, cmd.Kind, cmd.Key, cmd.ID, err)
		return
	}
	commandsResolved.Inc()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// pipelining reports whether more than one command may be in flight
func (s *Session) pipelining() bool {
	return s.config.Pipelining && s.transport.Pipelining()
}

// send writes cmd to the transport, a write error fails the connection
func (s *Session) send(cmd *Command) {
	if err := s.transport.Send(s.config.ShardID, cmd.ID, cmd.payload); err != nil {
		s.fail("send", err)
	}
}

// dequeueLocked pops the next queued command and marks it as in flight
func (s *Session) dequeueLocked() *Command {
	if len(s.queue) == 0 {
		return nil
	}
	next := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	s.inFlight = next.ID
	return next
}

// fail marks a Ready connection as Failed and fails all outstanding commands.
// Failures reported in any other state belong to a connection that is already gone.
func (s *Session) fail(op string, cause error) {
	s.mu.Lock()
	if s.conn.State != StateReady {
		s.mu.Unlock()
		Logger.Debugf("[%s] ignoring %s failure in state %s: %v", s.id, op, s.conn.State, cause)
		return
	}
	terr := newTransportError(op, cause, "connection failed")
	change := s.transitionLocked(StateFailed, terr)
	cmds := s.pending.Drain()
	s.queue = nil
	s.inFlight = 0
	s.mu.Unlock()

	Logger.Errorf("[%s] %v, failing %d pending commands", s.id, terr, len(cmds))
	change.notify()

	for _, cmd := range cmds {
		s.complete(cmd, Result{}, terr)
	}
}

// transitionLocked moves the connection to a new state. The observers are not called yet,
// the returned change must be notified after s.mu was released.
func (s *Session) transitionLocked(to State, err error) *stateChange {
	from := s.conn.State
	s.conn.State = to
	if err != nil {
		s.conn.LastErr = err
	} else if to == StateReady {
		s.conn.LastErr = nil
	}

	transitionCounter(to).Inc()
	if err != nil {
		Logger.Warningf("[%s] state %s -> %s: %v", s.id, from, to, err)
	} else {
		Logger.Infof("[%s] state %s -> %s", s.id, from, to)
	}

	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	return &stateChange{from: from, to: to, err: err, observers: observers}
}
