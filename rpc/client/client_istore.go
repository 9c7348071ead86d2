package client

import (
	"context"
	"github.com/ValentinKolb/kvs/lib/session"
	"github.com/ValentinKolb/kvs/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"time"
)

var Logger = logger.GetLogger("rpc")

// NewSessionStore creates a store.IStore on top of a connected session.
// Every call issues one command and blocks until its future resolves or the timeout elapses (0 = wait forever).
// The session stays owned by the caller, the store never connects or closes it.
func NewSessionStore(s *session.Session, timeout time.Duration) store.IStore {
	return &sessionStore{
		session: s,
		timeout: timeout,
	}
}

type sessionStore struct {
	session *session.Session
	timeout time.Duration
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *sessionStore) Set(key string, value []byte) error {
	_, err := i.await(i.session.Put(key, string(value)))
	return err
}

func (i *sessionStore) Delete(key string) error {
	_, err := i.await(i.session.Delete(key))
	return err
}

func (i *sessionStore) Get(key string) ([]byte, bool, error) {
	res, err := i.await(i.session.Get(key))
	if err != nil || !res.Found {
		return nil, false, err
	}
	return []byte(res.Value), true, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// await waits for the outcome of a freshly issued command
func (i *sessionStore) await(f *session.Future, err error) (session.Result, error) {
	if err != nil {
		return session.Result{}, err
	}

	ctx := context.Background()
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	res, err := f.Wait(ctx)
	if err != nil {
		Logger.Debugf("command of session %s failed: %v", i.session.ID(), err)
	}
	return res, err
}
