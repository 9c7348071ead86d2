package server

import (
	"fmt"
	"github.com/ValentinKolb/kvs/lib/store"
	"github.com/ValentinKolb/kvs/rpc/common"
)

// IRPCServerAdapter turns a decoded request into calls on a store.
// Failures are reported inside the returned message, never as Go errors,
// so every request gets exactly one reply.
type IRPCServerAdapter interface {
	Handle(req *common.Message, store store.IStore) (resp *common.Message)
}

// NewIStoreServerAdapter creates the adapter answering set, get and delete requests
func NewIStoreServerAdapter() IRPCServerAdapter {
	return iStoreAdapter{}
}

type iStoreAdapter struct{}

func (iStoreAdapter) Handle(req *common.Message, store store.IStore) *common.Message {
	if store == nil {
		return common.NewErrorResponse("no store for this shard")
	}

	switch req.MsgType {
	case common.MsgTKVSet:
		err := store.Set(req.Key, req.Value)
		return common.NewSetResponse(err)
	case common.MsgTKVDelete:
		err := store.Delete(req.Key)
		return common.NewDeleteResponse(err)
	case common.MsgTKVGet:
		val, ok, err := store.Get(req.Key)
		return common.NewGetResponse(val, ok, err)
	default:
		Logger.Warningf("rejecting request of type %s", req.MsgType)
		return common.NewErrorResponse(fmt.Sprintf("unsupported message type: %s", req.MsgType))
	}
}
