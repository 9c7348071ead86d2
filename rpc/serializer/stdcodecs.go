package serializer

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"github.com/ValentinKolb/kvs/rpc/common"
	"github.com/pkg/errors"
	"sync"
)

// --------------------------------------------------------------------------
// JSON
// --------------------------------------------------------------------------

// NewJSONSerializer creates a serializer producing human readable json messages.
// Values are base64 encoded, message types are written by name.
func NewJSONSerializer() IRPCSerializer {
	return jsonCodec{}
}

type jsonCodec struct{}

func (jsonCodec) Serialize(msg common.Message) ([]byte, error) {
	b, err := json.Marshal(msg)
	return b, errors.Wrap(err, "json: encode message")
}

func (jsonCodec) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}
	return errors.Wrap(json.Unmarshal(b, msg), "json: decode message")
}

// --------------------------------------------------------------------------
// GOB
// --------------------------------------------------------------------------

// NewGOBSerializer creates a serializer using Go's gob format.
// Every message is self-describing, so the output is larger than with the binary serializer.
func NewGOBSerializer() IRPCSerializer {
	return gobCodec{}
}

type gobCodec struct{}

var gobBuffers = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

func (gobCodec) Serialize(msg common.Message) ([]byte, error) {
	buf := gobBuffers.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		gobBuffers.Put(buf)
	}()

	if err := gob.NewEncoder(buf).Encode(msg); err != nil {
		return nil, errors.Wrap(err, "gob: encode message")
	}
	// the buffer goes back to the pool
	return bytes.Clone(buf.Bytes()), nil
}

func (gobCodec) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}
	return errors.Wrap(gob.NewDecoder(bytes.NewReader(b)).Decode(msg), "gob: decode message")
}
