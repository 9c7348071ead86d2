package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/kvs/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format:
//
//	[1 byte MsgType][1 byte flags][optional fields in flag order]
//
// Strings and byte slices are written as a 4 byte big endian length followed by the data.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey   byte = 1 << 0
	hasValue byte = 1 << 1
	hasOk    byte = 1 << 2
	hasErr   byte = 1 << 3
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, 2, b.sizeBytes(msg))
	result[0] = byte(msg.MsgType)

	var flags byte
	if msg.Key != "" {
		flags |= hasKey
		result = appendChunk(result, []byte(msg.Key))
	}
	// a non-nil empty value is kept distinct from a missing value
	if msg.Value != nil {
		flags |= hasValue
		result = appendChunk(result, msg.Value)
	}
	if msg.Ok {
		flags |= hasOk
		result = append(result, 1)
	}
	if msg.Err != "" {
		flags |= hasErr
		result = appendChunk(result, []byte(msg.Err))
	}

	result[1] = flags
	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	msg.MsgType = common.MessageType(data[0])
	flags := data[1]
	pos := 2

	msg.Key = ""
	if flags&hasKey != 0 {
		chunk, next, err := readChunk(data, pos, "key")
		if err != nil {
			return err
		}
		msg.Key, pos = string(chunk), next
	}

	msg.Value = nil
	if flags&hasValue != 0 {
		chunk, next, err := readChunk(data, pos, "value")
		if err != nil {
			return err
		}
		msg.Value = make([]byte, len(chunk))
		copy(msg.Value, chunk)
		pos = next
	}

	msg.Ok = false
	if flags&hasOk != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for Ok flag")
		}
		msg.Ok = data[pos] != 0
		pos++
	}

	msg.Err = ""
	if flags&hasErr != 0 {
		chunk, next, err := readChunk(data, pos, "error")
		if err != nil {
			return err
		}
		msg.Err, pos = string(chunk), next
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := 2
	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Ok {
		size += 1
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	return size
}

// appendChunk appends a length prefixed chunk to buf
func appendChunk(buf []byte, chunk []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(chunk)))
	return append(buf, chunk...)
}

// readChunk reads a length prefixed chunk starting at pos and returns it together with the position after it.
// The returned slice aliases data.
func readChunk(data []byte, pos int, field string) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if pos+n > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s data", field)
	}
	return data[pos : pos+n], pos + n, nil
}
