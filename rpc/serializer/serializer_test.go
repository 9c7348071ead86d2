package serializer

import (
	"bytes"
	"github.com/ValentinKolb/kvs/rpc/common"
	"reflect"
	"testing"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		{MsgType: common.MsgTSuccess},

		// Set request
		{
			MsgType: common.MsgTKVSet,
			Key:     "Holberton",
			Value:   []byte("100"),
		},

		// Get response
		{
			MsgType: common.MsgTKVGet,
			Key:     "Holberton",
			Value:   []byte("100"),
			Ok:      true,
		},

		// Get response for a missing key
		{
			MsgType: common.MsgTKVGet,
		},

		// Delete request
		{
			MsgType: common.MsgTKVDelete,
			Key:     "Holberton",
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestValueIdentity checks that arbitrary string values survive a round trip byte for byte
func TestValueIdentity(t *testing.T) {
	values := []string{
		"100",
		"with spaces and\nnewlines\r\n",
		"unicode: 日本語 ✓ ümlaut",
		string([]byte{0x00, 0xff, 0x10, 0x80}),
		string(bytes.Repeat([]byte("x"), 64*1024)),
	}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for _, v := range values {
				msg := common.NewSetRequest("key", []byte(v))
				data, err := serializer.Serialize(*msg)
				if err != nil {
					t.Fatalf("Failed to serialize: %v", err)
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Fatalf("Failed to deserialize: %v", err)
				}

				if string(result.Value) != v {
					t.Errorf("Value mismatch after round trip (len %d vs %d)", len(v), len(result.Value))
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for msgType := common.MsgTSuccess; msgType <= common.MsgTKVGet; msgType++ {
				msg := common.Message{MsgType: msgType}

				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestBinaryEmptyValue checks that the binary format keeps an empty value apart from a missing one
func TestBinaryEmptyValue(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name    string
		msg     common.Message
		wantNil bool
	}{
		{name: "nil value", msg: common.Message{MsgType: common.MsgTKVGet, Ok: true}, wantNil: true},
		{name: "empty value", msg: common.Message{MsgType: common.MsgTKVGet, Ok: true, Value: []byte{}}, wantNil: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if (result.Value == nil) != tc.wantNil {
				t.Errorf("Value nil mismatch: expected nil=%v, got %v", tc.wantNil, result.Value)
			}
			if !result.Ok {
				t.Errorf("Ok flag lost")
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1},
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0},
			expectError: false,
		},
		{
			name:        "Invalid length for key",
			data:        []byte{3, hasKey, 0, 0, 0, 5, 'a', 'b', 'c'},
			expectError: true,
		},
		{
			name:        "Invalid length for value",
			data:        []byte{5, hasValue, 0, 0, 0, 10},
			expectError: true,
		},
		{
			name:        "Missing ok byte",
			data:        []byte{5, hasOk},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

func TestFromName(t *testing.T) {
	for _, name := range []string{"json", "gob", "binary"} {
		if _, err := FromName(name); err != nil {
			t.Errorf("FromName(%q) failed: %v", name, err)
		}
	}
	if _, err := FromName("xml"); err == nil {
		t.Errorf("expected an error for an unknown serializer")
	}
}
