package serializer

import (
	"github.com/ValentinKolb/kvs/rpc/common"
	"testing"
)

// benchmarkMessages returns the messages a session typically exchanges
func benchmarkMessages() map[string]common.Message {
	return map[string]common.Message{
		"SetResponse": {
			MsgType: common.MsgTKVSet,
		},
		"GetRequest": {
			MsgType: common.MsgTKVGet,
			Key:     "HolbertonSanFrancisco",
		},
		"SetRequest": {
			MsgType: common.MsgTKVSet,
			Key:     "HolbertonSanFrancisco",
			Value:   []byte("100"),
		},
		"GetResponseLarge": {
			MsgType: common.MsgTKVGet,
			Value:   make([]byte, 1024*16),
			Ok:      true,
		},
		"ErrorMessage": {
			MsgType: common.MsgTError,
			Err:     "handler: shard not found",
		},
	}
}

// BenchmarkRoundTrip benchmarks serialize + deserialize for all implementations
func BenchmarkRoundTrip(b *testing.B) {
	for name, factory := range testSerializers {
		for msgName, msg := range benchmarkMessages() {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					data, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
					var out common.Message
					if err := serializer.Deserialize(data, &out); err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize reports the serialized size for each message type
func BenchmarkSize(b *testing.B) {
	for name, factory := range testSerializers {
		serializer := factory()

		for msgName, msg := range benchmarkMessages() {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}
				b.ReportMetric(float64(len(data)), "bytes")
				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
