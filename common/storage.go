package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// GetList returns the serialized list of byte strings stored under the key.
// Missing key is treated as an empty list.
func GetList(ctx storage.Context, key any) [][]byte {
	data := storage.Get(ctx, key)
	if data != nil {
		return std.Deserialize(data.([]byte)).([][]byte)
	}

	return [][]byte{}
}

// SetSerialized serializes data and puts it into contract storage.
func SetSerialized(ctx storage.Context, key any, value any) {
	data := std.Serialize(value)
	storage.Put(ctx, key, data)
}

// GetHash160 returns script hash stored under the key. It panics with
// the given message if there is no valid hash.
func GetHash160(ctx storage.Context, key any, msg string) interop.Hash160 {
	data := storage.Get(ctx, key)
	if data == nil {
		panic(msg)
	}

	h := data.(interop.Hash160)
	if len(h) != interop.Hash160Len {
		panic(msg)
	}

	return h
}
