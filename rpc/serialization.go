package rpc

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// CodecHandle is the wire encoding shared by clients and servers. Messages
// carry concrete types only, so no extensions are registered.
func CodecHandle() codec.Handle {
	h := codec.BincHandle{}
	h.StructToArray = true
	h.OptimumSize = true
	return &h
}

// SerializedSizeOf returns the number of bytes e takes on the wire.
func SerializedSizeOf(e interface{}) (int, error) {
	var buf bytes.Buffer
	if err := codec.NewEncoder(&buf, CodecHandle()).Encode(e); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}
