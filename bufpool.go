package pest

import (
	"bytes"
	"sync"
)

const (
	// Pool limits to prevent memory bloat
	poolInitSize = 4096
	poolMaxSize  = 1 << 20
)

// bufferPool reuses encode buffers for the streaming paths. Encode never uses
// it since its result escapes to the caller.
var bufferPool = sync.Pool{
	New: func() any {
		return newBuffer(poolInitSize)
	},
}

// getBuffer returns a zeroed buffer. Encoders rely on unwritten bytes being zero.
func getBuffer() *buffer {
	w := bufferPool.Get().(*buffer)
	w.reset(w.b)
	return w
}

func putBuffer(w *buffer) {
	if w == nil || len(w.b) > poolMaxSize {
		return // reject oversized
	}
	bufferPool.Put(w)
}

// bytesBufPool backs ReadFrom, which has to slurp its input before decoding.
var bytesBufPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, poolInitSize))
	},
}

func getBytesBuffer() *bytes.Buffer {
	buf := bytesBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBytesBuffer(buf *bytes.Buffer) {
	if buf.Cap() > poolMaxSize {
		return
	}
	bytesBufPool.Put(buf)
}
