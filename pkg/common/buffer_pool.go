package common

import (
	"bytes"
	"sync"
)

const (
	// Typical achievement evaluation output is a few KB; 16KB avoids grow
	// operations for almost all responses.
	defaultBufferSize = 16 * 1024

	// Buffers that grew beyond this are discarded instead of pooled.
	maxPooledBufferSize = 128 * 1024
)

// jsonBufferPool recycles buffers for JSON encoding in the HTTP handlers.
var jsonBufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, defaultBufferSize))
	},
}

// GetJSONBuffer retrieves a buffer from the pool. Return it with
// PutJSONBuffer after the response has been written.
func GetJSONBuffer() *bytes.Buffer {
	return jsonBufferPool.Get().(*bytes.Buffer)
}

// PutJSONBuffer resets the buffer and returns it to the pool.
// Oversized buffers are dropped to keep the pool's memory bounded.
func PutJSONBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBufferSize {
		return
	}
	buf.Reset()
	jsonBufferPool.Put(buf)
}
