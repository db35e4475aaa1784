package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSONBuffer(t *testing.T) {
	buf := GetJSONBuffer()

	require.NotNil(t, buf)
	assert.Equal(t, 0, buf.Len(), "buffer should be empty initially")
	assert.GreaterOrEqual(t, buf.Cap(), defaultBufferSize)

	PutJSONBuffer(buf)
}

func TestPutJSONBuffer_ResetsBuffer(t *testing.T) {
	buf := GetJSONBuffer()
	_, err := buf.WriteString("test data")
	require.NoError(t, err)

	PutJSONBuffer(buf)

	buf2 := GetJSONBuffer()
	assert.Equal(t, 0, buf2.Len(), "buffer from pool must be reset")
	PutJSONBuffer(buf2)
}

func TestPutJSONBuffer_DiscardsOversized(t *testing.T) {
	big := bytes.NewBuffer(make([]byte, 0, maxPooledBufferSize+1))
	assert.NotPanics(t, func() { PutJSONBuffer(big) })
}

func TestPutJSONBuffer_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() { PutJSONBuffer(nil) })
}
