package ringuart

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadIsNonBlocking(t *testing.T) {
	p := New(16, nil)
	buf := make([]byte, 4)

	n, err := p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	p.FeedString("OK\r\n")
	assert.Equal(t, 4, p.Buffered())
	n, err = p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "OK\r\n", string(buf[:n]))
}

func TestWriteCaptureAndScript(t *testing.T) {
	p := New(16, nil)
	p.OnWrite = func(p *Port, b []byte) {
		if bytes.Equal(b, []byte("AT\r\n")) {
			p.FeedString("OK\r\n")
		}
	}
	_, err := p.Write([]byte("AT\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "AT\r\n", string(p.Sent()))
	assert.Empty(t, p.Sent())
	assert.Equal(t, 4, p.Buffered())

	p.Flush()
	assert.Equal(t, 0, p.Buffered())
}

func TestWriteToAttachedWriter(t *testing.T) {
	var out bytes.Buffer
	p := New(8, &out)
	_, err := p.Write([]byte{0x03, 0x06})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x06}, out.Bytes())
	assert.Empty(t, p.Sent())
}
