package wizfi360

import (
	"strings"
	"testing"
	"time"

	"clickcode-go/drivers/internal/simbus"
	"clickcode-go/errcode"
	"clickcode-go/x/ringuart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// modem answers command lines from a table keyed by the line without CRLF.
type modem struct {
	replies map[string]string
	lines   []string
	pending string
}

func (m *modem) onWrite(p *ringuart.Port, b []byte) {
	m.pending += string(b)
	for {
		i := strings.Index(m.pending, "\r\n")
		if i < 0 {
			return
		}
		line := m.pending[:i]
		m.pending = m.pending[i+2:]
		m.lines = append(m.lines, line)
		if r, ok := m.replies[line]; ok {
			p.FeedString(r)
		}
	}
}

func newSim(replies map[string]string) (*Device, *ringuart.Port, *modem) {
	port := ringuart.New(4096, nil)
	m := &modem{replies: replies}
	port.OnWrite = m.onWrite
	cfg := DefaultConfig()
	cfg.ReadTimeout = 3 * time.Millisecond
	cfg.Sleep = func(time.Duration) {}
	return New(port, cfg), port, m
}

func TestSendCmdFormat(t *testing.T) {
	d, port, _ := newSim(nil)
	require.NoError(t, d.SendCmd(CmdMux, SepSet, "1"))
	require.NoError(t, d.SendCmd(CmdWifiMode, SepQuery, ""))
	require.NoError(t, d.SendCmd(CmdAT, SepNone, ""))
	assert.Equal(t, "AT+CIPMUX=1\r\nAT+CWMODE_CUR?\r\nAT\r\n", string(port.Sent()))

	long := strings.Repeat("x", lineSize)
	assert.Equal(t, errcode.InvalidParams, errcode.Of(d.SendCmd(CmdJoinAP, SepSet, long)))
}

func TestReadResponse(t *testing.T) {
	d, port, _ := newSim(nil)
	port.FeedString("AT+GMR\r\nversion 1.1\r\n\r\nOK\r\n")
	resp, err := d.ReadResponse()
	require.NoError(t, err)
	assert.Equal(t, "AT+GMR\nversion 1.1", string(resp))

	port.FeedString("busy p...\r\nERROR\r\n")
	_, err = d.ReadResponse()
	assert.Equal(t, errcode.Error, errcode.Of(err))

	port.FeedString("partial")
	_, err = d.ReadResponse()
	assert.Equal(t, errcode.Timeout, errcode.Of(err))
}

func TestDefaultCfgAndConnect(t *testing.T) {
	d, _, m := newSim(map[string]string{
		"AT":                          "OK\r\n",
		"ATE0":                        "OK\r\n",
		"AT+CWMODE_CUR=1":             "OK\r\n",
		`AT+CWJAP_CUR="lab","s3cret"`: "WIFI CONNECTED\r\nWIFI GOT IP\r\n\r\nOK\r\n",
		"AT+CIFSR":                    "+CIFSR:STAIP,\"192.168.4.20\"\r\n+CIFSR:STAMAC,\"00:08:dc:00:00:01\"\r\n\r\nOK\r\n",
	})
	require.NoError(t, d.DefaultCfg())
	require.NoError(t, d.ConnectToAP("lab", "s3cret"))
	ip, err := d.LocalIP()
	require.NoError(t, err)
	assert.Equal(t, "192.168.4.20", ip)
	assert.Len(t, m.lines, 5)
}

func TestJoinFailure(t *testing.T) {
	d, _, _ := newSim(map[string]string{
		`AT+CWJAP_CUR="lab","nope"`: "+CWJAP:1\r\n\r\nFAIL\r\n",
	})
	err := d.ConnectToAP("lab", "nope")
	assert.Equal(t, errcode.Error, errcode.Of(err))
}

func TestResetWaitsForReady(t *testing.T) {
	d, _, _ := newSim(map[string]string{
		"AT+RST": "OK\r\n\r\nWIZnet boot\r\nready\r\n",
	})
	require.NoError(t, d.Reset())
}

func TestTCPSession(t *testing.T) {
	d, port, m := newSim(map[string]string{
		"AT+CIPMUX=1":                       "OK\r\n",
		`AT+CIPSTART=2,"TCP","10.0.0.1",80`: "2,CONNECT\r\n\r\nOK\r\n",
		"AT+CIPSEND=2,5":                    "\r\nOK\r\n> ",
		"AT+CIPCLOSE=2":                     "2,CLOSED\r\n\r\nOK\r\n",
	})
	require.NoError(t, d.SetMux(true))
	require.NoError(t, d.OpenTCP(2, "10.0.0.1", 80))

	// The payload is written without CRLF; answer it once it arrives.
	prev := port.OnWrite
	port.OnWrite = func(p *ringuart.Port, b []byte) {
		if string(b) == "hello" {
			p.FeedString("\r\nRecv 5 bytes\r\n\r\nSEND OK\r\n")
			return
		}
		prev(p, b)
	}
	require.NoError(t, d.Send(2, []byte("hello")))

	port.FeedString("\r\n+IPD,2,4:pong\r\n")
	buf := make([]byte, 16)
	id, n, err := d.ReadData(buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), id)
	assert.Equal(t, "pong", string(buf[:n]))

	port.OnWrite = prev
	require.NoError(t, d.Close(2))
	assert.Equal(t, "AT+CIPCLOSE=2", m.lines[len(m.lines)-1])
}

func TestSendLimits(t *testing.T) {
	d, _, _ := newSim(nil)
	assert.Equal(t, errcode.InvalidParams, errcode.Of(d.Send(0, nil)))
	assert.Equal(t, errcode.InvalidParams, errcode.Of(d.Send(0, make([]byte, MaxSend+1))))
}

func TestParseIPD(t *testing.T) {
	id, p, ok := ParseIPD([]byte("\r\n+IPD,5:hi\nyo"), false)
	require.True(t, ok)
	assert.Equal(t, uint8(0), id)
	assert.Equal(t, "hi\nyo", string(p))

	id, p, ok = ParseIPD([]byte("+IPD,3,2:ab"), true)
	require.True(t, ok)
	assert.Equal(t, uint8(3), id)
	assert.Equal(t, "ab", string(p))

	for _, bad := range []string{"+IPD,3:ab", "+IPD,x:ab", "+IPD,2", "OK"} {
		_, _, ok := ParseIPD([]byte(bad), false)
		assert.False(t, ok, bad)
	}
	_, _, ok = ParseIPD([]byte("+IPD,2:ab"), true)
	assert.False(t, ok)
}

func TestHardReset(t *testing.T) {
	rst := simbus.NewPin(false)
	cfg := DefaultConfig()
	cfg.Reset = rst.Output()
	cfg.Sleep = func(time.Duration) {}
	d := New(ringuart.New(16, nil), cfg)
	d.HardReset()
	assert.Equal(t, []bool{true, false, true}, rst.History)
}
