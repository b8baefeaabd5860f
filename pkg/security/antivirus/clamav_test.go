package antivirus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClamd accepts connections and answers PING and INSTREAM. Streams
// containing the word EICAR are reported as infected.
func fakeClamd(t *testing.T) (string, <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received := make(chan []byte, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveClamd(conn, received)
		}
	}()
	return ln.Addr().String(), received
}

func serveClamd(conn net.Conn, received chan<- []byte) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	cmd, err := r.ReadString(0)
	if err != nil {
		return
	}
	switch cmd {
	case "zPING\x00":
		conn.Write([]byte("PONG\x00"))
	case "zINSTREAM\x00":
		var body []byte
		var size [4]byte
		for {
			if _, err := io.ReadFull(r, size[:]); err != nil {
				return
			}
			n := binary.BigEndian.Uint32(size[:])
			if n == 0 {
				break
			}
			chunk := make([]byte, n)
			if _, err := io.ReadFull(r, chunk); err != nil {
				return
			}
			body = append(body, chunk...)
		}
		received <- body
		if bytes.Contains(body, []byte("EICAR")) {
			conn.Write([]byte("stream: Eicar-Test-Signature FOUND\x00"))
			return
		}
		conn.Write([]byte("stream: OK\x00"))
	}
}

func TestClamAVScanner(t *testing.T) {
	addr, received := fakeClamd(t)
	scanner := NewClamAVScanner(addr, 2*time.Second)
	ctx := context.Background()

	t.Run("Should report the daemon available", func(t *testing.T) {
		assert.True(t, scanner.Available(ctx))
	})

	t.Run("Should pass clean files", func(t *testing.T) {
		result := scanner.Scan(ctx, "cv.pdf", []byte("%PDF-1.7 clean"))
		assert.False(t, result.Infected)
		assert.NoError(t, result.Error)
		assert.Equal(t, "clamav", result.ScannerName)
		assert.Equal(t, []byte("%PDF-1.7 clean"), <-received)
	})

	t.Run("Should stream large files in chunks", func(t *testing.T) {
		data := bytes.Repeat([]byte("a"), chunkSize*2+17)
		result := scanner.Scan(ctx, "big.pdf", data)
		assert.False(t, result.Infected)
		assert.Len(t, <-received, len(data))
	})

	t.Run("Should name the detected threat", func(t *testing.T) {
		result := scanner.Scan(ctx, "cv.pdf", []byte("X5O EICAR payload"))
		<-received
		assert.True(t, result.Infected)
		assert.Equal(t, "Eicar-Test-Signature", result.ThreatName)
		assert.NoError(t, result.Error)
	})
}

func TestClamAVScanner_Unreachable(t *testing.T) {
	scanner := NewClamAVScanner("127.0.0.1:1", 200*time.Millisecond)

	assert.False(t, scanner.Available(context.Background()))
	result := scanner.Scan(context.Background(), "cv.pdf", []byte("data"))
	assert.True(t, result.Infected)
	assert.Error(t, result.Error)
}

func TestChainScanner(t *testing.T) {
	down := NewClamAVScanner("127.0.0.1:1", 200*time.Millisecond)

	t.Run("Should fall through to an available scanner", func(t *testing.T) {
		chain := NewChainScanner(down, NewNoOpScanner())
		result := chain.Scan(context.Background(), "cv.pdf", []byte("data"))
		assert.False(t, result.Infected)
		assert.Equal(t, "noop", result.ScannerName)
	})

	t.Run("Should fail closed when nothing is reachable", func(t *testing.T) {
		chain := NewChainScanner(down)
		assert.False(t, chain.Available(context.Background()))
		result := chain.Scan(context.Background(), "cv.pdf", []byte("data"))
		assert.True(t, result.Infected)
		assert.ErrorIs(t, result.Error, ErrNoScanner)
	})
}
