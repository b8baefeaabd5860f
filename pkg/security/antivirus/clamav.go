package antivirus

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// clamd rejects streams larger than StreamMaxLength (25 MB by default), and
// chunks must stay below it too.
const chunkSize = 1 << 20

// ClamAVScanner streams files to a clamd daemon with zINSTREAM.
type ClamAVScanner struct {
	address string        // host:port, or a Unix socket path
	timeout time.Duration // dial plus scan
	dialer  net.Dialer
}

var _ Scanner = (*ClamAVScanner)(nil)

// NewClamAVScanner creates a ClamAV scanner for address, "localhost:3310" or
// "/var/run/clamav/clamd.sock".
func NewClamAVScanner(address string, timeout time.Duration) *ClamAVScanner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClamAVScanner{address: address, timeout: timeout}
}

func (c *ClamAVScanner) Name() string {
	return "clamav"
}

func (c *ClamAVScanner) network() string {
	if strings.HasPrefix(c.address, "/") {
		return "unix"
	}
	return "tcp"
}

func (c *ClamAVScanner) dial(ctx context.Context, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := c.dialer.DialContext(ctx, c.network(), c.address)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	return conn, nil
}

// Available pings the daemon.
func (c *ClamAVScanner) Available(ctx context.Context) bool {
	conn, err := c.dial(ctx, 5*time.Second)
	if err != nil {
		return false
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("zPING\x00")); err != nil {
		return false
	}
	reply, err := readReply(conn)
	return err == nil && reply == "PONG"
}

// Scan sends data in length-prefixed chunks followed by a zero-length
// terminator, then parses "stream: OK" or "stream: <threat> FOUND".
func (c *ClamAVScanner) Scan(ctx context.Context, filename string, data []byte) ScanResult {
	result := ScanResult{ScannerName: c.Name()}
	fail := func(err error) ScanResult {
		result.Infected = true
		result.Error = err
		return result
	}

	conn, err := c.dial(ctx, c.timeout)
	if err != nil {
		return fail(fmt.Errorf("connect to clamd: %w", err))
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
		return fail(fmt.Errorf("send command: %w", err))
	}

	var size [4]byte
	for off := 0; off < len(data); off += chunkSize {
		end := min(off+chunkSize, len(data))
		binary.BigEndian.PutUint32(size[:], uint32(end-off))
		if _, err := conn.Write(size[:]); err != nil {
			return fail(fmt.Errorf("send chunk size: %w", err))
		}
		if _, err := conn.Write(data[off:end]); err != nil {
			return fail(fmt.Errorf("send chunk: %w", err))
		}
	}
	binary.BigEndian.PutUint32(size[:], 0)
	if _, err := conn.Write(size[:]); err != nil {
		return fail(fmt.Errorf("send end marker: %w", err))
	}

	reply, err := readReply(conn)
	if err != nil {
		return fail(fmt.Errorf("read reply: %w", err))
	}

	switch {
	case strings.HasSuffix(reply, "FOUND"):
		result.Infected = true
		threat := strings.TrimSuffix(reply, "FOUND")
		if _, after, ok := strings.Cut(threat, ":"); ok {
			threat = after
		}
		result.ThreatName = strings.TrimSpace(threat)
	case strings.HasSuffix(reply, "ERROR"):
		return fail(fmt.Errorf("scan error for %s: %s", filename, reply))
	}
	return result
}

// readReply reads one NUL-terminated response.
func readReply(conn net.Conn) (string, error) {
	buf := make([]byte, 0, 256)
	tmp := make([]byte, 256)
	for {
		n, err := conn.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if i := strings.IndexByte(string(buf), 0); i >= 0 {
			return strings.TrimSpace(string(buf[:i])), nil
		}
		if err == io.EOF {
			return strings.TrimSpace(string(buf)), nil
		}
		if err != nil {
			return "", err
		}
	}
}
