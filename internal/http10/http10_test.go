package http10

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadRequestLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("GET /home.html HTTP/1.0\r\nHost: x\r\n\r\n"))
	rl, err := ReadRequestLine(r)
	require.NoError(t, err)
	require.Equal(t, "GET", rl.Method)
	require.Equal(t, "/home.html", rl.Target)
	require.Equal(t, "HTTP/1.0", rl.Proto)
}

func TestReadRequestLineToleratesBareLF(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("GET / HTTP/1.0\n"))
	rl, err := ReadRequestLine(r)
	require.NoError(t, err)
	require.Equal(t, "/", rl.Target)
}

func TestReadRequestLineMalformed(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("GARBAGE\r\n"))
	_, err := ReadRequestLine(r)
	require.ErrorIs(t, err, ErrBadRequest)
}

func TestDiscardHeaders(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Host: a\r\nAccept: */*\r\n\r\nresto"))
	require.NoError(t, DiscardHeaders(r))
	rest, _ := r.ReadString('\n')
	require.Equal(t, "resto", rest)
}

func TestSplitTarget(t *testing.T) {
	path, q := SplitTarget("/cgi/echo.cgi?x=1&y=2")
	require.Equal(t, "/cgi/echo.cgi", path)
	require.Equal(t, "x=1&y=2", q)

	path, q = SplitTarget("/home.html")
	require.Equal(t, "/home.html", path)
	require.Equal(t, "", q)
}

func TestStatusLine(t *testing.T) {
	require.Equal(t, "HTTP/1.0 200 OK\r\n", StatusLine(200))
	require.Equal(t, "HTTP/1.0 404 Not Found\r\n", StatusLine(404))
	require.Equal(t, "HTTP/1.0 501 Not Implemented\r\n", StatusLine(501))
	require.Equal(t, "HTTP/1.0 403 Forbidden\r\n", StatusLine(403))
}

// Escenario S6: llegada en T=1.000000, despacho en T=1.250000.
func TestStamps(t *testing.T) {
	arrival := time.Unix(1, 0)
	dispatch := time.Unix(1, 250000000)
	require.Equal(t, "1.000000", Stamp(arrival))
	require.Equal(t, "0.250000", ElapsedStamp(arrival, dispatch))
}

func TestStampPadding(t *testing.T) {
	ts := time.Unix(7, 42000) // 42 usec
	require.Equal(t, "7.000042", Stamp(ts))

	a := time.Unix(10, 0)
	d := time.Unix(12, 3000) // 2.000003
	require.Equal(t, "2.000003", ElapsedStamp(a, d))
}

func TestElapsedStampNeverNegative(t *testing.T) {
	a := time.Unix(5, 0)
	require.Equal(t, "0.000000", ElapsedStamp(a, time.Unix(4, 0)))
}
