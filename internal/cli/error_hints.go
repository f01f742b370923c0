package cli

import (
	"errors"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
)

// hintForDial explains why tail could not reach the server
func hintForDial(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return "Nothing is listening there; start a server with `logview serve --dir name=/path/to/logs`"
	}
	if errors.Is(err, websocket.ErrBadHandshake) {
		return "The server did not accept a websocket; check the --server path against server.path (default /ws)"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "Check the host name in --server"
	}

	return "Is the server running? Try `logview serve`, then pass its address with --server"
}

// hintForRejected explains a request the server refused
func hintForRejected(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "does not exist"):
		return "Paths look like /mount/relative/file.log; the server logs its mounts at startup"
	case strings.Contains(msg, "forbidden"):
		return "Paths must stay inside a mount; remove any .. segments"
	case strings.Contains(msg, "invalid path format"):
		return "Use /mount/relative/file.log"
	case strings.Contains(msg, "(1008)"):
		return "Too many control frames; wait for results before restarting the scan"
	}

	return "Check the path and request flags"
}

// hintForListen explains why serve could not bind
func hintForListen(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, syscall.EADDRINUSE) {
		return "Address already in use; pass --addr or set server.addr"
	}
	if errors.Is(err, syscall.EACCES) {
		return "Ports below 1024 need elevated privileges; choose a higher port"
	}

	return "Check server.addr and that the listen address is free"
}

// hintForRead explains why a local file could not be scanned
func hintForRead(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, os.ErrNotExist):
		return "Check the file path"
	case errors.Is(err, os.ErrPermission):
		return "The file is not readable by this user"
	}
	return ""
}

func hintForFilter(err error) string {
	if err == nil {
		return ""
	}
	return "Quote clauses that contain spaces or shell characters. Example: --where 'lines>=3' --where 'text~time(out)?'"
}
