package rag

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"syscall"

	relay_errors "chat-relay/pkg/errors"

	"go.uber.org/zap"
)

// NetworkError describes a failed call to the RAG service using the most
// specific error found in the chain.
type NetworkError struct {
	Message string
	Code    string
	Errno   int
	Syscall string
	Address string
	Port    int
	Err     error
}

func (e *NetworkError) Error() string {
	return "rag service unavailable: " + e.Message
}

func (e *NetworkError) Unwrap() []error {
	return []error{relay_errors.ErrUpstreamUnavailable, e.Err}
}

// Fields renders the error detail for structured logging.
func (e *NetworkError) Fields() []zap.Field {
	return []zap.Field{
		zap.String("message", e.Message),
		zap.String("code", e.Code),
		zap.Int("errno", e.Errno),
		zap.String("syscall", e.Syscall),
		zap.String("address", e.Address),
		zap.Int("port", e.Port),
	}
}

func NewNetworkError(err error) *NetworkError {
	core := CoreError(err)
	ne := &NetworkError{
		Message: core.Error(),
		Err:     err,
	}

	var opErr *net.OpError
	if errors.As(core, &opErr) && opErr.Addr != nil {
		ne.Address, ne.Port = splitAddr(opErr.Addr)
	}

	var sysErr *os.SyscallError
	if errors.As(core, &sysErr) {
		ne.Syscall = sysErr.Syscall
	}

	var errno syscall.Errno
	if errors.As(core, &errno) {
		ne.Errno = int(errno)
		ne.Code = errnoCode(errno)
	}

	var dnsErr *net.DNSError
	if errors.As(core, &dnsErr) {
		ne.Code = "ENOTFOUND"
		if ne.Address == "" {
			ne.Address = dnsErr.Name
		}
	}

	if ne.Code == "" {
		var netErr net.Error
		switch {
		case errors.Is(core, context.Canceled):
			ne.Code = "ECANCELED"
		case errors.Is(core, context.DeadlineExceeded), errors.As(core, &netErr) && netErr.Timeout():
			ne.Code = "ETIMEDOUT"
		}
	}

	return ne
}

// CoreError walks the wrap chain and returns the innermost error. When it
// meets an aggregate (errors.Join and friends) it follows the first member.
func CoreError(err error) error {
	for err != nil {
		switch x := err.(type) {
		case interface{ Unwrap() []error }:
			errs := x.Unwrap()
			if len(errs) == 0 || errs[0] == nil {
				return err
			}
			err = errs[0]
		case *net.OpError, *net.DNSError:
			// keep the address/host information
			return err
		case interface{ Unwrap() error }:
			next := x.Unwrap()
			if next == nil {
				return err
			}
			err = next
		default:
			return err
		}
	}
	return err
}

func splitAddr(addr net.Addr) (string, int) {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.IP.String(), tcp.Port
	}
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

var errnoCodes = map[syscall.Errno]string{
	syscall.ECONNREFUSED: "ECONNREFUSED",
	syscall.ECONNRESET:   "ECONNRESET",
	syscall.ECONNABORTED: "ECONNABORTED",
	syscall.ETIMEDOUT:    "ETIMEDOUT",
	syscall.EHOSTUNREACH: "EHOSTUNREACH",
	syscall.ENETUNREACH:  "ENETUNREACH",
	syscall.EPIPE:        "EPIPE",
}

func errnoCode(errno syscall.Errno) string {
	if code, ok := errnoCodes[errno]; ok {
		return code
	}
	return "E" + strconv.Itoa(int(errno))
}
