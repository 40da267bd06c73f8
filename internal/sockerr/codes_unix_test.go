//go:build unix

package sockerr_test

import (
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-transport/internal/sockerr"
)

func TestCodeOf_Errno(t *testing.T) {
	cases := map[syscall.Errno]sockerr.Code{
		syscall.ECONNRESET:   sockerr.CodeConnectionReset,
		syscall.EPIPE:        sockerr.CodeShutdown,
		syscall.ECONNABORTED: sockerr.CodeConnectionAborted,
		syscall.EINTR:        sockerr.CodeInterrupted,
		syscall.EINVAL:       sockerr.CodeInvalidArgument,
		syscall.ENOENT:       sockerr.CodeUnknown,
	}
	for errno, want := range cases {
		// the shape returned by net.Conn methods
		err := &net.OpError{Op: "write", Net: "tcp", Err: os.NewSyscallError("write", errno)}
		assert.Equal(t, want, sockerr.CodeOf(err), errno.Error())
	}
	assert.Equal(t, sockerr.Reset, sockerr.ClassOf(syscall.ECONNRESET))
}
