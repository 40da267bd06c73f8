//go:build unix

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sockerr

import (
	"syscall"

	"golang.org/x/sys/unix"
)

var errnoCodes = map[syscall.Errno]Code{
	unix.ECONNRESET:   CodeConnectionReset,
	unix.EPIPE:        CodeShutdown,
	unix.ESHUTDOWN:    CodeShutdown,
	unix.ECONNABORTED: CodeConnectionAborted,
	unix.ECANCELED:    CodeOperationAborted,
	unix.EINTR:        CodeInterrupted,
	unix.EINVAL:       CodeInvalidArgument,
}
