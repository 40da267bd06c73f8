//go:build windows

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sockerr

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// Winsock codes without an x/sys/windows constant.
const (
	wsaEINTR     syscall.Errno = 10004
	wsaEINVAL    syscall.Errno = 10022
	wsaESHUTDOWN syscall.Errno = 10058
)

var errnoCodes = map[syscall.Errno]Code{
	windows.WSAECONNRESET:           CodeConnectionReset,
	windows.ERROR_NETNAME_DELETED:   CodeConnectionReset,
	wsaESHUTDOWN:                    CodeShutdown,
	windows.WSAECONNABORTED:         CodeConnectionAborted,
	windows.ERROR_OPERATION_ABORTED: CodeOperationAborted,
	wsaEINTR:                        CodeInterrupted,
	wsaEINVAL:                       CodeInvalidArgument,
}
