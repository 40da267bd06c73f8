//go:build !unix && !windows

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sockerr

import "syscall"

var errnoCodes = map[syscall.Errno]Code{}
