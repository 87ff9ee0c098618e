package kerrors

import "golang.org/x/sys/unix"

// Коды ошибок ядра Linux
const (
	EPERM     int64 = int64(unix.EPERM)     // Operation not permitted
	ENOENT    int64 = int64(unix.ENOENT)    // No such file or directory
	EIO       int64 = int64(unix.EIO)       // I/O error
	EBADF     int64 = int64(unix.EBADF)     // Bad file descriptor
	ENOMEM    int64 = int64(unix.ENOMEM)    // Out of memory
	EACCES    int64 = int64(unix.EACCES)    // Permission denied
	EBUSY     int64 = int64(unix.EBUSY)     // Device or resource busy
	EEXIST    int64 = int64(unix.EEXIST)    // File exists
	ENOTDIR   int64 = int64(unix.ENOTDIR)   // Not a directory
	EISDIR    int64 = int64(unix.EISDIR)    // Is a directory
	EINVAL    int64 = int64(unix.EINVAL)    // Invalid argument
	ENFILE    int64 = int64(unix.ENFILE)    // File table overflow
	EFBIG     int64 = int64(unix.EFBIG)     // File too large
	ENOSYS    int64 = int64(unix.ENOSYS)    // Function not implemented
	ENOTEMPTY int64 = int64(unix.ENOTEMPTY) // Directory not empty

	ENAMETOOLONG int64 = int64(unix.ENAMETOOLONG) // File name too long

	ENOMEM_NEG int64 = -ENOMEM // Out of memory (negative)
	EINVAL_NEG int64 = -EINVAL // Invalid argument (negative)
	EIO_NEG    int64 = -EIO    // I/O error (negative)
	ENOSYS_NEG int64 = -ENOSYS // Function not implemented (negative)
)
