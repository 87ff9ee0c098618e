package service

import (
	"errors"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/pkg/kerrors"
	"github.com/S1riyS/os-course-lab-4/memfs/internal/repository"
)

// ServiceError carries a positive errno in Code.
type ServiceError struct {
	Code    int64
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) GetCode() int64 {
	return e.Code
}

var (
	errNotFound    = &ServiceError{Code: kerrors.ENOENT, Message: "no such file or directory"}
	errNotDir      = &ServiceError{Code: kerrors.ENOTDIR, Message: "not a directory"}
	errIsDir       = &ServiceError{Code: kerrors.EISDIR, Message: "is a directory"}
	errExists      = &ServiceError{Code: kerrors.EEXIST, Message: "file exists"}
	errNameTooLong = &ServiceError{Code: kerrors.ENAMETOOLONG, Message: "file name too long"}
	errNotEmpty    = &ServiceError{Code: kerrors.ENOTEMPTY, Message: "directory not empty"}
	errBusy        = &ServiceError{Code: kerrors.EBUSY, Message: "device or resource busy"}
	errLinkDir     = &ServiceError{Code: kerrors.EPERM, Message: "hard links to directories are not allowed"}
	errFileTooBig  = &ServiceError{Code: kerrors.EFBIG, Message: "file too large"}
	errInvalid     = &ServiceError{Code: kerrors.EINVAL, Message: "invalid argument"}
	errNoFile      = &ServiceError{Code: kerrors.ENFILE, Message: "too many open files"}
	errBadFd       = &ServiceError{Code: kerrors.EBADF, Message: "bad file descriptor"}
	errNotSupport  = &ServiceError{Code: kerrors.ENOSYS, Message: "function not implemented"}
	errClosed      = &ServiceError{Code: kerrors.EIO, Message: "filesystem is closed"}
	errParentNoDir = &ServiceError{Code: kerrors.ENOTDIR, Message: "parent is not a directory"}
)

// Status converts an engine error into the status returned to adaptors:
// 0 on success, a negated errno otherwise. Errors that did not come from
// the engine map to -EIO.
func Status(err error) int32 {
	if err == nil {
		return 0
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return int32(-serviceErr.Code)
	}
	return int32(kerrors.EIO_NEG)
}

// fromRepository maps repository sentinel errors to errno values.
func fromRepository(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return errNotFound
	case errors.Is(err, repository.ErrNotDir):
		return errNotDir
	case errors.Is(err, repository.ErrIsDir):
		return errIsDir
	case errors.Is(err, repository.ErrExists):
		return errExists
	case errors.Is(err, repository.ErrNameTooLong):
		return errNameTooLong
	case errors.Is(err, repository.ErrLinkDir):
		return errLinkDir
	case errors.Is(err, repository.ErrFileTooLarge):
		return errFileTooBig
	case errors.Is(err, repository.ErrInvalidLength):
		return errInvalid
	case errors.Is(err, repository.ErrNoDescriptor):
		return errNoFile
	case errors.Is(err, repository.ErrBadDescriptor):
		return errBadFd
	}
	return err
}
