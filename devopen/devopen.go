// Package devopen opens the printer's character device as a raw file
// descriptor and provides a bounded, poll()-driven read so the device
// register query (§4.5) can enforce its own retry timeout instead of
// blocking forever on a printer that never replies.
package devopen

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Device is a raw duplex file descriptor to a printer character
// device, e.g. /dev/usb/lp0 or /dev/lp0.
type Device int

// Open opens path read-write.
func Open(path string) (Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return -1, fmt.Errorf("devopen: open %s: %w", path, err)
	}
	return Device(fd), nil
}

// Close releases the file descriptor.
func (d Device) Close() error {
	return unix.Close(int(d))
}

// Write writes all of b, retrying on EINTR. Satisfies io.Writer.
func (d Device) Write(b []byte) (int, error) {
	for wrote := 0; wrote != len(b); {
		n, err := unix.Write(int(d), b[wrote:])
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return wrote, fmt.Errorf("devopen: write: %w", err)
		}
		wrote += n
	}
	return len(b), nil
}

// defaultReadTimeout bounds the plain Read method below; the device
// query protocol (§4.5) does its own retry loop on top of this rather
// than blocking indefinitely on a printer that never replies.
const defaultReadTimeout = 10 * time.Second

// Read satisfies io.Reader using ReadTimeout with a generous fixed
// timeout, for callers (such as bufio.Reader) that only need the
// plain io.Reader contract.
func (d Device) Read(buf []byte) (int, error) {
	return d.ReadTimeout(buf, defaultReadTimeout)
}

// ErrTimeout is returned by ReadTimeout when no data arrives within
// the given duration.
var ErrTimeout = errors.New("devopen: read timed out")

// ReadTimeout reads up to len(buf) bytes, waiting at most timeout for
// the device to become readable. It returns the number of bytes
// actually read, which may be less than len(buf) if the device has no
// more data immediately available once it starts responding.
func (d Device) ReadTimeout(buf []byte, timeout time.Duration) (int, error) {
	pollFds := []unix.PollFd{{Fd: int32(d), Events: unix.POLLIN}}

	for {
		n, err := unix.Poll(pollFds, int(timeout.Milliseconds()))
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return 0, fmt.Errorf("devopen: poll: %w", err)
		case n == 0:
			return 0, ErrTimeout
		case pollFds[0].Revents&unix.POLLNVAL != 0:
			return 0, fmt.Errorf("devopen: poll: invalid descriptor")
		case pollFds[0].Revents&(unix.POLLERR|unix.POLLHUP) != 0:
			return 0, fmt.Errorf("devopen: device disconnected")
		case pollFds[0].Revents&unix.POLLIN == 0:
			return 0, fmt.Errorf("devopen: poll returned without POLLIN, revents %#x", pollFds[0].Revents)
		}
		return d.readAvailable(buf)
	}
}

// readAvailable drains whatever is currently available into buf,
// retrying only on EINTR, after poll has confirmed readability.
func (d Device) readAvailable(buf []byte) (int, error) {
	for {
		n, err := unix.Read(int(d), buf)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("devopen: read: %w", err)
		}
		return n, nil
	}
}
