// Package spool implements the output-staging policy described in
// §5/§6: write straight through when stdout is seekable-enough to be a
// regular file or FIFO, otherwise buffer the whole job to an anonymous
// tempfile and copy it to stdout only once the job finished cleanly.
package spool

import (
	"io"
	"os"

	"github.com/schillm/min12xxw/min12xxwerr"
)

const copyChunk = 16 * 1024

// IsDirect reports whether out can be written to directly: a regular
// file or a FIFO. An anonymous pipe has the same file type as a FIFO,
// so a pipe to another process is written directly too. Anything else
// (a terminal, a socket, a device) goes through the tempfile path
// instead, so a job that fails partway never leaves a half-written
// stream on the consumer's end.
func IsDirect(out *os.File) bool {
	fi, err := out.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode.IsRegular() || mode&os.ModeNamedPipe != 0
}

// Run calls write with either out directly (IsDirect) or a fresh
// anonymous tempfile, and on success copies the tempfile's contents to
// out in copyChunk-sized pieces. If write returns an error, the
// tempfile is discarded and out is never touched, so a failing job
// leaves no partial output behind on a non-seekable destination.
func Run(out *os.File, write func(io.Writer) error) error {
	if IsDirect(out) {
		return write(out)
	}

	tmp, err := os.CreateTemp("", "min12xxw-*.spool")
	if err != nil {
		return &min12xxwerr.IoError{Op: "create spool tempfile", Err: err}
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := write(tmp); err != nil {
		return err
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return &min12xxwerr.IoError{Op: "rewind spool tempfile", Err: err}
	}

	buf := make([]byte, copyChunk)
	for {
		n, err := tmp.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return &min12xxwerr.IoError{Op: "copy spool to stdout", Err: werr}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &min12xxwerr.IoError{Op: "read spool tempfile", Err: err}
		}
	}
}
