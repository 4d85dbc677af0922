// Package utils provides small synchronisation primitives used by the
// spawn coordinator.
package utils

import (
	"os"
	"syscall"

	nserrors "nsctl/errors"
)

// Sentinel is the single byte written across every synchronisation pipe
// to signal "phase complete" between generations of the spawn
// coordinator.
const Sentinel byte = 0x06

// SyncPipe is a one-directional, one-byte handshake pipe: the writer end
// calls Signal once when its phase is done; the reader end calls Wait to
// block until that happens (or the writer closes its end, surfacing as
// SPAWN_SYNC_FAILED). A single SyncPipe only ever flows in one direction;
// the coordinator's three-generation handshake allocates one per
// direction of ordering it needs to enforce.
type SyncPipe struct {
	reader *os.File
	writer *os.File
}

// NewSyncPipe creates a new synchronisation pipe.
func NewSyncPipe() (*SyncPipe, error) {
	fds := make([]int, 2)
	if err := syscall.Pipe(fds); err != nil {
		return nil, nserrors.SpawnSyncFailed("pipe", err)
	}
	return &SyncPipe{
		reader: os.NewFile(uintptr(fds[0]), "syncpipe-r"),
		writer: os.NewFile(uintptr(fds[1]), "syncpipe-w"),
	}, nil
}

// NewReaderOnlySyncPipe wraps an inherited file descriptor (the read end
// of a pipe created by another process) so it can call Wait. Used by a
// re-exec'd generation that received only one end of the pipe across the
// exec boundary.
func NewReaderOnlySyncPipe(reader *os.File) *SyncPipe {
	return &SyncPipe{reader: reader}
}

// NewWriterOnlySyncPipe wraps an inherited file descriptor (the write end
// of a pipe created by another process) so it can call Signal. Used by a
// re-exec'd generation that received only one end of the pipe across the
// exec boundary.
func NewWriterOnlySyncPipe(writer *os.File) *SyncPipe {
	return &SyncPipe{writer: writer}
}

// ReaderFile returns the read end, for the participant that calls Wait.
func (s *SyncPipe) ReaderFile() *os.File { return s.reader }

// WriterFile returns the write end, for the participant that calls Signal.
func (s *SyncPipe) WriterFile() *os.File { return s.writer }

// CloseReader closes the read end.
func (s *SyncPipe) CloseReader() error {
	if s.reader != nil {
		return s.reader.Close()
	}
	return nil
}

// CloseWriter closes the write end.
func (s *SyncPipe) CloseWriter() error {
	if s.writer != nil {
		return s.writer.Close()
	}
	return nil
}

// Close closes both ends.
func (s *SyncPipe) Close() {
	s.CloseReader()
	s.CloseWriter()
}

// Wait blocks for the sentinel byte on the reader end. EOF or an
// unexpected byte both surface as SPAWN_SYNC_FAILED, matching spec.md
// §7's propagation policy for sync pipe failures.
func (s *SyncPipe) Wait() error {
	buf := make([]byte, 1)
	n, err := s.reader.Read(buf)
	if err != nil || n == 0 {
		return nserrors.ErrSpawnEOF
	}
	if buf[0] != Sentinel {
		return nserrors.ErrSpawnBadSentinel
	}
	return nil
}

// Signal writes the sentinel byte on the writer end.
func (s *SyncPipe) Signal() error {
	_, err := s.writer.Write([]byte{Sentinel})
	if err != nil {
		return nserrors.SpawnSyncFailed("signal", err)
	}
	return nil
}
