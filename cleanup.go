package pool

import (
	"errors"
	"os"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Cleanup is one registered handler: a callback plus the opaque data it
// closes over. Like largeNode, Cleanup is an ordinary Go heap allocation
// rather than pool-carved, for the same reason: Handler and next are Go
// pointers a no-scan []byte region cannot safely host. Only Data, a
// plain-byte payload with no pointers, is carved from pool memory via
// PallocBytes, matching ngx_pool_cleanup_t's void *data convention.
type Cleanup struct {
	Handler func(data unsafe.Pointer)
	Data    []byte

	fileData *FileCleanupData
	next     *Cleanup
}

// CleanupAdd registers a new handler at the head of the pool's cleanup
// chain and returns it so the caller can install Handler and populate
// Data. If dataSize > 0, Data is a pool-backed buffer of that size;
// otherwise Data is nil. Handlers run, head to tail (i.e. LIFO
// registration order), when the pool is destroyed.
func (p *Pool) CleanupAdd(dataSize int) (*Cleanup, error) {
	p.checkAlive()
	c := &Cleanup{}
	if dataSize > 0 {
		buf, err := p.PallocBytes(dataSize)
		if err != nil {
			return nil, err
		}
		c.Data = buf
	}
	c.next = p.cleanup
	p.cleanup = c
	p.log.WithField("size", dataSize).Debug("pool: cleanup handler added")
	return c, nil
}

// RunCleanupFile walks the cleanup chain and, for the first node
// registered via CleanupAddFile or CleanupAddDeleteFile whose descriptor
// equals fd, invokes its handler immediately and clears it so Destroy
// will not invoke it again. It exists so a caller can pre-emptively close
// a descriptor whose lifetime ended early, without leaking the slot.
func (p *Pool) RunCleanupFile(fd int) {
	for c := p.cleanup; c != nil; c = c.next {
		if c.fileData != nil && c.fileData.FD == fd && c.Handler != nil {
			c.Handler(nil)
			c.Handler = nil
			return
		}
	}
}

// FileCleanupData is the payload shared by the file-cleanup callbacks:
// the descriptor to close, the path to optionally unlink, and the log to
// report failures through.
type FileCleanupData struct {
	FD   int
	Name string
	Log  logrus.FieldLogger
}

// CloseFD closes data.FD, logging (not returning) any failure: cleanup
// handlers must not fail.
func CloseFD(data *FileCleanupData) {
	data.Log.WithField("fd", data.FD).Debug("pool: file cleanup closing fd")
	if err := closeRawFD(data.FD); err != nil {
		data.Log.WithError(err).WithField("fd", data.FD).Error("pool: file cleanup close failed")
	}
}

// CloseAndDeleteFile unlinks data.Name, then closes data.FD. ENOENT on
// the unlink is not logged as an error; any other failure is.
func CloseAndDeleteFile(data *FileCleanupData) {
	data.Log.WithFields(logrus.Fields{"fd": data.FD, "name": data.Name}).
		Debug("pool: file cleanup deleting and closing")
	if err := os.Remove(data.Name); err != nil && !errors.Is(err, os.ErrNotExist) {
		data.Log.WithError(err).WithField("name", data.Name).Error("pool: file cleanup unlink failed")
	}
	CloseFD(data)
}

// CleanupAddFile registers a close-on-destroy handler for fd. log may be
// nil, in which case the pool's own log is used.
func (p *Pool) CleanupAddFile(fd int, name string, log logrus.FieldLogger) *Cleanup {
	p.checkAlive()
	if log == nil {
		log = p.log
	}
	fcd := &FileCleanupData{FD: fd, Name: name, Log: log}
	c := &Cleanup{fileData: fcd}
	c.Handler = func(unsafe.Pointer) { CloseFD(fcd) }
	c.next = p.cleanup
	p.cleanup = c
	return c
}

// CleanupAddDeleteFile registers a handler that unlinks name and then
// closes fd on destroy.
func (p *Pool) CleanupAddDeleteFile(fd int, name string, log logrus.FieldLogger) *Cleanup {
	p.checkAlive()
	if log == nil {
		log = p.log
	}
	fcd := &FileCleanupData{FD: fd, Name: name, Log: log}
	c := &Cleanup{fileData: fcd}
	c.Handler = func(unsafe.Pointer) { CloseAndDeleteFile(fcd) }
	c.next = p.cleanup
	p.cleanup = c
	return c
}
