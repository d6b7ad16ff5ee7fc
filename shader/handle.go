package shader

import "github.com/toxichemicals/GO/shaderview/core"

// Handle owns one linked GPU program. Release deletes it exactly once; later
// calls are no-ops, so a handle can be released both on replacement and on
// shutdown without a double free.
type Handle struct {
	device core.Device
	id     uint32
}

func newHandle(device core.Device, id uint32) *Handle {
	return &Handle{device: device, id: id}
}

// ID returns the raw program id, or 0 once released.
func (h *Handle) ID() uint32 {
	if h == nil {
		return 0
	}
	return h.id
}

// Valid reports whether the handle still owns a program.
func (h *Handle) Valid() bool {
	return h != nil && h.id != 0
}

// Release deletes the program.
func (h *Handle) Release() {
	if !h.Valid() {
		return
	}
	h.device.DeleteProgram(h.id)
	h.id = 0
}
