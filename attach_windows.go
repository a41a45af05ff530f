//go:build windows

package wxkey

import (
	"context"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// processTarget reads the target through a PROCESS_VM_READ handle.
type processTarget struct {
	pid    int
	handle windows.Handle
}

func attachProcess(ctx context.Context, pid int, _ AttachOptions) (Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION|windows.PROCESS_VM_READ, false, uint32(pid))
	if err != nil {
		return nil, errors.Wrap(err, "OpenProcess")
	}
	return &processTarget{pid: pid, handle: handle}, nil
}

func (t *processTarget) Pid() int {
	return t.pid
}

func (t *processTarget) Regions() ([]Region, error) {
	if t.handle == 0 {
		return nil, ErrDetached
	}

	regions := make([]Region, 0, 0x100)
	maxAddr := maxApplicationAddress()

	for ea := uintptr(0); ea < maxAddr; {
		var mbi windows.MemoryBasicInformation
		if err := windows.VirtualQueryEx(t.handle, ea, &mbi, unsafe.Sizeof(mbi)); err != nil {
			break
		}
		if mbi.RegionSize == 0 {
			break
		}
		if mbi.State == windows.MEM_COMMIT {
			regions = append(regions, Region{
				Start:    mbi.BaseAddress,
				End:      mbi.BaseAddress + mbi.RegionSize,
				Readable: isReadable(&mbi),
				Writable: isWritable(&mbi),
				Path:     regionType(&mbi),
			})
		}
		ea = mbi.BaseAddress + mbi.RegionSize
	}

	return regions, nil
}

func (t *processTarget) ReadMemory(ea uintptr, size int) ([]byte, error) {
	if t.handle == 0 {
		return nil, ErrDetached
	}
	if size == 0 {
		return nil, nil
	}

	buf := make([]byte, size)
	var n uintptr
	if err := windows.ReadProcessMemory(t.handle, ea, &buf[0], uintptr(size), &n); err != nil {
		return nil, errors.Wrapf(err, "ReadProcessMemory %x", ea)
	}
	return buf[:n], nil
}

// Detach closes the process handle, but does not terminate the process.
func (t *processTarget) Detach() error {
	if t.handle == 0 {
		return ErrDetached
	}
	err := windows.CloseHandle(t.handle)
	t.handle = 0
	return errors.Wrap(err, "CloseHandle")
}
