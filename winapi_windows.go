//go:build windows

package wxkey

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32      = windows.NewLazySystemDLL("kernel32.dll")
	getSystemInfo = kernel32.NewProc("GetSystemInfo")
)

const (
	MEM_IMAGE   = 0x1000000
	MEM_MAPPED  = 0x40000
	MEM_PRIVATE = 0x20000
)

type systemInfo struct {
	ProcessorArchitecture     uint16
	_                         uint16
	PageSize                  uint32
	MinimumApplicationAddress uintptr
	MaximumApplicationAddress uintptr
	_                         uintptr // ActiveProcessorMask
	_                         [3]uint32
	_                         [2]uint16
}

func maxApplicationAddress() uintptr {
	var si systemInfo
	getSystemInfo.Call(uintptr(unsafe.Pointer(&si)))
	return si.MaximumApplicationAddress
}

func isReadable(mbi *windows.MemoryBasicInformation) bool {
	if mbi.State != windows.MEM_COMMIT {
		return false
	}

	if mbi.Protect&(windows.PAGE_GUARD|windows.PAGE_NOACCESS) != 0 {
		return false
	}

	const readable = windows.PAGE_READONLY | windows.PAGE_READWRITE | windows.PAGE_WRITECOPY |
		windows.PAGE_EXECUTE_READ | windows.PAGE_EXECUTE_READWRITE | windows.PAGE_EXECUTE_WRITECOPY
	return mbi.Protect&readable != 0
}

func isWritable(mbi *windows.MemoryBasicInformation) bool {
	if !isReadable(mbi) {
		return false
	}

	const writable = windows.PAGE_READWRITE | windows.PAGE_WRITECOPY |
		windows.PAGE_EXECUTE_READWRITE | windows.PAGE_EXECUTE_WRITECOPY
	return mbi.Protect&writable != 0
}

func regionType(mbi *windows.MemoryBasicInformation) string {
	switch mbi.Type {
	case MEM_IMAGE:
		return "[image]"
	case MEM_MAPPED:
		return "[mapped]"
	case MEM_PRIVATE:
		return "[private]"
	}
	return ""
}
