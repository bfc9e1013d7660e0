//go:build windows

package mpdev

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// DefaultDLLName is the vendor library file name as installed by the BIOPAC
// hardware API.
const DefaultDLLName = "mpdev.dll"

// Library is the real binding to mpdev.dll. A process holds at most one
// device session; the vendor library keeps the handle internally, so Library
// carries no per-call state beyond the resolved procedures.
type Library struct {
	dll *windows.DLL

	procConnect     *windows.Proc
	procSampleRate  *windows.Proc
	procAcqChannels *windows.Proc
	procStartAcq    *windows.Proc
	procStopAcq     *windows.Proc
	procMostRecent  *windows.Proc
	procDisconnect  *windows.Proc

	// The vendor library is not documented as thread safe; serialize
	// every call into it.
	mu sync.Mutex
}

var _ API = (*Library)(nil)

// Open loads the vendor library. An empty path means DefaultDLLName. When the
// bare name cannot be resolved through the normal search order, the directory
// of the running executable is tried as well, since BIOPAC installs commonly
// drop mpdev.dll next to the application.
func Open(path string) (*Library, error) {
	if path == "" {
		path = DefaultDLLName
	}
	dll, err := windows.LoadDLL(path)
	if err != nil && !filepath.IsAbs(path) {
		if exe, eerr := os.Executable(); eerr == nil {
			dll, err = windows.LoadDLL(filepath.Join(filepath.Dir(exe), path))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	lib := &Library{dll: dll}
	for _, p := range []struct {
		name string
		proc **windows.Proc
	}{
		{"connectMPDev", &lib.procConnect},
		{"setSampleRate", &lib.procSampleRate},
		{"setAcqChannels", &lib.procAcqChannels},
		{"startAcquisition", &lib.procStartAcq},
		{"stopAcquisition", &lib.procStopAcq},
		{"getMostRecentSample", &lib.procMostRecent},
		{"disconnectMPDev", &lib.procDisconnect},
	} {
		proc, err := dll.FindProc(p.name)
		if err != nil {
			dll.Release()
			return nil, fmt.Errorf("resolve %s: %w", p.name, err)
		}
		*p.proc = proc
	}
	return lib, nil
}

// Release unloads the vendor library. Call Disconnect first.
func (l *Library) Release() error {
	return l.dll.Release()
}

// call invokes a vendor procedure and maps its returncode. The error value
// from Proc.Call is the thread errno and is meaningless here; only the
// returncode tells whether the call worked.
func (l *Library) call(name string, proc *windows.Proc, args ...uintptr) error {
	l.mu.Lock()
	r1, _, _ := proc.Call(args...)
	l.mu.Unlock()
	if rc := Returncode(r1); !rc.Success() {
		return vendorError(name, rc)
	}
	return nil
}

func (l *Library) Connect(dev DeviceType, method ComMethod, serial string) error {
	sp, err := windows.BytePtrFromString(serial)
	if err != nil {
		return fmt.Errorf("connectMPDev: serial: %w", err)
	}
	return l.call("connectMPDev", l.procConnect,
		uintptr(dev), uintptr(method), uintptr(unsafe.Pointer(sp)))
}

// SetSampleRate passes the period as a C double. The windows/amd64 runtime
// mirrors the first four call arguments into the XMM registers, so the bit
// pattern lands where the vendor ABI expects a floating argument.
func (l *Library) SetSampleRate(periodMS float64) error {
	return l.call("setSampleRate", l.procSampleRate, uintptr(math.Float64bits(periodMS)))
}

func (l *Library) SetAcqChannels(active [MaxChannels]bool) error {
	mask := channelMask(active)
	return l.call("setAcqChannels", l.procAcqChannels, uintptr(unsafe.Pointer(&mask[0])))
}

func (l *Library) StartAcquisition() error {
	return l.call("startAcquisition", l.procStartAcq)
}

func (l *Library) StopAcquisition() error {
	return l.call("stopAcquisition", l.procStopAcq)
}

func (l *Library) MostRecentSample(buf []float64) error {
	if len(buf) == 0 {
		return fmt.Errorf("getMostRecentSample: empty sample buffer")
	}
	return l.call("getMostRecentSample", l.procMostRecent, uintptr(unsafe.Pointer(&buf[0])))
}

func (l *Library) Disconnect() error {
	return l.call("disconnectMPDev", l.procDisconnect)
}
