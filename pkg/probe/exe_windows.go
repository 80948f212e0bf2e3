//go:build windows

package probe

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/windowsadmins/dfirupdater/pkg/logging"
)

var (
	versionDLL                  = windows.NewLazySystemDLL("version.dll")
	procGetFileVersionInfoSizeW = versionDLL.NewProc("GetFileVersionInfoSizeW")
	procGetFileVersionInfoW     = versionDLL.NewProc("GetFileVersionInfoW")
	procVerQueryValueW          = versionDLL.NewProc("VerQueryValueW")
)

type vsFixedFileInfo struct {
	Signature        uint32
	StrucVersion     uint32
	FileVersionMS    uint32
	FileVersionLS    uint32
	ProductVersionMS uint32
	ProductVersionLS uint32
	FileFlagsMask    uint32
	FileFlags        uint32
	FileOS           uint32
	FileType         uint32
	FileSubtype      uint32
	FileDateMS       uint32
	FileDateLS       uint32
}

// platformExeVersion reads the ProductVersion string from the version
// resource, the same field Explorer shows, falling back to the fixed product
// version and finally to PowerShell.
func (pr *Prober) platformExeVersion(ctx context.Context, path string) (string, error) {
	info, err := fileVersionInfo(path)
	if err != nil {
		logging.Debug("version.dll lookup failed, asking PowerShell", "path", path, "error", err)
		return pr.powerShellExeVersion(ctx, path)
	}
	if v := productVersionString(info); v != "" {
		return v, nil
	}
	return fixedProductVersion(info)
}

func fileVersionInfo(path string) ([]byte, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	r0, _, e1 := procGetFileVersionInfoSizeW.Call(uintptr(unsafe.Pointer(p)), 0)
	size := uint32(r0)
	if size == 0 {
		return nil, fmt.Errorf("GetFileVersionInfoSizeW failed for %s: %v", path, e1)
	}

	info := make([]byte, size)
	r0, _, e1 = procGetFileVersionInfoW.Call(
		uintptr(unsafe.Pointer(p)),
		0,
		uintptr(size),
		uintptr(unsafe.Pointer(&info[0])))
	if r0 == 0 {
		return nil, fmt.Errorf("GetFileVersionInfoW failed for %s: %v", path, e1)
	}
	return info, nil
}

func verQueryValue(block []byte, subBlock string) (unsafe.Pointer, uint32, bool) {
	pSubBlock, err := windows.UTF16PtrFromString(subBlock)
	if err != nil {
		return nil, 0, false
	}
	var buf unsafe.Pointer
	var size uint32
	r0, _, _ := procVerQueryValueW.Call(
		uintptr(unsafe.Pointer(&block[0])),
		uintptr(unsafe.Pointer(pSubBlock)),
		uintptr(unsafe.Pointer(&buf)),
		uintptr(unsafe.Pointer(&size)))
	if r0 == 0 || size == 0 {
		return nil, 0, false
	}
	return buf, size, true
}

// productVersionString looks up StringFileInfo\<lang><codepage>\ProductVersion
// for the first translation the resource declares.
func productVersionString(info []byte) string {
	ptr, size, ok := verQueryValue(info, `\VarFileInfo\Translation`)
	if !ok || size < 4 {
		return ""
	}
	lang := *(*uint16)(ptr)
	codepage := *(*uint16)(unsafe.Add(ptr, 2))

	sub := fmt.Sprintf(`\StringFileInfo\%04x%04x\ProductVersion`, lang, codepage)
	strPtr, strLen, ok := verQueryValue(info, sub)
	if !ok {
		return ""
	}
	chars := unsafe.Slice((*uint16)(strPtr), strLen)
	return windows.UTF16ToString(chars)
}

func fixedProductVersion(info []byte) (string, error) {
	ptr, size, ok := verQueryValue(info, `\`)
	if !ok || size == 0 {
		return "", fmt.Errorf("no fixed file info")
	}
	fixed := (*vsFixedFileInfo)(ptr)
	return fmt.Sprintf("%d.%d.%d.%d",
		fixed.ProductVersionMS>>16,
		fixed.ProductVersionMS&0xffff,
		fixed.ProductVersionLS>>16,
		fixed.ProductVersionLS&0xffff), nil
}
