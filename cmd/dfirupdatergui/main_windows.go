//go:build windows
// +build windows

// cmd/dfirupdatergui/main_windows.go - native status window for the offline tool kit

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"unsafe"

	"github.com/gonutz/w32"
	"golang.org/x/sys/windows"

	"github.com/windowsadmins/dfirupdater/pkg/config"
	"github.com/windowsadmins/dfirupdater/pkg/installer"
	"github.com/windowsadmins/dfirupdater/pkg/logging"
	"github.com/windowsadmins/dfirupdater/pkg/probe"
	"github.com/windowsadmins/dfirupdater/pkg/programs"
	"github.com/windowsadmins/dfirupdater/pkg/status"
)

func init() {
	// The window and its message loop must stay on one OS thread.
	runtime.LockOSThread()
}

// Control IDs
const (
	IDC_PROGRAM_LIST   = 1001
	IDC_UPDATE_BUTTON  = 1002
	IDC_REFRESH_BUTTON = 1003
	IDC_PROGRESS_BAR   = 1004
	IDC_LOG_EDIT       = 1005
	IDC_STATUS_BAR     = 1006
)

// Win32 values not exported by w32.
const (
	LBS_NOTIFY      = 0x0001
	LB_ADDSTRING    = 0x0180
	LB_RESETCONTENT = 0x0184
	LB_SETCURSEL    = 0x0186
	LB_GETCURSEL    = 0x0188

	ES_MULTILINE   = 0x0004
	ES_AUTOVSCROLL = 0x0040
	ES_READONLY    = 0x0800
	EM_SETSEL      = 0x00B1
	EM_REPLACESEL  = 0x00C2

	WS_VSCROLL = 0x00200000
	WS_BORDER  = 0x00800000

	PBS_MARQUEE    = 0x0008
	PBM_SETMARQUEE = 0x040A

	WM_SETICON = 0x0080
	WM_APP     = 0x8000

	IMAGE_ICON      = 1
	LR_LOADFROMFILE = 0x0010
	LR_DEFAULTSIZE  = 0x0040

	MB_ICONERROR       = 0x10
	MB_ICONWARNING     = 0x30
	MB_ICONINFORMATION = 0x40
)

// Messages posted from worker goroutines to the window.
const (
	wmChecked = WM_APP + 1
	wmLog     = WM_APP + 2
	wmUpdated = WM_APP + 3
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	gdi32                   = windows.NewLazySystemDLL("gdi32.dll")
	procLoadImage           = user32.NewProc("LoadImageW")
	procGetWindowTextLength = user32.NewProc("GetWindowTextLengthW")
	procCreateFont          = gdi32.NewProc("CreateFontW")
)

// UpdaterApp holds the window handles and the state shared with workers.
type UpdaterApp struct {
	cfg       *config.Configuration
	prober    *probe.Prober
	installer *installer.Installer
	className string

	hwnd          w32.HWND
	programList   w32.HWND
	updateButton  w32.HWND
	refreshButton w32.HWND
	progressBar   w32.HWND
	logEdit       w32.HWND
	statusBar     w32.HWND

	mu       sync.Mutex
	programs []programs.Program
	results  []status.Result
	pending  []string
	outcome  installer.Outcome
	busy     bool
}

// guiReporter forwards installer progress into the update log.
type guiReporter struct{ app *UpdaterApp }

func (r guiReporter) Message(txt string) {}
func (r guiReporter) Detail(txt string)  { r.app.appendLog(txt) }
func (r guiReporter) Percent(pct int)    {}
func (r guiReporter) Error(err error)    {}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		messageBox(0, fmt.Sprintf("Failed to load configuration: %v", err), MB_ICONERROR)
		cfg = config.GetDefaultConfig()
	}
	if err := logging.Init(cfg, "dfirupdatergui", false); err != nil {
		fmt.Fprintf(os.Stderr, "File logging disabled: %v\n", err)
	}
	defer logging.CloseLogger()

	list, used, err := programs.LoadOrBootstrap(cfg)
	switch {
	case errors.Is(err, programs.ErrTemplateCreated):
		messageBox(0, fmt.Sprintf("Created %s from the template.\n\nEdit it with the installers on this kit and start the updater again.", used), MB_ICONINFORMATION)
		return
	case errors.Is(err, programs.ErrNotFound):
		messageBox(0, fmt.Sprintf("%s was not found and no template is available.\n\nUsing the built-in program list.", used), MB_ICONWARNING)
	case err != nil:
		messageBox(0, fmt.Sprintf("Failed to load %s:\n%v\n\nUsing the built-in program list.", used, err), MB_ICONERROR)
	}

	app := &UpdaterApp{
		cfg:       cfg,
		prober:    probe.New(cfg),
		installer: installer.New(cfg),
		className: "DFIRUpdaterWindow",
		programs:  list,
	}
	if err := app.run(); err != nil {
		logging.Error("Window failed", "error", err)
		messageBox(0, err.Error(), MB_ICONERROR)
	}

	summary := logging.SessionSummary{Checked: len(list)}
	_ = logging.EndSession("gui", "completed", summary)
}

func (app *UpdaterApp) wndProc(hwnd w32.HWND, msg uint32, wParam uintptr, lParam uintptr) uintptr {
	switch msg {
	case w32.WM_CREATE:
		app.createControls(hwnd)

	case w32.WM_COMMAND:
		switch w32.LOWORD(uint32(wParam)) {
		case IDC_UPDATE_BUTTON:
			app.startUpdate()
		case IDC_REFRESH_BUTTON:
			app.startCheck()
		}

	case wmChecked:
		app.showResults()
		app.setBusy(false)
		app.setStatus("Ready")

	case wmLog:
		app.flushLog()

	case wmUpdated:
		app.finishUpdate()

	case w32.WM_CLOSE:
		w32.DestroyWindow(hwnd)

	case w32.WM_DESTROY:
		w32.PostQuitMessage(0)

	default:
		return w32.DefWindowProc(hwnd, msg, wParam, lParam)
	}
	return 0
}

func createFont(face string, height int) uintptr {
	name, _ := syscall.UTF16PtrFromString(face)
	font, _, _ := procCreateFont.Call(
		uintptr(height), 0, 0, 0,
		uintptr(400), // FW_NORMAL
		0, 0, 0,
		uintptr(1), // DEFAULT_CHARSET
		0, 0,
		uintptr(5), // CLEARTYPE_QUALITY
		0,
		uintptr(unsafe.Pointer(name)))
	return font
}

func (app *UpdaterApp) child(hwnd w32.HWND, exStyle uint, class, text string, style uint, x, y, w, h int, id uintptr, font uintptr) w32.HWND {
	hInstance := w32.GetModuleHandle("")
	classPtr, _ := syscall.UTF16PtrFromString(class)
	textPtr, _ := syscall.UTF16PtrFromString(text)
	ctl := w32.CreateWindowEx(exStyle, classPtr, textPtr,
		w32.WS_VISIBLE|w32.WS_CHILD|style,
		x, y, w, h, hwnd, w32.HMENU(id), hInstance, nil)
	w32.SendMessage(ctl, w32.WM_SETFONT, font, 1)
	return ctl
}

// createControls lays out the single screen.
func (app *UpdaterApp) createControls(hwnd w32.HWND) {
	uiFont := createFont("Segoe UI", 18)
	titleFont := createFont("Segoe UI Semibold", 26)
	monoFont := createFont("Consolas", 16)

	app.child(hwnd, 0, "STATIC", "DFIR Software Updater", w32.SS_CENTER, 20, 12, 600, 30, 0, titleFont)
	app.child(hwnd, 0, "STATIC", "Installs and updates the forensic tools on this workstation from the local kit.",
		w32.SS_CENTER, 20, 44, 600, 20, 0, uiFont)

	app.programList = app.child(hwnd, w32.WS_EX_CLIENTEDGE, "LISTBOX", "",
		LBS_NOTIFY|WS_VSCROLL|WS_BORDER, 20, 74, 600, 200, IDC_PROGRAM_LIST, monoFont)

	app.updateButton = app.child(hwnd, 0, "BUTTON", "Update", w32.BS_PUSHBUTTON|w32.WS_DISABLED,
		20, 282, 110, 30, IDC_UPDATE_BUTTON, uiFont)
	app.refreshButton = app.child(hwnd, 0, "BUTTON", "Refresh", w32.BS_PUSHBUTTON|w32.WS_DISABLED,
		140, 282, 110, 30, IDC_REFRESH_BUTTON, uiFont)

	app.progressBar = app.child(hwnd, 0, "msctls_progress32", "", PBS_MARQUEE,
		270, 287, 350, 20, IDC_PROGRESS_BAR, uiFont)
	w32.ShowWindow(app.progressBar, w32.SW_HIDE)

	app.child(hwnd, 0, "STATIC", "Update log", 0, 20, 322, 600, 18, 0, uiFont)
	app.logEdit = app.child(hwnd, w32.WS_EX_CLIENTEDGE, "EDIT", "",
		ES_MULTILINE|ES_READONLY|ES_AUTOVSCROLL|WS_VSCROLL, 20, 342, 600, 150, IDC_LOG_EDIT, monoFont)

	app.statusBar = app.child(hwnd, 0, "STATIC", "Ready", 0, 20, 502, 600, 20, IDC_STATUS_BAR, uiFont)
}

func (app *UpdaterApp) setStatus(text string) {
	w32.SetWindowText(app.statusBar, text)
}

func (app *UpdaterApp) setBusy(busy bool) {
	app.mu.Lock()
	app.busy = busy
	app.mu.Unlock()

	w32.EnableWindow(app.updateButton, !busy)
	w32.EnableWindow(app.refreshButton, !busy)
	if busy {
		w32.ShowWindow(app.progressBar, w32.SW_SHOW)
		w32.SendMessage(app.progressBar, PBM_SETMARQUEE, 1, 30)
	} else {
		w32.SendMessage(app.progressBar, PBM_SETMARQUEE, 0, 0)
		w32.ShowWindow(app.progressBar, w32.SW_HIDE)
	}
}

// startCheck probes every program on a worker; probes can take seconds each.
func (app *UpdaterApp) startCheck() {
	app.setBusy(true)
	app.setStatus("Checking installed versions...")

	app.mu.Lock()
	list := append([]programs.Program(nil), app.programs...)
	app.mu.Unlock()

	go func() {
		results := status.CheckAll(context.Background(), app.prober, list)
		app.mu.Lock()
		app.results = results
		app.mu.Unlock()
		w32.PostMessage(app.hwnd, wmChecked, 0, 0)
	}()
}

func rowText(r status.Result) string {
	return fmt.Sprintf("%-24s %-17s %s", r.Name, r.State, r.VersionLine)
}

func (app *UpdaterApp) showResults() {
	app.mu.Lock()
	rows := make([]string, len(app.results))
	for i, r := range app.results {
		rows[i] = rowText(r)
	}
	app.mu.Unlock()

	selected := int(int32(w32.SendMessage(app.programList, LB_GETCURSEL, 0, 0)))
	w32.SendMessage(app.programList, LB_RESETCONTENT, 0, 0)
	for _, row := range rows {
		p, _ := syscall.UTF16PtrFromString(row)
		w32.SendMessage(app.programList, LB_ADDSTRING, 0, uintptr(unsafe.Pointer(p)))
	}
	if selected >= 0 && selected < len(rows) {
		w32.SendMessage(app.programList, LB_SETCURSEL, uintptr(selected), 0)
	}
}

func (app *UpdaterApp) startUpdate() {
	index := int(int32(w32.SendMessage(app.programList, LB_GETCURSEL, 0, 0)))

	app.mu.Lock()
	if app.busy {
		app.mu.Unlock()
		return
	}
	if index < 0 || index >= len(app.programs) {
		app.mu.Unlock()
		app.setStatus("Select a program to update")
		return
	}
	p := app.programs[index]
	app.mu.Unlock()

	app.setBusy(true)
	app.setStatus(fmt.Sprintf("Updating %s...", p.Name))
	app.appendLog(fmt.Sprintf("Starting update for %s...", p.Name))

	go func() {
		out := app.installer.Update(context.Background(), p, guiReporter{app})
		r := status.Evaluate(context.Background(), app.prober, p)
		if out.Success {
			r.State = status.Installed
		} else {
			r.State = status.Failed
		}

		app.mu.Lock()
		app.outcome = out
		if index < len(app.results) {
			app.results[index] = r
		}
		app.mu.Unlock()
		w32.PostMessage(app.hwnd, wmUpdated, 0, 0)
	}()
}

func (app *UpdaterApp) finishUpdate() {
	app.mu.Lock()
	out := app.outcome
	app.mu.Unlock()

	app.showResults()
	app.setBusy(false)
	app.appendLog(out.Message)
	app.setStatus(out.Message)
	if out.Success {
		messageBox(app.hwnd, out.Message, MB_ICONINFORMATION)
	}
}

// appendLog queues a line for the log box; safe from any goroutine.
func (app *UpdaterApp) appendLog(line string) {
	app.mu.Lock()
	app.pending = append(app.pending, line)
	app.mu.Unlock()
	w32.PostMessage(app.hwnd, wmLog, 0, 0)
}

func (app *UpdaterApp) flushLog() {
	app.mu.Lock()
	lines := app.pending
	app.pending = nil
	app.mu.Unlock()
	if len(lines) == 0 {
		return
	}

	text := strings.Join(lines, "\r\n") + "\r\n"
	end, _, _ := procGetWindowTextLength.Call(uintptr(app.logEdit))
	w32.SendMessage(app.logEdit, EM_SETSEL, end, end)
	p, _ := syscall.UTF16PtrFromString(text)
	w32.SendMessage(app.logEdit, EM_REPLACESEL, 0, uintptr(unsafe.Pointer(p)))
}

// loadIcon reads assets/icon.ico next to the executable or in the working directory.
func loadIcon() w32.HICON {
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "assets", "icon.ico"))
	}
	candidates = append(candidates, filepath.Join("assets", "icon.ico"))

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		pathPtr, _ := syscall.UTF16PtrFromString(path)
		h, _, _ := procLoadImage.Call(0, uintptr(unsafe.Pointer(pathPtr)), IMAGE_ICON, 0, 0, LR_LOADFROMFILE|LR_DEFAULTSIZE)
		if h != 0 {
			return w32.HICON(h)
		}
		logging.Warn("Failed to load icon", "path", path)
	}
	return 0
}

func (app *UpdaterApp) run() error {
	hInstance := w32.GetModuleHandle("")

	var wc w32.WNDCLASSEX
	wc.Size = uint32(unsafe.Sizeof(wc))
	wc.Style = w32.CS_HREDRAW | w32.CS_VREDRAW
	wc.WndProc = syscall.NewCallback(func(hwnd w32.HWND, msg uint32, wParam uintptr, lParam uintptr) uintptr {
		return app.wndProc(hwnd, msg, wParam, lParam)
	})
	wc.Instance = hInstance
	wc.Cursor = w32.LoadCursor(0, w32.MakeIntResource(w32.IDC_ARROW))
	wc.Background = w32.HBRUSH(w32.COLOR_BTNFACE + 1)
	className, _ := syscall.UTF16PtrFromString(app.className)
	wc.ClassName = className

	if icon := loadIcon(); icon != 0 {
		wc.Icon = icon
		wc.IconSm = icon
	} else {
		wc.Icon = w32.LoadIcon(0, w32.MakeIntResource(w32.IDI_APPLICATION))
		wc.IconSm = wc.Icon
	}

	if w32.RegisterClassEx(&wc) == 0 {
		return fmt.Errorf("failed to register window class")
	}
	titlePtr, _ := syscall.UTF16PtrFromString("DFIR Software Updater")
	app.hwnd = w32.CreateWindowEx(
		w32.WS_EX_APPWINDOW,
		className,
		titlePtr,
		w32.WS_OVERLAPPED|w32.WS_CAPTION|w32.WS_SYSMENU|w32.WS_MINIMIZEBOX,
		w32.CW_USEDEFAULT, w32.CW_USEDEFAULT, 660, 570,
		0, 0, hInstance, nil)
	if app.hwnd == 0 {
		return fmt.Errorf("failed to create window")
	}

	w32.ShowWindow(app.hwnd, w32.SW_SHOW)
	w32.UpdateWindow(app.hwnd)
	app.startCheck()

	var msg w32.MSG
	for {
		bRet := w32.GetMessage(&msg, 0, 0, 0)
		if bRet == 0 || bRet == -1 {
			break
		}
		w32.TranslateMessage(&msg)
		w32.DispatchMessage(&msg)
	}
	return nil
}

func messageBox(hwnd w32.HWND, text string, flags uint32) {
	textPtr, _ := syscall.UTF16PtrFromString(text)
	captionPtr, _ := syscall.UTF16PtrFromString("DFIR Software Updater")
	windows.MessageBox(windows.HWND(hwnd), textPtr, captionPtr, flags)
}
