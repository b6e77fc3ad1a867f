package browser

import (
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// killProcessTree force-kills the Chrome a Renderer launched, together with
// its helpers. Renderer.shutdown falls back to it when cancelling the
// chromedp contexts does not return within the shutdown grace period, so a
// hung render cannot leave GPU, renderer or crashpad processes behind after
// the scan exits.
func killProcessTree(proc *os.Process) {
	if proc == nil {
		return
	}
	name, args := treeKillCommand(runtime.GOOS, proc.Pid)
	if err := exec.Command(name, args...).Run(); err != nil && runtime.GOOS != "windows" {
		// No group to signal: at least take down the parent.
		_ = proc.Kill()
	}
}

// treeKillCommand returns the command that kills pid and its descendants.
// chromedp starts Chrome with Setpgid, so on Unix the process group ID equals
// the browser PID and a negative PID addresses the whole group.
func treeKillCommand(goos string, pid int) (string, []string) {
	if goos == "windows" {
		return "taskkill", []string{"/F", "/T", "/PID", strconv.Itoa(pid)}
	}
	return "kill", []string{"-9", "--", "-" + strconv.Itoa(pid)}
}
