//go:build !windows

package probe

import "context"

// platformExeVersion has no version resource API to call off Windows, so it
// goes through the PowerShell host (pwsh) like the Windows fallback does.
func (pr *Prober) platformExeVersion(ctx context.Context, path string) (string, error) {
	return pr.powerShellExeVersion(ctx, path)
}
