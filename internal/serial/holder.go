package serial

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/process"
)

// Holder is a process that has a serial device open.
type Holder struct {
	PID  int32
	Name string
}

func (h Holder) String() string {
	return fmt.Sprintf("%s (pid %d)", h.Name, h.PID)
}

// FindHolder looks for a process with the device open. It is best effort: processes
// owned by other users are usually not inspectable.
func FindHolder(ctx context.Context, device string) (Holder, bool) {
	target := device
	if resolved, err := filepath.EvalSymlinks(device); err == nil {
		target = resolved
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return Holder{}, false
	}
	for _, p := range procs {
		if ctx.Err() != nil {
			return Holder{}, false
		}
		files, err := p.OpenFilesWithContext(ctx)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.Path != target && f.Path != device {
				continue
			}
			name, err := p.NameWithContext(ctx)
			if err != nil {
				name = "unknown"
			}
			return Holder{PID: p.Pid, Name: name}, true
		}
	}
	return Holder{}, false
}
