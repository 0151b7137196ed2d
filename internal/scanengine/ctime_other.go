//go:build !darwin && !linux

package scanengine

import (
	"os"
	"time"
)

func ctime(info os.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
