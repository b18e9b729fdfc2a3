package notify

import (
	"context"
	"runtime"

	"github.com/gen2brain/beeep"
)

// BeeepPlatform backs the Platform port with the OS notification daemon via
// beeep. Desktop environments expose no browser-style permission prompt, so
// permission always reads as granted; unsupported platforms report themselves
// through Supported.
//
// beeep exposes no activation callback, so OnActivate is not invoked here —
// navigation on click only works on platforms whose binding provides one.
type BeeepPlatform struct{}

func NewBeeepPlatform(appName string) *BeeepPlatform {
	if appName != "" {
		beeep.AppName = appName
	}
	return &BeeepPlatform{}
}

func (*BeeepPlatform) Supported() bool {
	switch runtime.GOOS {
	case "linux", "windows", "darwin", "freebsd", "netbsd", "openbsd":
		return true
	default:
		return false
	}
}

func (*BeeepPlatform) Permission() Permission {
	return PermissionGranted
}

func (*BeeepPlatform) RequestPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

func (*BeeepPlatform) Show(n DesktopNotification) error {
	return beeep.Notify(n.Title, n.Body, n.Icon)
}
