//go:build windows
// +build windows

package store

import "os"

// advisory locks are not available, the in-process mutex still applies

func lockFile(*os.File, bool) error { return nil }

func unlockFile(*os.File) error { return nil }
