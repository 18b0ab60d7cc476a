package cache

import "os"

// Modes are the permissions used for cache directories and files.
type Modes struct {
	Dir  os.FileMode
	File os.FileMode
}

// DefaultModes only grant access to the owner.
var DefaultModes = Modes{Dir: 0700, File: 0600}

// DeriveModesFromFileInfo extends DefaultModes with group access if the
// directory described by fi is readable by the group.
func DeriveModesFromFileInfo(fi os.FileInfo, err error) Modes {
	m := DefaultModes
	if err != nil {
		return m
	}

	if fi.Mode()&0040 != 0 { // Group has read access
		m.Dir |= 0070
		m.File |= 0060
	}

	return m
}
