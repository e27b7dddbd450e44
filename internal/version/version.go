package version

import "fmt"

const AppName = "vekipad"

// Version is a semantic version number
type Version struct {
	Major int64
	Minor int64
	Patch int64
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

var AppVersion = Version{Major: 0, Minor: 3, Patch: 0}
