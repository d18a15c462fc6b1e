package tokencache

import (
	"slices"
	"strings"

	"github.com/lstoll/ghappauth"
)

const (
	// writeMarker is appended to a permission name to mark write access.
	writeMarker = "!"
	listSep     = ","
)

// permissionRule decides whether a permission is written with the write marker.
type permissionRule func(ghappauth.Access) bool

// notRead marks anything that isn't read access. Used for cache keys.
func notRead(a ghappauth.Access) bool { return a != ghappauth.Read }

// isWrite marks only write access. Used for encoded records.
func isWrite(a ghappauth.Access) bool { return a == ghappauth.Write }

// formatPermissions renders p as a sorted, comma separated list of names. Names
// that match marked get the write marker appended.
func formatPermissions(p ghappauth.Permissions, marked permissionRule) string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	slices.Sort(names)

	for i, name := range names {
		if marked(p[name]) {
			names[i] = name + writeMarker
		}
	}
	return strings.Join(names, listSep)
}

// parsePermissions is the inverse of formatPermissions. A name with the write
// marker is write access, otherwise it is read access.
func parsePermissions(s string) ghappauth.Permissions {
	p := make(ghappauth.Permissions)
	for _, name := range strings.Split(s, listSep) {
		if name == "" {
			continue
		}
		if n, ok := strings.CutSuffix(name, writeMarker); ok {
			p[n] = ghappauth.Write
		} else {
			p[name] = ghappauth.Read
		}
	}
	return p
}
