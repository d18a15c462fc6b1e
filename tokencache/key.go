package tokencache

import (
	"slices"
	"strconv"
	"strings"

	"github.com/lstoll/ghappauth"
)

const fieldSep = "|"

// Key builds the cache key for a token issued for scope. Permissions and
// repository IDs are normalized, so equivalent scopes map to the same key.
// Repository names are used in the order given.
//
// The key is installationID|repositoryIDs|repositoryNames|permissions, with
// empty fields left out.
func Key(scope ghappauth.Scope) string {
	var installationID string
	if scope.InstallationID != 0 {
		installationID = strconv.FormatInt(scope.InstallationID, 10)
	}

	fields := []string{
		installationID,
		joinIDs(copyAndSortIDs(scope.RepositoryIDs)),
		strings.Join(scope.RepositoryNames, listSep),
		formatPermissions(scope.Permissions, notRead),
	}
	return strings.Join(slices.DeleteFunc(fields, isEmpty), fieldSep)
}

func isEmpty(s string) bool { return s == "" }

// copyAndSortIDs returns a sorted list of IDs without modifying the original
// slice
func copyAndSortIDs(ids []int64) []int64 {
	s := slices.Clone(ids)
	slices.Sort(s)
	return s
}

func joinIDs(ids []int64) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(s, listSep)
}
