package tokencache

import (
	"strings"

	"github.com/lstoll/ghappauth"
)

// recordFields is the number of fields in an encoded record.
const recordFields = 6

// EncodeRecord serializes the token in to the format stored in the cache:
//
//	token|createdAt|expiresAt|repositorySelection|permissions|singleFileName
//
// If omitPermissions is set the permissions field is left empty, and the
// permissions must be supplied again at decode time. No field may contain a |.
func EncodeRecord(tok *ghappauth.InstallationToken, omitPermissions bool) string {
	var perms string
	if !omitPermissions {
		perms = formatPermissions(tok.Permissions, isWrite)
	}

	return strings.Join([]string{
		tok.Token,
		tok.CreatedAt,
		tok.ExpiresAt,
		string(tok.RepositorySelection),
		perms,
		tok.SingleFileName,
	}, fieldSep)
}

// DecodeRecord parses a value written by EncodeRecord. If requested is non-empty
// it is used as the token's permissions, otherwise they are parsed from the
// record. Values are not validated, a malformed raw string results in a
// partially populated token.
func DecodeRecord(raw string, requested ghappauth.Permissions) *ghappauth.InstallationToken {
	f := make([]string, recordFields)
	copy(f, strings.Split(raw, fieldSep))

	perms := requested.Clone()
	if len(requested) == 0 {
		perms = parsePermissions(f[4])
	}

	return &ghappauth.InstallationToken{
		Token:               f[0],
		CreatedAt:           f[1],
		ExpiresAt:           f[2],
		RepositorySelection: ghappauth.RepositorySelection(f[3]),
		Permissions:         perms,
		SingleFileName:      f[5],
	}
}
