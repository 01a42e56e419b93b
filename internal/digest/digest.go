// Package digest provides key normalisation and password digests for portal users.
package digest

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// UserKey computes the primary key for a user name.
// Names that differ only in case, surrounding space, or Unicode composition share a key.
func UserKey(name string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(name)))
}

// Password computes the stored digest of a password.
// The user key salts the hash so equal passwords differ across users.
func Password(name, password string) uint64 {
	data := fmt.Sprintf("%s#%s", UserKey(name), password)
	h := sha256.Sum256([]byte(data))
	return binary.BigEndian.Uint64(h[:8])
}
