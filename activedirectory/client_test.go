package activedirectory

import (
	"bytes"
	"testing"

	"github.com/go-ldap/ldap/v3"
)

func TestEncodeUnicodePwd(t *testing.T) {
	// "ab" quoted is "\"ab\"", UTF-16LE
	got := encodeUnicodePwd("ab")
	want := []byte{'"', 0, 'a', 0, 'b', 0, '"', 0}
	if !bytes.Equal(got, want) {
		t.Errorf("encodeUnicodePwd(ab) = %v, want %v", got, want)
	}
}

func TestEntryToRecord(t *testing.T) {
	entry := ldap.NewEntry("CN=Jane Doe,OU=Staff,DC=example,DC=com", map[string][]string{
		"sAMAccountName": {"jdoe"},
		"memberOf":       {"CN=Finance,OU=Groups,DC=example,DC=com"},
	})

	record := entryToRecord(entry)
	if got := record.First("sAMAccountName"); got != "jdoe" {
		t.Errorf("sAMAccountName = %q, want jdoe", got)
	}
	if got := record.First("distinguishedName"); got != "CN=Jane Doe,OU=Staff,DC=example,DC=com" {
		t.Errorf("distinguishedName fallback = %q", got)
	}
}

func TestEntryToRecordKeepsExplicitDN(t *testing.T) {
	entry := ldap.NewEntry("CN=Jane Doe,OU=Staff,DC=example,DC=com", map[string][]string{
		"distinguishedName": {"CN=Jane Doe,OU=Staff,DC=example,DC=com"},
	})
	record := entryToRecord(entry)
	if got := len(record.Values("distinguishedName")); got != 1 {
		t.Errorf("distinguishedName values = %d, want 1", got)
	}
}
