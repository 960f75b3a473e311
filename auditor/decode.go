package auditor

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// userAccountControl bits, per the MS-SAMR wire encoding. TEMP_DUPLICATE_ACCOUNT
// and INTERDOMAIN_TRUST_ACCOUNT share 0x800 upstream; the duplication is part of
// the external format and is kept as-is.
const (
	UACAccountDisable             uint32 = 0x2
	UACLockout                    uint32 = 0x10
	UACPasswdCantChange           uint32 = 0x40
	UACNormalAccount              uint32 = 0x200
	UACTempDuplicateAccount       uint32 = 0x800
	UACInterdomainTrustAccount    uint32 = 0x800
	UACWorkstationTrustAccount    uint32 = 0x1000
	UACServerTrustAccount         uint32 = 0x2000
	UACDontExpirePassword         uint32 = 0x10000
	UACMNSLogonAccount            uint32 = 0x20000
	UACSmartcardRequired          uint32 = 0x40000
	UACTrustedForDelegation       uint32 = 0x80000
	UACNotDelegated               uint32 = 0x100000
	UACUseDESKeyOnly              uint32 = 0x200000
	UACDontRequirePreauth         uint32 = 0x400000
	UACPasswordExpired            uint32 = 0x800000
	UACTrustedToAuthForDelegation uint32 = 0x1000000
	UACPartialSecretsAccount      uint32 = 0x4000000
)

// uacFlagBits is the fixed flag table for the generic bitmask decode. Both
// names sharing 0x800 are present deliberately.
var uacFlagBits = map[string]uint32{
	"ACCOUNTDISABLE":                 UACAccountDisable,
	"LOCKOUT":                        UACLockout,
	"PASSWD_CANT_CHANGE":             UACPasswdCantChange,
	"NORMAL_ACCOUNT":                 UACNormalAccount,
	"TEMP_DUPLICATE_ACCOUNT":         UACTempDuplicateAccount,
	"INTERDOMAIN_TRUST_ACCOUNT":      UACInterdomainTrustAccount,
	"WORKSTATION_TRUST_ACCOUNT":      UACWorkstationTrustAccount,
	"SERVER_TRUST_ACCOUNT":           UACServerTrustAccount,
	"DONT_EXPIRE_PASSWORD":           UACDontExpirePassword,
	"MNS_LOGON_ACCOUNT":              UACMNSLogonAccount,
	"SMARTCARD_REQUIRED":             UACSmartcardRequired,
	"TRUSTED_FOR_DELEGATION":         UACTrustedForDelegation,
	"NOT_DELEGATED":                  UACNotDelegated,
	"USE_DES_KEY_ONLY":               UACUseDESKeyOnly,
	"DONT_REQUIRE_PREAUTH":           UACDontRequirePreauth,
	"PASSWORD_EXPIRED":               UACPasswordExpired,
	"TRUSTED_TO_AUTH_FOR_DELEGATION": UACTrustedToAuthForDelegation,
	"PARTIAL_SECRETS_ACCOUNT":        UACPartialSecretsAccount,
}

// DecodeUserAccountControl expands a raw userAccountControl bitmask into the
// fixed flag-name to boolean mapping. Pure; calling it any number of times on
// the same mask yields the same result.
func DecodeUserAccountControl(mask uint32) map[string]bool {
	flags := make(map[string]bool, len(uacFlagBits))
	for name, bit := range uacFlagBits {
		flags[name] = mask&bit != 0
	}
	return flags
}

const (
	filetimeEpochOffset = 116444736000000000
	filetimeNever       = int64(9223372036854775807)
)

// DecodeFiletime converts a Windows FILETIME (100ns ticks since 1601-01-01
// UTC) into a calendar timestamp. Zero, negative, the "never expires"
// sentinel and values that would overflow all decode to nil.
func DecodeFiletime(v int64) *time.Time {
	if v <= 0 || v == filetimeNever {
		return nil
	}
	ticks := v - filetimeEpochOffset
	if ticks > math.MaxInt64/100 || ticks < math.MinInt64/100 {
		return nil
	}
	t := time.Unix(0, ticks*100).UTC()
	return &t
}

// GroupNameFromDN returns the value of the first RDN when its attribute type
// is CN, otherwise the full DN unchanged.
func GroupNameFromDN(dn string) string {
	first := dn
	if i := strings.Index(dn, ","); i >= 0 {
		first = dn[:i]
	}
	if name, ok := strings.CutPrefix(first, "CN="); ok {
		return name
	}
	return dn
}

// generalizedTimeLayout matches AD whenCreated/whenChanged values.
const generalizedTimeLayout = "20060102150405.0Z"

// DecodeGeneralizedTime parses an LDAP generalized-time string, returning nil
// on malformed input.
func DecodeGeneralizedTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(generalizedTimeLayout, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// DecodeGPOLinks extracts the ordered GPO GUID list from a gPLink blob of the
// form [LDAP://cn={GUID},cn=policies,...;options]... Malformed entries are
// skipped silently.
func DecodeGPOLinks(gplink string) []string {
	var ids []string
	for _, link := range strings.Split(gplink, "]") {
		if !strings.HasPrefix(link, "[LDAP://cn={") {
			continue
		}
		start := strings.Index(link, "{")
		end := strings.Index(link, "}")
		if start < 0 || end <= start+1 {
			continue
		}
		id := link[start+1 : end]
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
