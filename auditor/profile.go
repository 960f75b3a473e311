package auditor

import (
	"strings"
	"time"

	"adaudit/directory"
)

// AccountProfile is the normalized view of one user object. Every field is a
// pure function of the source record; absent or malformed attributes degrade
// to the zero value for that one field without failing the build.
type AccountProfile struct {
	Username          string `json:"username" yaml:"username"`
	DisplayName       string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Email             string `json:"email,omitempty" yaml:"email,omitempty"`
	DistinguishedName string `json:"distinguished_name,omitempty" yaml:"distinguished_name,omitempty"`
	Department        string `json:"department,omitempty" yaml:"department,omitempty"`
	Title             string `json:"title,omitempty" yaml:"title,omitempty"`
	Office            string `json:"office,omitempty" yaml:"office,omitempty"`
	Phone             string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Mobile            string `json:"mobile,omitempty" yaml:"mobile,omitempty"`
	Manager           string `json:"manager,omitempty" yaml:"manager,omitempty"`

	// userAccountControl-derived flags. Field pairs reading the same bit
	// (PasswordNeverExpires/DontExpirePassword, SmartCardRequired/
	// RequireSmartCard, TrustedToAuthForDelegation/AccountIsSensitive,
	// TempDuplicateAccount/InterDomainTrustAccount) mirror the upstream
	// attribute semantics.
	IsEnabled                  bool `json:"enabled" yaml:"enabled"`
	PasswordExpired            bool `json:"password_expired" yaml:"password_expired"`
	AccountLocked              bool `json:"account_locked" yaml:"account_locked"`
	PasswordNeverExpires       bool `json:"password_never_expires" yaml:"password_never_expires"`
	UserCannotChangePassword   bool `json:"user_cannot_change_password" yaml:"user_cannot_change_password"`
	SmartCardRequired          bool `json:"smart_card_required" yaml:"smart_card_required"`
	TrustedForDelegation       bool `json:"trusted_for_delegation" yaml:"trusted_for_delegation"`
	TrustedToAuthForDelegation bool `json:"trusted_to_auth_for_delegation" yaml:"trusted_to_auth_for_delegation"`
	UseDESKeyOnly              bool `json:"use_des_key_only" yaml:"use_des_key_only"`
	DontRequirePreauth         bool `json:"dont_require_preauth" yaml:"dont_require_preauth"`
	NotDelegated               bool `json:"not_delegated" yaml:"not_delegated"`
	RequireSmartCard           bool `json:"require_smart_card" yaml:"require_smart_card"`
	AccountIsSensitive         bool `json:"account_is_sensitive" yaml:"account_is_sensitive"`
	DontExpirePassword         bool `json:"dont_expire_password" yaml:"dont_expire_password"`
	MNSLogonAccount            bool `json:"mns_logon_account" yaml:"mns_logon_account"`
	TempDuplicateAccount       bool `json:"temp_duplicate_account" yaml:"temp_duplicate_account"`
	NormalAccount              bool `json:"normal_account" yaml:"normal_account"`
	InterDomainTrustAccount    bool `json:"inter_domain_trust_account" yaml:"inter_domain_trust_account"`
	WorkstationTrustAccount    bool `json:"workstation_trust_account" yaml:"workstation_trust_account"`
	ServerTrustAccount         bool `json:"server_trust_account" yaml:"server_trust_account"`
	PartialSecretsAccount      bool `json:"partial_secrets_account" yaml:"partial_secrets_account"`

	// Password state
	PasswordLastSet *time.Time `json:"password_last_set,omitempty" yaml:"password_last_set,omitempty"`
	PasswordExpires *time.Time `json:"password_expires,omitempty" yaml:"password_expires,omitempty"`
	PasswordAge     *int       `json:"password_age_days,omitempty" yaml:"password_age_days,omitempty"`

	// Lockout state
	LockoutTime      *time.Time `json:"lockout_time,omitempty" yaml:"lockout_time,omitempty"`
	BadPasswordCount *int       `json:"bad_password_count,omitempty" yaml:"bad_password_count,omitempty"`

	// Logon state
	LastLogon      *time.Time `json:"last_logon,omitempty" yaml:"last_logon,omitempty"`
	LogonCount     *int       `json:"logon_count,omitempty" yaml:"logon_count,omitempty"`
	AccountExpires *time.Time `json:"account_expires,omitempty" yaml:"account_expires,omitempty"`
	Created        *time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	Modified       *time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`

	// Group-derived flags
	GroupMemberships []string `json:"group_memberships,omitempty" yaml:"group_memberships,omitempty"`
	IsAdminAccount   bool     `json:"admin_account" yaml:"admin_account"`
	IsPrivileged     bool     `json:"privileged_account" yaml:"privileged_account"`
	IsServiceAccount bool     `json:"service_account" yaml:"service_account"`

	// Populated by the rule engine
	SecurityIssues    []string `json:"security_issues,omitempty" yaml:"security_issues,omitempty"`
	PasswordCompliant bool     `json:"password_compliant" yaml:"password_compliant"`
	AccountCompliant  bool     `json:"account_compliant" yaml:"account_compliant"`
}

// accountAuditAttributes is the attribute set requested for every account
// audit query.
var accountAuditAttributes = []string{
	"sAMAccountName", "displayName", "mail", "distinguishedName", "lastLogon",
	"accountExpires", "userAccountControl", "department", "title",
	"physicalDeliveryOfficeName", "telephoneNumber", "mobile", "whenCreated",
	"whenChanged", "pwdLastSet", "pwdExpires", "lockoutTime", "badPwdCount",
	"lastLogonTimestamp", "logonCount", "manager", "memberOf",
	"userPrincipalName", "servicePrincipalName",
}

// Group names matched (case-sensitive substring) when deriving the
// privileged and service flags.
var (
	privilegedGroupMarkers = []string{"Administrators", "Domain Admins", "Enterprise Admins", "Schema Admins"}
	serviceGroupMarkers    = []string{"Service", "SPN"}
)

// BuildProfile assembles an AccountProfile from one raw record. It never
// fails: each decode stage is independent, and a bad attribute only leaves
// that field unset.
func BuildProfile(record directory.Record, now time.Time) *AccountProfile {
	profile := &AccountProfile{
		Username:          record.First("sAMAccountName"),
		DisplayName:       record.First("displayName"),
		Email:             record.First("mail"),
		DistinguishedName: record.First("distinguishedName"),
		Department:        record.First("department"),
		Title:             record.First("title"),
		Office:            record.First("physicalDeliveryOfficeName"),
		Phone:             record.First("telephoneNumber"),
		Mobile:            record.First("mobile"),
		Manager:           record.First("manager"),
	}

	applyAccountControl(profile, record)
	applyPasswordState(profile, record, now)
	applyLockoutState(profile, record)
	applyLogonState(profile, record)
	applyGroupMemberships(profile, record)

	return profile
}

func applyAccountControl(profile *AccountProfile, record directory.Record) {
	uac, ok := record.Int("userAccountControl")
	if !ok {
		return
	}
	flags := DecodeUserAccountControl(uint32(uac))

	profile.IsEnabled = !flags["ACCOUNTDISABLE"]
	profile.PasswordExpired = flags["PASSWORD_EXPIRED"]
	profile.AccountLocked = flags["LOCKOUT"]
	profile.PasswordNeverExpires = flags["DONT_EXPIRE_PASSWORD"]
	profile.UserCannotChangePassword = flags["PASSWD_CANT_CHANGE"]
	profile.SmartCardRequired = flags["SMARTCARD_REQUIRED"]
	profile.TrustedForDelegation = flags["TRUSTED_FOR_DELEGATION"]
	profile.TrustedToAuthForDelegation = flags["TRUSTED_TO_AUTH_FOR_DELEGATION"]
	profile.UseDESKeyOnly = flags["USE_DES_KEY_ONLY"]
	profile.DontRequirePreauth = flags["DONT_REQUIRE_PREAUTH"]
	profile.NotDelegated = flags["NOT_DELEGATED"]
	profile.RequireSmartCard = flags["SMARTCARD_REQUIRED"]
	profile.AccountIsSensitive = flags["TRUSTED_TO_AUTH_FOR_DELEGATION"]
	profile.DontExpirePassword = flags["DONT_EXPIRE_PASSWORD"]
	profile.MNSLogonAccount = flags["MNS_LOGON_ACCOUNT"]
	profile.TempDuplicateAccount = flags["TEMP_DUPLICATE_ACCOUNT"]
	profile.NormalAccount = flags["NORMAL_ACCOUNT"]
	profile.InterDomainTrustAccount = flags["INTERDOMAIN_TRUST_ACCOUNT"]
	profile.WorkstationTrustAccount = flags["WORKSTATION_TRUST_ACCOUNT"]
	profile.ServerTrustAccount = flags["SERVER_TRUST_ACCOUNT"]
	profile.PartialSecretsAccount = flags["PARTIAL_SECRETS_ACCOUNT"]
}

func applyPasswordState(profile *AccountProfile, record directory.Record, now time.Time) {
	if v, ok := record.Int64("pwdLastSet"); ok {
		profile.PasswordLastSet = DecodeFiletime(v)
		if profile.PasswordLastSet != nil {
			age := int(now.Sub(*profile.PasswordLastSet).Hours() / 24)
			profile.PasswordAge = &age
		}
	}
	if v, ok := record.Int64("pwdExpires"); ok {
		profile.PasswordExpires = DecodeFiletime(v)
	}
}

func applyLockoutState(profile *AccountProfile, record directory.Record) {
	if v, ok := record.Int64("lockoutTime"); ok {
		profile.LockoutTime = DecodeFiletime(v)
	}
	if v, ok := record.Int("badPwdCount"); ok {
		profile.BadPasswordCount = &v
	}
}

func applyLogonState(profile *AccountProfile, record directory.Record) {
	if v, ok := record.Int64("lastLogon"); ok {
		profile.LastLogon = DecodeFiletime(v)
	}
	if v, ok := record.Int("logonCount"); ok {
		profile.LogonCount = &v
	}
	if v, ok := record.Int64("accountExpires"); ok {
		profile.AccountExpires = DecodeFiletime(v)
	}
	profile.Created = DecodeGeneralizedTime(record.First("whenCreated"))
	profile.Modified = DecodeGeneralizedTime(record.First("whenChanged"))
}

func applyGroupMemberships(profile *AccountProfile, record directory.Record) {
	for _, dn := range record.Values("memberOf") {
		if dn == "" {
			continue
		}
		name := GroupNameFromDN(dn)
		profile.GroupMemberships = append(profile.GroupMemberships, name)

		for _, marker := range privilegedGroupMarkers {
			if strings.Contains(name, marker) {
				profile.IsAdminAccount = true
				profile.IsPrivileged = true
				break
			}
		}
		for _, marker := range serviceGroupMarkers {
			if strings.Contains(name, marker) {
				profile.IsServiceAccount = true
				break
			}
		}
	}
}
