package auditor

import (
	"fmt"
	"time"

	"adaudit/activedirectory/ldaphelpers"
	"adaudit/directory"
)

// Auditor is the audit engine facade. It only ever reads from the directory;
// every produced entity is immutable once returned.
type Auditor struct {
	dir directory.Directory
	now func() time.Time
}

func New(dir directory.Directory) *Auditor {
	return &Auditor{
		dir: dir,
		now: time.Now,
	}
}

// AuditAllAccounts fetches every user object, builds its profile and runs the
// security rules over it. Individual malformed attributes never abort the
// run; only the query itself can fail.
func (a *Auditor) AuditAllAccounts() ([]*AccountProfile, error) {
	records, err := a.dir.Search(ldaphelpers.AllUserObjects, accountAuditAttributes)
	if err != nil {
		return nil, fmt.Errorf("error retrieving users for audit: %w", err)
	}

	now := a.now()
	profiles := make([]*AccountProfile, 0, len(records))
	for _, record := range records {
		profile := BuildProfile(record, now)
		profile.SecurityIssues, profile.PasswordCompliant, profile.AccountCompliant = Evaluate(profile, now)
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// AccountByUsername audits a single account. Returns (nil, nil) when the
// account does not exist.
func (a *Auditor) AccountByUsername(username string) (*AccountProfile, error) {
	filter := ldaphelpers.And(
		ldaphelpers.Eq("objectClass", "user"),
		ldaphelpers.Eq("sAMAccountName", username),
	).String()

	record, err := a.dir.SearchOne(filter, accountAuditAttributes)
	if err != nil {
		return nil, fmt.Errorf("error retrieving user %q: %w", username, err)
	}
	if record == nil {
		return nil, nil
	}

	now := a.now()
	profile := BuildProfile(record, now)
	profile.SecurityIssues, profile.PasswordCompliant, profile.AccountCompliant = Evaluate(profile, now)
	return profile, nil
}

// Summarize reduces profiles into the fixed category counts using the
// auditor's clock.
func (a *Auditor) Summarize(profiles []*AccountProfile) map[string]int {
	return Summarize(profiles, a.now())
}

// Convenience filters over an audited profile list.

func WeakPasswordAccounts(profiles []*AccountProfile) []*AccountProfile {
	return filterProfiles(profiles, func(p *AccountProfile) bool { return !p.PasswordCompliant })
}

func PrivilegedAccounts(profiles []*AccountProfile) []*AccountProfile {
	return filterProfiles(profiles, func(p *AccountProfile) bool { return p.IsPrivileged || p.IsAdminAccount })
}

func LockedAccounts(profiles []*AccountProfile) []*AccountProfile {
	return filterProfiles(profiles, func(p *AccountProfile) bool { return p.AccountLocked })
}

func ServiceAccounts(profiles []*AccountProfile) []*AccountProfile {
	return filterProfiles(profiles, func(p *AccountProfile) bool { return p.IsServiceAccount })
}

// InactiveAccounts returns profiles whose last logon lies strictly more than
// thresholdDays in the past. Accounts that never logged on are not inactive,
// they are reported separately by the rule engine.
func (a *Auditor) InactiveAccounts(profiles []*AccountProfile, thresholdDays int) []*AccountProfile {
	if thresholdDays <= 0 {
		thresholdDays = InactivityThresholdDays
	}
	now := a.now()
	return filterProfiles(profiles, func(p *AccountProfile) bool {
		return inactiveSince(p, thresholdDays, now)
	})
}

func filterProfiles(profiles []*AccountProfile, keep func(*AccountProfile) bool) []*AccountProfile {
	var out []*AccountProfile
	for _, p := range profiles {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
