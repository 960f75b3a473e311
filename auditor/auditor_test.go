package auditor

import (
	"strconv"
	"testing"
	"time"

	"adaudit/activedirectory/ldaphelpers"
	"adaudit/directory"
)

// fakeDirectory answers searches from a canned filter → records map. Filters
// without an entry return no results, which every analyzer must tolerate.
type fakeDirectory struct {
	searches map[string][]directory.Record
	errs     map[string]error
}

func (f *fakeDirectory) Search(filter string, attributes []string) ([]directory.Record, error) {
	if err := f.errs[filter]; err != nil {
		return nil, err
	}
	return f.searches[filter], nil
}

func (f *fakeDirectory) SearchOne(filter string, attributes []string) (directory.Record, error) {
	records, err := f.Search(filter, attributes)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func newTestAuditor(dir directory.Directory) *Auditor {
	a := New(dir)
	a.now = func() time.Time { return testNow }
	return a
}

func uacString(mask uint32) string {
	return strconv.FormatUint(uint64(mask), 10)
}

// three synthetic accounts: clean, disabled+locked+never-expires, and a
// delegated admin
func auditFixture() *fakeDirectory {
	return &fakeDirectory{
		searches: map[string][]directory.Record{
			ldaphelpers.AllUserObjects: {
				{
					"sAMAccountName":     {"alice"},
					"userAccountControl": {uacString(UACNormalAccount)},
					"pwdLastSet":         {filetimeString(daysAgo(10))},
					"lastLogon":          {filetimeString(daysAgo(5))},
					"logonCount":         {"42"},
				},
				{
					"sAMAccountName":     {"bob"},
					"userAccountControl": {uacString(UACNormalAccount | UACAccountDisable | UACLockout | UACDontExpirePassword)},
					"pwdLastSet":         {filetimeString(daysAgo(10))},
					"lastLogon":          {filetimeString(daysAgo(5))},
				},
				{
					"sAMAccountName":     {"carol"},
					"userAccountControl": {uacString(UACNormalAccount | UACTrustedForDelegation)},
					"memberOf":           {"CN=Domain Admins,OU=Groups,DC=example,DC=com"},
					"pwdLastSet":         {filetimeString(daysAgo(10))},
					"lastLogon":          {filetimeString(daysAgo(5))},
				},
			},
		},
	}
}

func TestAuditAllAccountsEndToEnd(t *testing.T) {
	engine := newTestAuditor(auditFixture())

	profiles, err := engine.AuditAllAccounts()
	if err != nil {
		t.Fatalf("AuditAllAccounts: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("got %d profiles, want 3", len(profiles))
	}

	alice, bob, carol := profiles[0], profiles[1], profiles[2]

	if !alice.AccountCompliant || !alice.PasswordCompliant || len(alice.SecurityIssues) != 0 {
		t.Errorf("alice should be clean, got issues %v", alice.SecurityIssues)
	}
	if bob.PasswordCompliant {
		t.Error("bob has a never-expiring password, passwordCompliant must be false")
	}
	if !containsIssue(bob.SecurityIssues, "Account is disabled") || !containsIssue(bob.SecurityIssues, "Account is locked") {
		t.Errorf("bob issues = %v", bob.SecurityIssues)
	}
	if !carol.IsAdminAccount || !carol.IsPrivileged {
		t.Error("carol should be derived as admin/privileged")
	}
	if !containsIssue(carol.SecurityIssues, "User has administrative privileges") ||
		!containsIssue(carol.SecurityIssues, "Account trusted for delegation") {
		t.Errorf("carol issues = %v", carol.SecurityIssues)
	}
}

func TestSummarizeEndToEnd(t *testing.T) {
	engine := newTestAuditor(auditFixture())

	profiles, err := engine.AuditAllAccounts()
	if err != nil {
		t.Fatalf("AuditAllAccounts: %v", err)
	}

	summary := engine.Summarize(profiles)
	want := map[string]int{
		SummaryTotalUsers:         3,
		SummaryWeakPasswords:      1,
		SummaryPrivilegedAccounts: 1,
		SummaryLockedAccounts:     1,
		SummaryDisabledAccounts:   1,
		SummaryServiceAccounts:    0,
		SummaryInactiveAccounts:   0,
	}
	for key, count := range want {
		if summary[key] != count {
			t.Errorf("summary[%s] = %d, want %d", key, summary[key], count)
		}
	}
	if len(summary) != len(want) {
		t.Errorf("summary has %d keys, want %d: %v", len(summary), len(want), summary)
	}
}

func TestConvenienceFilters(t *testing.T) {
	engine := newTestAuditor(auditFixture())
	profiles, err := engine.AuditAllAccounts()
	if err != nil {
		t.Fatalf("AuditAllAccounts: %v", err)
	}

	if got := WeakPasswordAccounts(profiles); len(got) != 1 || got[0].Username != "bob" {
		t.Errorf("WeakPasswordAccounts = %v", usernames(got))
	}
	if got := PrivilegedAccounts(profiles); len(got) != 1 || got[0].Username != "carol" {
		t.Errorf("PrivilegedAccounts = %v", usernames(got))
	}
	if got := LockedAccounts(profiles); len(got) != 1 || got[0].Username != "bob" {
		t.Errorf("LockedAccounts = %v", usernames(got))
	}
	if got := ServiceAccounts(profiles); len(got) != 0 {
		t.Errorf("ServiceAccounts = %v", usernames(got))
	}
	if got := engine.InactiveAccounts(profiles, 90); len(got) != 0 {
		t.Errorf("InactiveAccounts(90) = %v", usernames(got))
	}
	// everyone last logged on 5 days ago
	if got := engine.InactiveAccounts(profiles, 4); len(got) != 3 {
		t.Errorf("InactiveAccounts(4) = %v", usernames(got))
	}
}

func TestAccountByUsername(t *testing.T) {
	fixture := auditFixture()
	filter := ldaphelpers.And(
		ldaphelpers.Eq("objectClass", "user"),
		ldaphelpers.Eq("sAMAccountName", "carol"),
	).String()
	fixture.searches[filter] = fixture.searches[ldaphelpers.AllUserObjects][2:3]

	engine := newTestAuditor(fixture)
	profile, err := engine.AccountByUsername("carol")
	if err != nil {
		t.Fatalf("AccountByUsername: %v", err)
	}
	if profile == nil || profile.Username != "carol" || !profile.IsAdminAccount {
		t.Errorf("profile = %+v", profile)
	}

	missing, err := engine.AccountByUsername("nobody")
	if err != nil {
		t.Fatalf("AccountByUsername(nobody): %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil profile for unknown user, got %+v", missing)
	}
}

func usernames(profiles []*AccountProfile) []string {
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Username
	}
	return names
}
