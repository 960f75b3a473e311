package auditor

import "time"

// Summary category names. Fixed keys, stable across runs.
const (
	SummaryTotalUsers         = "Total Users"
	SummaryWeakPasswords      = "Weak Passwords"
	SummaryPrivilegedAccounts = "Privileged Accounts"
	SummaryLockedAccounts     = "Locked Accounts"
	SummaryDisabledAccounts   = "Disabled Accounts"
	SummaryServiceAccounts    = "Service Accounts"
	SummaryInactiveAccounts   = "Inactive Accounts (>90 days)"
)

// Summarize reduces a profile list into the fixed category counts. Pure; no
// side effects.
func Summarize(profiles []*AccountProfile, now time.Time) map[string]int {
	summary := map[string]int{
		SummaryTotalUsers:         len(profiles),
		SummaryWeakPasswords:      0,
		SummaryPrivilegedAccounts: 0,
		SummaryLockedAccounts:     0,
		SummaryDisabledAccounts:   0,
		SummaryServiceAccounts:    0,
		SummaryInactiveAccounts:   0,
	}

	for _, p := range profiles {
		if !p.PasswordCompliant {
			summary[SummaryWeakPasswords]++
		}
		if p.IsPrivileged {
			summary[SummaryPrivilegedAccounts]++
		}
		if p.AccountLocked {
			summary[SummaryLockedAccounts]++
		}
		if !p.IsEnabled {
			summary[SummaryDisabledAccounts]++
		}
		if p.IsServiceAccount {
			summary[SummaryServiceAccounts]++
		}
		if inactiveSince(p, InactivityThresholdDays, now) {
			summary[SummaryInactiveAccounts]++
		}
	}

	return summary
}

func inactiveSince(p *AccountProfile, thresholdDays int, now time.Time) bool {
	return p.LastLogon != nil && now.Sub(*p.LastLogon) > time.Duration(thresholdDays)*24*time.Hour
}
