package auditor

import (
	"fmt"
	"time"
)

// Classification thresholds. These define the compliance boundaries: strictly
// greater triggers the rule in every case.
const (
	MaxPasswordAgeDays      = 90
	MaxBadPasswordAttempts  = 5
	InactivityThresholdDays = 90
)

// Evaluate applies the fixed security rule table to a profile. Rules run in a
// fixed order and each appends at most one issue; the order matters only for
// report readability. accountCompliant is true iff no rule fired.
func Evaluate(profile *AccountProfile, now time.Time) (issues []string, passwordCompliant, accountCompliant bool) {
	passwordCompliant = true

	if profile.PasswordNeverExpires {
		issues = append(issues, "Password never expires")
		passwordCompliant = false
	}
	if profile.PasswordAge != nil && *profile.PasswordAge > MaxPasswordAgeDays {
		issues = append(issues, fmt.Sprintf("Password age: %d days (should be < %d)", *profile.PasswordAge, MaxPasswordAgeDays))
		passwordCompliant = false
	}
	if profile.PasswordExpired {
		issues = append(issues, "Password is expired")
		passwordCompliant = false
	}

	if !profile.IsEnabled {
		issues = append(issues, "Account is disabled")
	}
	if profile.AccountLocked {
		issues = append(issues, "Account is locked")
	}
	if profile.BadPasswordCount != nil && *profile.BadPasswordCount > MaxBadPasswordAttempts {
		issues = append(issues, fmt.Sprintf("Multiple failed logon attempts: %d", *profile.BadPasswordCount))
	}

	if profile.IsAdminAccount {
		issues = append(issues, "User has administrative privileges")
	}
	if profile.IsServiceAccount {
		issues = append(issues, "Service account detected")
	}

	if profile.TrustedForDelegation {
		issues = append(issues, "Account trusted for delegation")
	}
	if profile.TrustedToAuthForDelegation {
		issues = append(issues, "Account trusted to authenticate for delegation")
	}

	// SmartCardRequired and RequireSmartCard decode from the same UAC bit, so
	// this rule can never fire. The upstream behavior is preserved on purpose;
	// see DESIGN.md.
	if profile.SmartCardRequired && !profile.RequireSmartCard {
		issues = append(issues, "Smart card required but not enforced")
	}

	if profile.LastLogon != nil {
		if since := now.Sub(*profile.LastLogon); since > InactivityThresholdDays*24*time.Hour {
			issues = append(issues, fmt.Sprintf("Inactive account: %d days since last logon", int(since.Hours()/24)))
		}
	} else {
		issues = append(issues, "Never logged on")
	}

	return issues, passwordCompliant, len(issues) == 0
}
