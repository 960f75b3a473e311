package auditor

import (
	"fmt"
	"strconv"
	"time"

	"adaudit/activedirectory/ldaphelpers"
)

// RiskLevel is the per-category rating. Not a numeric score.
type RiskLevel string

const (
	RiskLow     RiskLevel = "Low"
	RiskMedium  RiskLevel = "Medium"
	RiskHigh    RiskLevel = "High"
	RiskUnknown RiskLevel = "Unknown"
)

// Category names the thirteen audit areas. The analyzer table below is the
// closed set; adding a category means adding a table entry.
type Category string

const (
	CategoryDomainTrusts       Category = "Domain Trusts"
	CategoryPrivilegedGroups   Category = "Privileged Groups"
	CategoryPasswordPolicies   Category = "Password Policies"
	CategoryKerberosDelegation Category = "Kerberos Delegation"
	CategoryAdminSDHolder      Category = "AdminSDHolder"
	CategoryDangerousRights    Category = "Dangerous Rights"
	CategoryDomainControllers  Category = "Domain Controllers"
	CategoryLocalAdminReuse    Category = "Local Admin Reuse"
	CategoryDNSConfiguration   Category = "DNS Configuration"
	CategoryStaleObjects       Category = "Stale Objects"
	CategoryGPORisks           Category = "GPO Risks"
	CategoryLDAPSecurity       Category = "LDAP Security"
	CategorySMBNTLMConfig      Category = "SMB/NTLM Config"
)

// CategoryResult is the uniform per-category outcome. Err is set when the
// underlying query failed; the rest of the audit still completes.
type CategoryResult struct {
	Count     int               `json:"count" yaml:"count"`
	RiskLevel RiskLevel         `json:"risk_level" yaml:"risk_level"`
	Issues    []string          `json:"issues,omitempty" yaml:"issues,omitempty"`
	Extra     map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
	Err       string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// PrivilegedGroupNames are the groups inspected by the membership analyzer.
var PrivilegedGroupNames = []string{
	"Domain Admins", "Enterprise Admins", "Schema Admins", "Account Operators",
	"Server Operators", "Print Operators", "Backup Operators",
}

const (
	minRecommendedPasswordLength  = 12
	minRecommendedPasswordHistory = 24
	privilegedGroupMemberLimit    = 5
	staleObjectLimit              = 10
	gpoStalenessDays              = 365
	staleGPOLimit                 = 5
	minDomainFunctionalLevel      = 3
)

var categoryAnalyzers = []struct {
	Category Category
	Run      func(a *Auditor) (CategoryResult, error)
}{
	{CategoryDomainTrusts, (*Auditor).analyzeDomainTrusts},
	{CategoryPrivilegedGroups, (*Auditor).analyzePrivilegedGroups},
	{CategoryPasswordPolicies, (*Auditor).analyzePasswordPolicies},
	{CategoryKerberosDelegation, (*Auditor).analyzeKerberosDelegation},
	{CategoryAdminSDHolder, (*Auditor).analyzeAdminSDHolder},
	{CategoryDangerousRights, (*Auditor).analyzeDangerousRights},
	{CategoryDomainControllers, (*Auditor).analyzeDomainControllers},
	{CategoryLocalAdminReuse, (*Auditor).analyzeLocalAdminReuse},
	{CategoryDNSConfiguration, (*Auditor).analyzeDNSConfiguration},
	{CategoryStaleObjects, (*Auditor).analyzeStaleObjects},
	{CategoryGPORisks, (*Auditor).analyzeGPORisks},
	{CategoryLDAPSecurity, (*Auditor).analyzeLDAPSecurity},
	{CategorySMBNTLMConfig, (*Auditor).analyzeSMBNTLMConfig},
}

// RunComprehensiveAudit runs all thirteen analyzers unconditionally and
// returns one report keyed by category. A failing analyzer contributes an
// error entry for its category only; the orchestrator itself never fails.
func (a *Auditor) RunComprehensiveAudit() map[Category]CategoryResult {
	report := make(map[Category]CategoryResult, len(categoryAnalyzers))
	for _, entry := range categoryAnalyzers {
		result, err := entry.Run(a)
		if err != nil {
			result = CategoryResult{RiskLevel: RiskUnknown, Err: err.Error()}
		}
		report[entry.Category] = result
	}
	return report
}

func (a *Auditor) analyzeDomainTrusts() (CategoryResult, error) {
	records, err := a.dir.Search(ldaphelpers.AllTrustedDomains,
		[]string{"trustDirection", "trustType", "trustAttributes", "flatName", "name"})
	if err != nil {
		return CategoryResult{}, err
	}

	result := CategoryResult{Count: len(records)}
	for _, trust := range records {
		name := trust.First("name")
		if trust.First("trustDirection") == "3" {
			result.Issues = append(result.Issues, fmt.Sprintf("Bidirectional trust with %s - potential security risk", name))
		}
		if trust.First("trustType") == "2" {
			result.Issues = append(result.Issues, fmt.Sprintf("External trust with %s - review for necessity", name))
		}
	}

	result.RiskLevel = RiskLow
	if len(result.Issues) > 0 {
		result.RiskLevel = RiskHigh
	}
	return result, nil
}

func (a *Auditor) analyzePrivilegedGroups() (CategoryResult, error) {
	result := CategoryResult{
		RiskLevel: RiskMedium,
		Extra:     make(map[string]string, len(PrivilegedGroupNames)),
	}

	for _, groupName := range PrivilegedGroupNames {
		filter := ldaphelpers.And(
			ldaphelpers.Eq("objectClass", "group"),
			ldaphelpers.Eq("cn", groupName),
		).String()

		group, err := a.dir.SearchOne(filter, []string{"member", "memberOf"})
		if err != nil {
			return CategoryResult{}, err
		}
		if group == nil {
			continue
		}

		members := len(group.Values("member"))
		result.Count += members
		result.Extra[groupName] = strconv.Itoa(members)
		if members > privilegedGroupMemberLimit {
			result.Issues = append(result.Issues, fmt.Sprintf("High membership count in %s: %d", groupName, members))
		}
	}

	return result, nil
}

func (a *Auditor) analyzePasswordPolicies() (CategoryResult, error) {
	domain, err := a.dir.SearchOne(ldaphelpers.DomainRoot,
		[]string{"minPwdLength", "pwdHistoryLength", "pwdComplexity", "lockoutThreshold", "lockoutDuration", "pwdMaxAge"})
	if err != nil {
		return CategoryResult{}, err
	}
	if domain == nil {
		return CategoryResult{RiskLevel: RiskUnknown}, nil
	}

	result := CategoryResult{
		Extra: map[string]string{
			"Min Password Length": domain.First("minPwdLength"),
			"Password History":    domain.First("pwdHistoryLength"),
			"Complexity Enabled":  domain.First("pwdComplexity"),
			"Lockout Threshold":   domain.First("lockoutThreshold"),
			"Max Password Age":    domain.First("pwdMaxAge"),
		},
	}

	if minLen, ok := domain.Int("minPwdLength"); ok && minLen < minRecommendedPasswordLength {
		result.Issues = append(result.Issues, fmt.Sprintf("Password length below recommended (%d characters)", minRecommendedPasswordLength))
	}
	if histLen, ok := domain.Int("pwdHistoryLength"); ok && histLen < minRecommendedPasswordHistory {
		result.Issues = append(result.Issues, fmt.Sprintf("Password history below recommended (%d passwords)", minRecommendedPasswordHistory))
	}
	if domain.First("pwdComplexity") != "1" {
		result.Issues = append(result.Issues, "Password complexity not enforced")
	}

	result.RiskLevel = RiskLow
	if len(result.Issues) > 0 {
		result.RiskLevel = RiskMedium
	}
	return result, nil
}

func delegatedAccountsFilter() string {
	return ldaphelpers.And(
		ldaphelpers.Eq("objectClass", "user"),
		ldaphelpers.BitAnd("userAccountControl", UACTrustedForDelegation),
	).String()
}

func (a *Auditor) analyzeKerberosDelegation() (CategoryResult, error) {
	records, err := a.dir.Search(delegatedAccountsFilter(),
		[]string{"sAMAccountName", "displayName", "userAccountControl", "servicePrincipalName"})
	if err != nil {
		return CategoryResult{}, err
	}

	result := CategoryResult{Count: len(records)}
	for _, account := range records {
		username := account.First("sAMAccountName")
		displayName := account.First("displayName")
		if account.Has("servicePrincipalName") {
			result.Issues = append(result.Issues, fmt.Sprintf("Account %s (%s) has SPN and delegation enabled", username, displayName))
		} else {
			result.Issues = append(result.Issues, fmt.Sprintf("Account %s (%s) has delegation enabled without SPN", username, displayName))
		}
	}

	result.RiskLevel = RiskLow
	if len(result.Issues) > 0 {
		result.RiskLevel = RiskHigh
	}
	return result, nil
}

func (a *Auditor) analyzeAdminSDHolder() (CategoryResult, error) {
	records, err := a.dir.Search(ldaphelpers.AllContainers, []string{"cn", "distinguishedName"})
	if err != nil {
		return CategoryResult{}, err
	}

	for _, container := range records {
		if container.First("cn") == "AdminSDHolder" {
			return CategoryResult{
				Count:     1,
				RiskLevel: RiskMedium,
				Extra:     map[string]string{"Note": "AdminSDHolder container exists - review inheritance settings"},
			}, nil
		}
	}
	return CategoryResult{RiskLevel: RiskLow}, nil
}

func (a *Auditor) analyzeDangerousRights() (CategoryResult, error) {
	records, err := a.dir.Search(delegatedAccountsFilter(), []string{"sAMAccountName", "displayName"})
	if err != nil {
		return CategoryResult{}, err
	}

	result := CategoryResult{Count: len(records)}
	for _, account := range records {
		result.Issues = append(result.Issues, fmt.Sprintf("%s (%s)", account.First("sAMAccountName"), account.First("displayName")))
	}

	result.RiskLevel = RiskLow
	if len(result.Issues) > 0 {
		result.RiskLevel = RiskHigh
	}
	return result, nil
}

func (a *Auditor) analyzeDomainControllers() (CategoryResult, error) {
	filter := ldaphelpers.And(
		ldaphelpers.Eq("objectClass", "computer"),
		ldaphelpers.BitAnd("userAccountControl", UACServerTrustAccount),
	).String()

	records, err := a.dir.Search(filter, []string{"dNSHostName", "operatingSystem", "operatingSystemVersion"})
	if err != nil {
		return CategoryResult{}, err
	}

	result := CategoryResult{Count: len(records), RiskLevel: RiskMedium}
	for _, dc := range records {
		result.Issues = append(result.Issues, fmt.Sprintf("%s - %s %s",
			dc.First("dNSHostName"), dc.First("operatingSystem"), dc.First("operatingSystemVersion")))
	}
	return result, nil
}

func (a *Auditor) analyzeLocalAdminReuse() (CategoryResult, error) {
	filter := ldaphelpers.And(
		ldaphelpers.Eq("objectClass", "user"),
		ldaphelpers.Eq("sAMAccountName", "admin"),
	).String()

	records, err := a.dir.Search(filter, []string{"sAMAccountName", "displayName"})
	if err != nil {
		return CategoryResult{}, err
	}

	result := CategoryResult{
		Count: len(records),
		Extra: map[string]string{"Note": "Consider implementing LAPS for local admin password management"},
	}
	for _, account := range records {
		result.Issues = append(result.Issues, fmt.Sprintf("%s (%s)", account.First("sAMAccountName"), account.First("displayName")))
	}

	result.RiskLevel = RiskMedium
	if len(records) > 1 {
		result.RiskLevel = RiskHigh
	}
	return result, nil
}

func (a *Auditor) analyzeDNSConfiguration() (CategoryResult, error) {
	records, err := a.dir.Search(ldaphelpers.AllDNSZones, []string{"dnsRecord", "zoneType"})
	if err != nil {
		return CategoryResult{}, err
	}

	result := CategoryResult{
		Count:     len(records),
		RiskLevel: RiskMedium,
		Extra:     map[string]string{"Note": "Review DNS zone transfer settings and zone security"},
	}
	for _, zone := range records {
		result.Issues = append(result.Issues, fmt.Sprintf("Zone Type: %s", zone.First("zoneType")))
	}
	return result, nil
}

func (a *Auditor) analyzeStaleObjects() (CategoryResult, error) {
	profiles, err := a.AuditAllAccounts()
	if err != nil {
		return CategoryResult{}, err
	}
	staleUsers := len(a.InactiveAccounts(profiles, InactivityThresholdDays))

	filter := ldaphelpers.And(
		ldaphelpers.Eq("objectClass", "group"),
		ldaphelpers.Not(ldaphelpers.Present("member")),
	).String()

	orphanedGroups, err := a.dir.Search(filter, []string{"cn", "description"})
	if err != nil {
		return CategoryResult{}, err
	}

	result := CategoryResult{
		Count: staleUsers + len(orphanedGroups),
		Extra: map[string]string{
			"Stale User Accounts": strconv.Itoa(staleUsers),
			"Orphaned Groups":     strconv.Itoa(len(orphanedGroups)),
		},
	}
	for _, group := range orphanedGroups {
		result.Issues = append(result.Issues, fmt.Sprintf("%s - %s", group.First("cn"), group.First("description")))
	}

	result.RiskLevel = RiskLow
	if result.Count > staleObjectLimit {
		result.RiskLevel = RiskMedium
	}
	return result, nil
}

func (a *Auditor) analyzeGPORisks() (CategoryResult, error) {
	records, err := a.dir.Search(ldaphelpers.AllGPOContainers,
		[]string{"displayName", "whenCreated", "whenChanged"})
	if err != nil {
		return CategoryResult{}, err
	}

	now := a.now()
	result := CategoryResult{Count: len(records)}
	stale := 0
	for _, gpo := range records {
		changed := DecodeGeneralizedTime(gpo.First("whenChanged"))
		if changed == nil {
			continue
		}
		if age := now.Sub(*changed); age > gpoStalenessDays*24*time.Hour {
			stale++
			result.Issues = append(result.Issues, fmt.Sprintf("%s - Last modified: %d days ago",
				gpo.First("displayName"), int(age.Hours()/24)))
		}
	}
	result.Extra = map[string]string{"Old GPOs (>1 year)": strconv.Itoa(stale)}

	result.RiskLevel = RiskLow
	if stale > staleGPOLimit {
		result.RiskLevel = RiskMedium
	}
	return result, nil
}

func (a *Auditor) analyzeLDAPSecurity() (CategoryResult, error) {
	domain, err := a.dir.SearchOne(ldaphelpers.DomainRoot, []string{"ldapServerIntegrity"})
	if err != nil {
		return CategoryResult{}, err
	}
	if domain == nil {
		return CategoryResult{RiskLevel: RiskUnknown}, nil
	}

	signing := domain.First("ldapServerIntegrity")
	result := CategoryResult{Extra: map[string]string{"LDAP Signing": signing}}
	if signing != "2" {
		result.Issues = append(result.Issues, "LDAP signing not required - security risk")
		result.RiskLevel = RiskHigh
	} else {
		result.RiskLevel = RiskLow
	}
	return result, nil
}

func (a *Auditor) analyzeSMBNTLMConfig() (CategoryResult, error) {
	domain, err := a.dir.SearchOne(ldaphelpers.DomainRoot, []string{"msDS-BehaviorVersion"})
	if err != nil {
		return CategoryResult{}, err
	}
	if domain == nil {
		return CategoryResult{RiskLevel: RiskUnknown}, nil
	}

	behavior := domain.First("msDS-BehaviorVersion")
	result := CategoryResult{
		RiskLevel: RiskLow,
		Extra:     map[string]string{"Domain Functional Level": behavior},
	}
	if level, ok := domain.Int("msDS-BehaviorVersion"); ok && level < minDomainFunctionalLevel {
		result.Issues = append(result.Issues, "Domain functional level below 2008 - NTLM may be required")
		result.RiskLevel = RiskMedium
	}
	return result, nil
}
