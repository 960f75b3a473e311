package auditor

import (
	"fmt"
	"strconv"
	"time"

	"adaudit/activedirectory/ldaphelpers"
	"adaudit/directory"
)

// GroupPolicy is one groupPolicyContainer with its flags decoded.
type GroupPolicy struct {
	Name              string     `json:"name" yaml:"name"`
	ID                string     `json:"id" yaml:"id"`
	DistinguishedName string     `json:"distinguished_name,omitempty" yaml:"distinguished_name,omitempty"`
	Description       string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status            string     `json:"status" yaml:"status"`
	Enabled           bool       `json:"enabled" yaml:"enabled"`
	Version           string     `json:"version,omitempty" yaml:"version,omitempty"`
	Created           *time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	Modified          *time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
}

var gpoAttributes = []string{
	"displayName", "name", "distinguishedName", "description", "whenCreated",
	"whenChanged", "gPCFileSysPath", "flags", "versionNumber",
}

// bit 0 of flags disables the whole GPO
const gpoDisabledFlag = 0x1

func gpoFromRecord(record directory.Record) GroupPolicy {
	gpo := GroupPolicy{
		Name:              record.First("displayName"),
		ID:                record.First("name"),
		DistinguishedName: record.First("distinguishedName"),
		Description:       record.First("description"),
		Created:           DecodeGeneralizedTime(record.First("whenCreated")),
		Modified:          DecodeGeneralizedTime(record.First("whenChanged")),
		Enabled:           true,
	}
	if flags, ok := record.Int("flags"); ok {
		gpo.Enabled = flags&gpoDisabledFlag == 0
	}
	gpo.Status = "Enabled"
	if !gpo.Enabled {
		gpo.Status = "Disabled"
	}
	if version, ok := record.Int("versionNumber"); ok {
		gpo.Version = strconv.Itoa(version)
	}
	return gpo
}

// GroupPolicies returns every GPO in the domain.
func (a *Auditor) GroupPolicies() ([]GroupPolicy, error) {
	records, err := a.dir.Search(ldaphelpers.AllGPOContainers, gpoAttributes)
	if err != nil {
		return nil, fmt.Errorf("error retrieving GPOs: %w", err)
	}

	gpos := make([]GroupPolicy, 0, len(records))
	for _, record := range records {
		gpos = append(gpos, gpoFromRecord(record))
	}
	return gpos, nil
}

// GroupPolicyByID looks up one GPO by its name attribute (the {GUID} form).
// Returns (nil, nil) when no GPO matches.
func (a *Auditor) GroupPolicyByID(gpoID string) (*GroupPolicy, error) {
	record, err := a.dir.SearchOne(ldaphelpers.Eq("name", gpoID).String(), gpoAttributes)
	if err != nil {
		return nil, fmt.Errorf("error retrieving GPO %q: %w", gpoID, err)
	}
	if record == nil {
		return nil, nil
	}
	gpo := gpoFromRecord(record)
	return &gpo, nil
}

// GroupPoliciesForOU resolves the GPOs linked to an organizational unit via
// its gPLink attribute. Malformed link entries are skipped by the decoder.
func (a *Auditor) GroupPoliciesForOU(ouDN string) ([]GroupPolicy, error) {
	filter := ldaphelpers.And(
		ldaphelpers.Eq("objectClass", "organizationalUnit"),
		ldaphelpers.Eq("distinguishedName", ouDN),
	).String()

	record, err := a.dir.SearchOne(filter, []string{"gPLink"})
	if err != nil {
		return nil, fmt.Errorf("error retrieving GPOs for OU %q: %w", ouDN, err)
	}
	if record == nil {
		return nil, nil
	}

	var gpos []GroupPolicy
	for _, gpoID := range DecodeGPOLinks(record.First("gPLink")) {
		gpo, err := a.GroupPolicyByID("{" + gpoID + "}")
		if err != nil {
			return nil, err
		}
		if gpo != nil {
			gpos = append(gpos, *gpo)
		}
	}
	return gpos, nil
}

// EnabledGroupPolicies filters the full GPO inventory down to enabled ones.
func (a *Auditor) EnabledGroupPolicies() ([]GroupPolicy, error) {
	return a.filterGroupPolicies(func(g GroupPolicy) bool { return g.Enabled })
}

// DisabledGroupPolicies filters the full GPO inventory down to disabled ones.
func (a *Auditor) DisabledGroupPolicies() ([]GroupPolicy, error) {
	return a.filterGroupPolicies(func(g GroupPolicy) bool { return !g.Enabled })
}

func (a *Auditor) filterGroupPolicies(keep func(GroupPolicy) bool) ([]GroupPolicy, error) {
	gpos, err := a.GroupPolicies()
	if err != nil {
		return nil, err
	}
	var out []GroupPolicy
	for _, gpo := range gpos {
		if keep(gpo) {
			out = append(out, gpo)
		}
	}
	return out, nil
}
