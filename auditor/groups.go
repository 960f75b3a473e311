package auditor

import (
	"fmt"
	"time"

	"adaudit/activedirectory/ldaphelpers"
	"adaudit/directory"
)

// Group is a directory group with its type bits decoded.
type Group struct {
	Name              string     `json:"name" yaml:"name"`
	Description       string     `json:"description,omitempty" yaml:"description,omitempty"`
	DistinguishedName string     `json:"distinguished_name,omitempty" yaml:"distinguished_name,omitempty"`
	GroupType         string     `json:"group_type,omitempty" yaml:"group_type,omitempty"`
	Scope             string     `json:"scope,omitempty" yaml:"scope,omitempty"`
	MemberCount       int        `json:"member_count" yaml:"member_count"`
	Members           []string   `json:"members,omitempty" yaml:"members,omitempty"`
	Created           *time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	Modified          *time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
}

var groupAttributes = []string{
	"sAMAccountName", "description", "distinguishedName", "groupType",
	"member", "whenCreated", "whenChanged", "memberOf",
}

// the security bit lives in the sign position of the 32-bit groupType
const groupTypeSecurityBit = uint32(0x80000000)

// DecodeGroupType splits a raw groupType value into kind (Security or
// Distribution) and scope.
func DecodeGroupType(groupType int64) (kind, scope string) {
	bits := uint32(groupType)
	kind = "Distribution"
	if bits&groupTypeSecurityBit != 0 {
		kind = "Security"
	}

	switch bits & 0xF {
	case 0x0:
		scope = "Local"
	case 0x1:
		scope = "Global"
	case 0x2:
		scope = "Domain Local"
	case 0x4:
		scope = "Universal"
	default:
		scope = "Unknown"
	}
	return kind, scope
}

func groupFromRecord(record directory.Record) Group {
	group := Group{
		Name:              record.First("sAMAccountName"),
		Description:       record.First("description"),
		DistinguishedName: record.First("distinguishedName"),
		Created:           DecodeGeneralizedTime(record.First("whenCreated")),
		Modified:          DecodeGeneralizedTime(record.First("whenChanged")),
	}
	if groupType, ok := record.Int64("groupType"); ok {
		group.GroupType, group.Scope = DecodeGroupType(groupType)
	}
	for _, memberDN := range record.Values("member") {
		if memberDN != "" {
			group.Members = append(group.Members, memberDN)
		}
	}
	group.MemberCount = len(group.Members)
	return group
}

// Groups returns every group object in the domain.
func (a *Auditor) Groups() ([]Group, error) {
	records, err := a.dir.Search(ldaphelpers.AllGroupObjects, groupAttributes)
	if err != nil {
		return nil, fmt.Errorf("error retrieving groups: %w", err)
	}

	groups := make([]Group, 0, len(records))
	for _, record := range records {
		groups = append(groups, groupFromRecord(record))
	}
	return groups, nil
}

// GroupByName looks up a single group by sAMAccountName. Returns (nil, nil)
// when the group does not exist.
func (a *Auditor) GroupByName(name string) (*Group, error) {
	record, err := a.dir.SearchOne(ldaphelpers.Eq("sAMAccountName", name).String(), groupAttributes)
	if err != nil {
		return nil, fmt.Errorf("error retrieving group %q: %w", name, err)
	}
	if record == nil {
		return nil, nil
	}
	group := groupFromRecord(record)
	return &group, nil
}

// GroupMembers returns the member DNs of the named group, or an empty slice
// when the group does not exist.
func (a *Auditor) GroupMembers(name string) ([]string, error) {
	group, err := a.GroupByName(name)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, nil
	}
	return group.Members, nil
}

// GroupsForUser resolves every group the user is a direct member of.
func (a *Auditor) GroupsForUser(username string) ([]Group, error) {
	filter := ldaphelpers.And(
		ldaphelpers.Eq("objectClass", "user"),
		ldaphelpers.Eq("sAMAccountName", username),
	).String()

	record, err := a.dir.SearchOne(filter, []string{"memberOf"})
	if err != nil {
		return nil, fmt.Errorf("error retrieving groups for user %q: %w", username, err)
	}
	if record == nil {
		return nil, nil
	}

	var groups []Group
	for _, groupDN := range record.Values("memberOf") {
		group, err := a.GroupByName(GroupNameFromDN(groupDN))
		if err != nil {
			return nil, err
		}
		if group != nil {
			groups = append(groups, *group)
		}
	}
	return groups, nil
}
