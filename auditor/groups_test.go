package auditor

import (
	"testing"

	"adaudit/activedirectory/ldaphelpers"
	"adaudit/directory"
)

func TestDecodeGroupType(t *testing.T) {
	tests := []struct {
		groupType int64
		wantKind  string
		wantScope string
	}{
		{-2147483647, "Security", "Global"},    // 0x80000001
		{-2147483646, "Security", "Domain Local"},
		{-2147483644, "Security", "Universal"}, // 0x80000004
		{-2147483640, "Security", "Unknown"},
		{2, "Distribution", "Domain Local"},
		{4, "Distribution", "Universal"},
		{1, "Distribution", "Global"},
		{0, "Distribution", "Local"},
	}

	for _, tc := range tests {
		kind, scope := DecodeGroupType(tc.groupType)
		if kind != tc.wantKind || scope != tc.wantScope {
			t.Errorf("DecodeGroupType(%d) = (%s, %s), want (%s, %s)",
				tc.groupType, kind, scope, tc.wantKind, tc.wantScope)
		}
	}
}

func TestGroupFromRecord(t *testing.T) {
	group := groupFromRecord(directory.Record{
		"sAMAccountName":    {"Web Admins"},
		"description":       {"Web server administrators"},
		"distinguishedName": {"CN=Web Admins,OU=Groups,DC=example,DC=com"},
		"groupType":         {"-2147483646"},
		"member":            {"CN=alice,DC=example,DC=com", "CN=bob,DC=example,DC=com"},
		"whenCreated":       {"20230115093000.0Z"},
	})

	if group.Name != "Web Admins" || group.Description != "Web server administrators" {
		t.Errorf("group = %+v", group)
	}
	if group.GroupType != "Security" || group.Scope != "Domain Local" {
		t.Errorf("type = %s/%s, want Security/Domain Local", group.GroupType, group.Scope)
	}
	if group.MemberCount != 2 || len(group.Members) != 2 {
		t.Errorf("members = %v", group.Members)
	}
	if group.Created == nil || group.Created.Year() != 2023 {
		t.Errorf("created = %v", group.Created)
	}
}

func TestGroupByName(t *testing.T) {
	engine := newTestAuditor(&fakeDirectory{
		searches: map[string][]directory.Record{
			"(sAMAccountName=Domain Admins)": {{
				"sAMAccountName": {"Domain Admins"},
				"groupType":      {"-2147483646"},
				"member":         {"CN=alice,DC=example,DC=com"},
			}},
		},
	})

	group, err := engine.GroupByName("Domain Admins")
	if err != nil {
		t.Fatalf("GroupByName: %v", err)
	}
	if group == nil || group.Name != "Domain Admins" || group.MemberCount != 1 {
		t.Errorf("group = %+v", group)
	}

	missing, err := engine.GroupByName("No Such Group")
	if err != nil {
		t.Fatalf("GroupByName: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown group, got %+v", missing)
	}
}

func TestGroupsForUser(t *testing.T) {
	userFilter := ldaphelpers.And(
		ldaphelpers.Eq("objectClass", "user"),
		ldaphelpers.Eq("sAMAccountName", "alice"),
	).String()

	engine := newTestAuditor(&fakeDirectory{
		searches: map[string][]directory.Record{
			userFilter: {{
				"memberOf": {
					"CN=Web Admins,OU=Groups,DC=example,DC=com",
					"CN=Vanished,OU=Groups,DC=example,DC=com",
				},
			}},
			"(sAMAccountName=Web Admins)": {{
				"sAMAccountName": {"Web Admins"},
				"groupType":      {"2"},
			}},
		},
	})

	groups, err := engine.GroupsForUser("alice")
	if err != nil {
		t.Fatalf("GroupsForUser: %v", err)
	}
	// the group the directory no longer has is skipped
	if len(groups) != 1 || groups[0].Name != "Web Admins" {
		t.Errorf("groups = %+v", groups)
	}
	if groups[0].GroupType != "Distribution" || groups[0].Scope != "Domain Local" {
		t.Errorf("type = %s/%s", groups[0].GroupType, groups[0].Scope)
	}
}
