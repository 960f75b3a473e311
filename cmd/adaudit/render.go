package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"adaudit/auditor"
)

func renderStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return true, enc.Encode(v)
	case "text", "":
		return false, nil
	default:
		return false, fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func renderReport(w io.Writer, format string, report map[auditor.Category]auditor.CategoryResult) error {
	if done, err := renderStructured(w, format, report); done || err != nil {
		return err
	}

	categories := make([]string, 0, len(report))
	for category := range report {
		categories = append(categories, string(category))
	}
	sort.Strings(categories)

	for _, category := range categories {
		result := report[auditor.Category(category)]
		if result.Err != "" {
			fmt.Fprintf(w, "%-20s  Error: %s\n", category, result.Err)
			continue
		}
		fmt.Fprintf(w, "%-20s  risk=%-7s count=%d\n", category, result.RiskLevel, result.Count)
		for _, key := range sortedKeys(result.Extra) {
			fmt.Fprintf(w, "    %s: %s\n", key, result.Extra[key])
		}
		for _, issue := range result.Issues {
			fmt.Fprintf(w, "    - %s\n", issue)
		}
	}
	return nil
}

func renderProfiles(w io.Writer, format string, profiles []*auditor.AccountProfile) error {
	if done, err := renderStructured(w, format, profiles); done || err != nil {
		return err
	}

	for _, profile := range profiles {
		status := "ok"
		if !profile.AccountCompliant {
			status = fmt.Sprintf("%d issue(s)", len(profile.SecurityIssues))
		}
		fmt.Fprintf(w, "%-24s %s\n", profile.Username, status)
		for _, issue := range profile.SecurityIssues {
			fmt.Fprintf(w, "    - %s\n", issue)
		}
	}
	fmt.Fprintf(w, "%d account(s)\n", len(profiles))
	return nil
}

func renderSummary(w io.Writer, format string, summary map[string]int) error {
	if done, err := renderStructured(w, format, summary); done || err != nil {
		return err
	}
	for _, key := range sortedIntKeys(summary) {
		fmt.Fprintf(w, "%-30s %d\n", key, summary[key])
	}
	return nil
}

func renderGroups(w io.Writer, format string, groups []auditor.Group) error {
	if done, err := renderStructured(w, format, groups); done || err != nil {
		return err
	}
	for _, group := range groups {
		fmt.Fprintf(w, "%-32s %s/%s  members=%d\n", group.Name, group.GroupType, group.Scope, group.MemberCount)
		if len(group.Members) > 0 {
			fmt.Fprintf(w, "    %s\n", strings.Join(group.Members, "\n    "))
		}
	}
	return nil
}

func renderGPOs(w io.Writer, format string, gpos []auditor.GroupPolicy) error {
	if done, err := renderStructured(w, format, gpos); done || err != nil {
		return err
	}
	for _, gpo := range gpos {
		fmt.Fprintf(w, "%-40s %-8s version=%s id=%s\n", gpo.Name, gpo.Status, gpo.Version, gpo.ID)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedIntKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
