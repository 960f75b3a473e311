package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"adaudit/activedirectory"
	"adaudit/auditor"
	"adaudit/config"
)

func newRootCmd() *cobra.Command {
	var (
		configFile string
		format     string
	)

	root := &cobra.Command{
		Use:           "adaudit",
		Short:         "Active Directory security audit over LDAP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "settings.env", "env file with LDAP connection settings")
	root.PersistentFlags().StringVar(&format, "format", "text", "output format: text, json or yaml")

	root.AddCommand(newAuditCmd(&configFile, &format))
	root.AddCommand(newAccountsCmd(&configFile, &format))
	root.AddCommand(newSummaryCmd(&configFile, &format))
	root.AddCommand(newGroupsCmd(&configFile, &format))
	root.AddCommand(newGPOsCmd(&configFile, &format))
	root.AddCommand(newResetPasswordCmd(&configFile))
	return root
}

// connect loads the env config and binds to the domain controller. The
// returned client must be closed by the caller.
func connect(configFile string) (*activedirectory.Client, *auditor.Auditor, error) {
	cfg, err := config.LoadEnvConfig(configFile)
	if err != nil {
		return nil, nil, err
	}

	client := activedirectory.NewClient(cfg.BaseDN, cfg.DcFQDN, cfg.PageSize)
	if err := client.Connect(cfg.Username, cfg.Password); err != nil {
		return nil, nil, err
	}
	return client, auditor.New(client), nil
}

func newAuditCmd(configFile, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Run the comprehensive thirteen-category security audit",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, engine, err := connect(*configFile)
			if err != nil {
				return err
			}
			defer client.Close()

			report := engine.RunComprehensiveAudit()
			return renderReport(os.Stdout, *format, report)
		},
	}
}

func newAccountsCmd(configFile, format *string) *cobra.Command {
	var (
		weakPasswords bool
		privileged    bool
		locked        bool
		service       bool
		inactiveDays  int
	)

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Audit all user accounts and print their findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, engine, err := connect(*configFile)
			if err != nil {
				return err
			}
			defer client.Close()

			profiles, err := engine.AuditAllAccounts()
			if err != nil {
				return err
			}

			switch {
			case weakPasswords:
				profiles = auditor.WeakPasswordAccounts(profiles)
			case privileged:
				profiles = auditor.PrivilegedAccounts(profiles)
			case locked:
				profiles = auditor.LockedAccounts(profiles)
			case service:
				profiles = auditor.ServiceAccounts(profiles)
			case cmd.Flags().Changed("inactive"):
				profiles = engine.InactiveAccounts(profiles, inactiveDays)
			}

			return renderProfiles(os.Stdout, *format, profiles)
		},
	}

	cmd.Flags().BoolVar(&weakPasswords, "weak-passwords", false, "only accounts failing the password policy")
	cmd.Flags().BoolVar(&privileged, "privileged", false, "only privileged or admin accounts")
	cmd.Flags().BoolVar(&locked, "locked", false, "only locked accounts")
	cmd.Flags().BoolVar(&service, "service", false, "only service accounts")
	cmd.Flags().IntVar(&inactiveDays, "inactive", 90, "only accounts inactive for more than the given days")
	return cmd
}

func newSummaryCmd(configFile, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the per-category account issue counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, engine, err := connect(*configFile)
			if err != nil {
				return err
			}
			defer client.Close()

			profiles, err := engine.AuditAllAccounts()
			if err != nil {
				return err
			}
			return renderSummary(os.Stdout, *format, engine.Summarize(profiles))
		},
	}
}

func newGroupsCmd(configFile, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "groups [name]",
		Short: "List groups, or show one group with its members",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, engine, err := connect(*configFile)
			if err != nil {
				return err
			}
			defer client.Close()

			if len(args) == 1 {
				group, err := engine.GroupByName(args[0])
				if err != nil {
					return err
				}
				if group == nil {
					return fmt.Errorf("group %q not found", args[0])
				}
				return renderGroups(os.Stdout, *format, []auditor.Group{*group})
			}

			groups, err := engine.Groups()
			if err != nil {
				return err
			}
			return renderGroups(os.Stdout, *format, groups)
		},
	}
}

func newGPOsCmd(configFile, format *string) *cobra.Command {
	var disabledOnly bool

	cmd := &cobra.Command{
		Use:   "gpos",
		Short: "List group policy objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, engine, err := connect(*configFile)
			if err != nil {
				return err
			}
			defer client.Close()

			var (
				gpos []auditor.GroupPolicy
			)
			if disabledOnly {
				gpos, err = engine.DisabledGroupPolicies()
			} else {
				gpos, err = engine.GroupPolicies()
			}
			if err != nil {
				return err
			}
			return renderGPOs(os.Stdout, *format, gpos)
		},
	}

	cmd.Flags().BoolVar(&disabledOnly, "disabled", false, "only disabled GPOs")
	return cmd
}

func newResetPasswordCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <username> <new-password>",
		Short: "Reset a user's password (the only write this tool performs)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := connect(*configFile)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.ResetPassword(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Password reset for %s\n", args[0])
			return nil
		},
	}
}
