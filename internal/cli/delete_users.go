package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeleteUsersCmd removes accounts by email, reporting each one.
func NewDeleteUsersCmd(configPath *string) *cobra.Command {
	var emails []string
	cmd := &cobra.Command{
		Use:   "delete-users --email EMAIL...",
		Short: "Delete user accounts by email",
		RunE: func(cmd *cobra.Command, args []string) error {
			emails = append(emails, args...)
			if len(emails) == 0 {
				return fmt.Errorf("no emails given")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			_, authService := b.services(cfg, nil)
			deleted := 0
			out := cmd.OutOrStdout()
			for _, report := range authService.DeleteUsersByEmail(ctx, emails) {
				if report.Err != nil {
					fmt.Fprintf(out, "- %s: %v\n", report.Email, report.Err)
					continue
				}
				deleted++
			}
			fmt.Fprintf(out, "deleted %d of %d users\n", deleted, len(emails))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&emails, "email", nil, "email of an account to delete (repeatable)")
	return cmd
}
