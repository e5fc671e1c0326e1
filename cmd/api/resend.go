package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cimillas/eventtix/internal/app"
)

func newResendFailedCmd(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "resend-failed",
		Short: "Retry confirmation emails for orders marked as failed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !e.cfg.StoreConfigured() {
				return errStoreNotConfigured
			}
			st, err := openStores(cmd.Context(), e)
			if err != nil {
				return err
			}
			defer st.Close()

			svc := app.NewResendService(st.orders, st.tickets, st.events, newSender(e), e.logger)
			report, err := svc.ResendFailed(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("resend failed confirmations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attempted=%d resent=%d failed=%d\n", report.Attempted, report.Resent, report.Failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of orders to retry")
	return cmd
}
