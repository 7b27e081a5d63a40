package main

import (
	"fmt"

	"qrpay/internal/entity"
	"qrpay/internal/repository"
	"qrpay/internal/service"
	"qrpay/pkg/metric"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func revenueCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "revenue",
		Short: "Summarize gross volume, vendor net and platform fees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, closeDB, err := openLedger(cmd, opts)
			if err != nil {
				return err
			}
			defer closeDB()

			summary, err := ledger.AggregateRevenue(cmd.Context())
			if err != nil {
				return fmt.Errorf("qrpayctl revenue: %w", err)
			}
			return render(cmd.OutOrStdout(), opts.output, summary, revenueTable(summary))
		},
	}
}

func transactionsCmd(opts *rootOptions) *cobra.Command {
	var identity string

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List ledger entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var identityID uuid.UUID
			if identity != "" {
				id, err := uuid.Parse(identity)
				if err != nil {
					return fmt.Errorf("qrpayctl transactions: invalid --identity %q: %w", identity, err)
				}
				identityID = id
			}

			ledger, closeDB, err := openLedger(cmd, opts)
			if err != nil {
				return err
			}
			defer closeDB()

			var txns []*entity.Transaction
			if identityID == uuid.Nil {
				txns, err = ledger.ListAll(cmd.Context())
			} else {
				txns, err = ledger.ListFor(cmd.Context(), identityID)
			}
			if err != nil {
				return fmt.Errorf("qrpayctl transactions: %w", err)
			}
			return render(cmd.OutOrStdout(), opts.output, txns, transactionsTable(txns))
		},
	}

	cmd.Flags().StringVarP(&identity, "identity", "i", "", "Only entries involving this vendor, user or customer id")

	return cmd
}

func openLedger(cmd *cobra.Command, opts *rootOptions) (*service.LedgerService, func(), error) {
	cfg, log, err := opts.load()
	if err != nil {
		return nil, nil, err
	}

	db, err := openPostgres(cmd.Context(), cfg, log)
	if err != nil {
		return nil, nil, err
	}

	ledger := service.NewLedgerService(
		repository.NewLedgerRepository(db),
		nil,
		metric.NewFactory().Payments(),
		log.With("component", "ledger service"),
	)
	return ledger, db.Close, nil
}
