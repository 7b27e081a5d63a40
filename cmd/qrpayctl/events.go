package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	kafkat "qrpay/internal/transport/kafka"
	"qrpay/pkg/kafka"

	"github.com/spf13/cobra"
)

func eventsCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Tail ledger events from Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			if !cfg.Kafka.Enabled {
				return fmt.Errorf("qrpayctl events: kafka is disabled in %s", opts.configPath)
			}

			reader, err := kafka.NewKafkaReader(cmd.Context(), cfg.Kafka, log.With("component", "kafka reader"))
			if err != nil {
				return fmt.Errorf("qrpayctl events: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			printer := newEventPrinter(cmd.OutOrStdout(), opts.output, limit, cancel)
			consumer := kafkat.NewLedgerConsumer(reader, printer.handle, log.With("component", "ledger consumer"))

			return consumer.Start(ctx)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after this many events (0 follows forever)")

	return cmd
}

// eventPrinter writes one rendered event per message and calls stop once limit
// events were written.
type eventPrinter struct {
	w      io.Writer
	format string
	limit  int
	seen   int
	stop   context.CancelFunc
}

func newEventPrinter(w io.Writer, format string, limit int, stop context.CancelFunc) *eventPrinter {
	return &eventPrinter{w: w, format: format, limit: limit, stop: stop}
}

func (p *eventPrinter) handle(_ context.Context, event *kafkat.LedgerEvent) error {
	if p.format == formatYAML && p.seen > 0 {
		if _, err := fmt.Fprintln(p.w, "---"); err != nil {
			return err
		}
	}

	err := render(p.w, p.format, event, func(tw *tabwriter.Writer) {
		if p.seen == 0 {
			fmt.Fprintln(tw, transactionsHeader)
		}
		transactionRow(tw, event.Transaction)
	})
	if err != nil {
		return fmt.Errorf("qrpayctl events: %w", err)
	}

	p.seen++
	if p.limit > 0 && p.seen >= p.limit {
		p.stop()
	}
	return nil
}
