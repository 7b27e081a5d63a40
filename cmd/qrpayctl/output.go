package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"qrpay/internal/entity"

	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"

	transactionsHeader = "ID\tKIND\tCHANNEL\tAMOUNT\tFEE\tCURRENCY\tCOUNTERPARTY\tCREATED"
)

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("qrpayctl: unknown output format %q", format)
	}
}

// render writes v as JSON or YAML, or hands a tabwriter to table.
func render(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return writeYAML(w, v)
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

// writeYAML goes through JSON first so decimals and field names match the API.
func writeYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("qrpayctl: marshal: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("qrpayctl: unmarshal: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("qrpayctl: yaml: %w", err)
	}
	return enc.Close()
}

func transactionsTable(txns []*entity.Transaction) func(tw *tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, transactionsHeader)
		for _, txn := range txns {
			transactionRow(tw, txn)
		}
	}
}

func transactionRow(tw *tabwriter.Writer, txn *entity.Transaction) {
	fee := "-"
	if txn.PlatformFee.Valid {
		fee = txn.PlatformFee.Decimal.StringFixed(2)
	}
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		txn.ID,
		txn.Kind,
		txn.Channel,
		txn.Amount.StringFixed(2),
		fee,
		txn.Currency,
		counterparty(txn),
		txn.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
}

func counterparty(txn *entity.Transaction) string {
	switch {
	case txn.VendorID != nil:
		return "vendor:" + txn.VendorID.String()
	case txn.UserID != nil:
		return "user:" + txn.UserID.String()
	case txn.CustomerID != nil:
		return "customer:" + txn.CustomerID.String()
	default:
		return "-"
	}
}

func revenueTable(summary *entity.RevenueSummary) func(tw *tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "TRANSACTIONS\tGROSS\tVENDOR NET\tPLATFORM FEES")
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			summary.Count,
			summary.GrossTotal.StringFixed(2),
			summary.VendorNetTotal.StringFixed(2),
			summary.PlatformFeeTotal.StringFixed(2),
		)
	}
}
