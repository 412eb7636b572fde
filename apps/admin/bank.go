package main

import (
	"context"
	"fmt"
	"text/tabwriter"
)

func (cli *commandLine) ensureTables() error {
	if err := cli.store.EnsureTables(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "tables ready")
	return nil
}

// bank prints the load report of the question table, per subject.
func (cli *commandLine) bank(group string) error {
	bank, report, err := cli.quizSvc.LoadBank(context.Background(), group)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "rows: %d, kept: %d, filtered: %d, skipped: %d\n",
		report.Rows, report.Kept, report.Filtered, len(report.Skipped))
	for _, e := range report.Skipped {
		fmt.Fprintf(cli.out, "  skipped: %v\n", e)
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBJECT\tQUESTIONS\tNOTE")
	for _, sub := range cli.subjects {
		fmt.Fprintf(w, "%s\t%d\t%s\n", sub.Code, bank.Count(sub.Code), sub.Label)
	}
	for _, u := range bank.Unconfigured(cli.subjects) {
		note := "not configured"
		if u.Suggestion != "" {
			note += fmt.Sprintf(", did you mean %q?", u.Suggestion)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", u.Code, u.Questions, note)
	}
	return w.Flush()
}
