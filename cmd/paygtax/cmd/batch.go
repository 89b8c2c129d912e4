// Package cmd - batch command
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/manageitwa/payg-tax/factory"
	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/payg"
)

// batchFile is a payroll run on disk.
//
//	items:
//	  - ref: emp-1
//	    gross: 931
//	    date: "2024-10-15"
//	    cycle: weekly
//	    threshold: true
//	    adjustments:
//	      - {type: medicare_levy_reduction, spouse: true}
type batchFile struct {
	Items []batchItem `yaml:"items"`
}

type batchItem struct {
	Ref           string                   `yaml:"ref"`
	Gross         decimal.Decimal          `yaml:"gross"`
	Date          string                   `yaml:"date"`
	Cycle         string                   `yaml:"cycle"`
	Residency     string                   `yaml:"residency"`
	NoTFN         bool                     `yaml:"no_tfn"`
	Threshold     bool                     `yaml:"threshold"`
	LevyExemption string                   `yaml:"levy_exemption"`
	Seniors       string                   `yaml:"seniors"`
	StudyLoan     bool                     `yaml:"study_loan"`
	YTD           decimal.Decimal          `yaml:"ytd"`
	Registered    bool                     `yaml:"registered"`
	Adjustments   []factory.AdjustmentJSON `yaml:"adjustments"`
}

// options maps an item onto the calculate flags, with the same defaults.
func (it batchItem) options() *calculateOptions {
	return &calculateOptions{
		gross:      it.Gross.String(),
		date:       it.Date,
		cycle:      orDefault(it.Cycle, string(payg.CycleWeekly)),
		residency:  orDefault(it.Residency, string(payg.Resident)),
		noTFN:      it.NoTFN,
		threshold:  it.Threshold,
		exemption:  orDefault(it.LevyExemption, string(payg.ExemptionNone)),
		seniors:    orDefault(it.Seniors, string(payg.SeniorsNone)),
		studyLoan:  it.StudyLoan,
		ytd:        it.YTD.String(),
		registered: it.Registered,
	}
}

// orDefault returns fallback for an empty string.
func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Calculate a payroll run from a YAML file",
		Long: `Calculate every payment in a YAML payroll file in parallel. A failing
item is reported and never stops the others. Use - to read stdin.

Examples:
  paygtax batch payroll.yaml
  cat payroll.yaml | paygtax batch - --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			workers := 1
			if root.cfg != nil {
				workers = root.cfg.Batch.Workers
			}
			return runBatch(cmd.Context(), cmd.OutOrStdout(), in, workers, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json)")
	return cmd
}

type batchLine struct {
	Ref    string       `json:"ref"`
	Result *payg.Result `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

func runBatch(ctx context.Context, out io.Writer, in io.Reader, workers int, format string) error {
	var file batchFile
	dec := yaml.NewDecoder(in)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return fmt.Errorf("reading payroll file: %w", err)
	}
	if len(file.Items) == 0 {
		return fmt.Errorf("payroll file has no items")
	}

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	lines := make([]batchLine, len(file.Items))
	var items []payg.BatchItem
	var positions []int
	for i, it := range file.Items {
		lines[i].Ref = it.Ref
		payer, payee, pay, err := it.options().inputs(catalog.Adjustments())
		if err == nil {
			payee.Adjustments, err = catalog.Adjustments().NewAdjustments(it.Adjustments)
		}
		if err != nil {
			lines[i].Error = err.Error()
			continue
		}
		items = append(items, payg.BatchItem{Ref: generic.WorkerRef(it.Ref), Employer: payer, Worker: payee, Payment: pay})
		positions = append(positions, i)
	}

	results, err := payg.RunBatch(ctx, catalog.Calculator(), items, workers)
	if err != nil {
		return err
	}
	for j, r := range results {
		i := positions[j]
		if r.Err != nil {
			lines[i].Error = r.Err.Error()
			continue
		}
		res := r.Result
		lines[i].Result = &res
	}

	if format == "json" {
		return writeJSON(out, lines)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REF\tSCALE\tBASE\tWITHHELD\tERROR")
	total := decimal.Zero
	for _, l := range lines {
		if l.Result == nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%s\n", l.Ref, l.Error)
			continue
		}
		total = total.Add(l.Result.Withheld)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", l.Ref, l.Result.Scale, l.Result.Base, l.Result.Withheld)
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t%s\t\n", total)
	return tw.Flush()
}
