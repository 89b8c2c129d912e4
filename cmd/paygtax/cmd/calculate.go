// Package cmd - calculate command
package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/manageitwa/payg-tax/factory"
	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/internal/logging"
	"github.com/manageitwa/payg-tax/payg"
)

type calculateOptions struct {
	gross      string
	date       string
	cycle      string
	residency  string
	noTFN      bool
	threshold  bool
	exemption  string
	seniors    string
	studyLoan  bool
	ytd        string
	registered bool
	adjust     []string
	format     string
}

func newCalculateCmd() *cobra.Command {
	o := &calculateOptions{}

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate the amount withheld from one payment",
		Long: `Calculate the amount to withhold from one payment and show which scale
applied and how each adjustment changed it.

Adjustments are declared with --adjust TYPE[:key=value,...]:
  medicare_levy_reduction:spouse=true,children=2
  extra_pay_period
  tax_offset

Examples:
  paygtax calculate --gross 931 --date 2024-10-15
  paygtax calculate --gross 2000 --cycle fortnightly --threshold --study-loan
  paygtax calculate --gross 90 --residency holiday_maker --registered --ytd 450`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalculate(cmd.OutOrStdout(), o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.gross, "gross", "g", "", "gross amount of the payment (required)")
	f.StringVarP(&o.date, "date", "d", "", "pay date YYYY-MM-DD (default today)")
	f.StringVarP(&o.cycle, "cycle", "c", string(payg.CycleWeekly), "pay cycle: casual, daily, weekly, fortnightly, monthly, quarterly")
	f.StringVar(&o.residency, "residency", string(payg.Resident), "resident, foreign or holiday_maker")
	f.BoolVar(&o.noTFN, "no-tfn", false, "no TFN on file")
	f.BoolVarP(&o.threshold, "threshold", "t", false, "claims the tax-free threshold")
	f.StringVar(&o.exemption, "levy-exemption", string(payg.ExemptionNone), "medicare levy exemption: none, half, full")
	f.StringVar(&o.seniors, "seniors", string(payg.SeniorsNone), "seniors offset: none, single, illness_separated, couple")
	f.BoolVar(&o.studyLoan, "study-loan", false, "has a study and training support loan")
	f.StringVar(&o.ytd, "ytd", "0", "year-to-date gross before this payment")
	f.BoolVar(&o.registered, "registered", false, "employer is registered for the working holiday maker rate")
	f.StringArrayVarP(&o.adjust, "adjust", "a", nil, "adjustment declaration, repeatable")
	f.StringVarP(&o.format, "format", "f", "text", "output format (text, json)")
	_ = cmd.MarkFlagRequired("gross")

	return cmd
}

func runCalculate(out io.Writer, o *calculateOptions) error {
	if err := checkFormat(o.format); err != nil {
		return err
	}
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	payer, payee, pay, err := o.inputs(catalog.Adjustments())
	if err != nil {
		return err
	}

	res, err := catalog.Calculator().Calculate(payer, payee, pay)
	if err != nil {
		return err
	}
	logging.Debug("calculated",
		zap.String("scale", string(res.Scale)),
		zap.String("withheld", res.Withheld.String()))

	if o.format == "json" {
		return writeJSON(out, res)
	}
	return printResult(out, pay, payee, res)
}

func (o *calculateOptions) inputs(adj *factory.AdjustmentFactory) (payg.Payer, payg.Payee, payg.Earning, error) {
	var (
		payer = payg.Payer{RegisteredForSpecialRate: o.registered}
		payee payg.Payee
		pay   payg.Earning
		err   error
	)

	if pay.Gross, err = decimal.NewFromString(o.gross); err != nil {
		return payer, payee, pay, fmt.Errorf("--gross: %w", err)
	}
	pay.Date = generic.Today()
	if o.date != "" {
		if pay.Date, err = generic.ParseDate(o.date); err != nil {
			return payer, payee, pay, err
		}
	}

	payee.HasTFN = !o.noTFN
	payee.ClaimsThreshold = o.threshold
	payee.StudyLoan = o.studyLoan
	if payee.Cycle, err = payg.ParsePayCycle(o.cycle); err != nil {
		return payer, payee, pay, err
	}
	if payee.Residency, err = payg.ParseResidency(o.residency); err != nil {
		return payer, payee, pay, err
	}
	if payee.Exemption, err = payg.ParseLevyExemption(o.exemption); err != nil {
		return payer, payee, pay, err
	}
	if payee.Seniors, err = payg.ParseSeniorsOffset(o.seniors); err != nil {
		return payer, payee, pay, err
	}
	if payee.YTDGross, err = decimal.NewFromString(o.ytd); err != nil {
		return payer, payee, pay, fmt.Errorf("--ytd: %w", err)
	}

	decls := make([]factory.AdjustmentJSON, 0, len(o.adjust))
	for _, s := range o.adjust {
		aj, err := parseAdjustment(s)
		if err != nil {
			return payer, payee, pay, err
		}
		decls = append(decls, aj)
	}
	if payee.Adjustments, err = adj.NewAdjustments(decls); err != nil {
		return payer, payee, pay, err
	}
	return payer, payee, pay, nil
}

// parseAdjustment reads TYPE[:key=value,...].
func parseAdjustment(s string) (factory.AdjustmentJSON, error) {
	kind, params, _ := strings.Cut(s, ":")
	aj := factory.AdjustmentJSON{Type: strings.TrimSpace(kind)}
	if params == "" {
		return aj, nil
	}

	for _, kv := range strings.Split(params, ",") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return aj, fmt.Errorf("--adjust %q: expected key=value, got %q", s, kv)
		}
		switch strings.TrimSpace(key) {
		case "spouse":
			b, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				return aj, fmt.Errorf("--adjust %q: spouse: %w", s, err)
			}
			aj.Spouse = b
		case "children":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return aj, fmt.Errorf("--adjust %q: children: %w", s, err)
			}
			aj.Children = n
		default:
			return aj, fmt.Errorf("--adjust %q: unknown parameter %q", s, key)
		}
	}
	return aj, nil
}

func printResult(out io.Writer, pay payg.Earning, payee payg.Payee, res payg.Result) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Pay date\t%s\n", pay.Date)
	fmt.Fprintf(tw, "Gross\t%s %s\n", pay.Gross.StringFixed(2), payee.Cycle)
	fmt.Fprintf(tw, "Scale\t%s (%s)\n", res.Scale, res.Description)
	fmt.Fprintf(tw, "Base\t%s\n", res.Base)
	for _, l := range res.Lines {
		fmt.Fprintf(tw, "  %s\t%s\n", l.Kind, signed(l.Amount))
	}
	fmt.Fprintf(tw, "Withheld\t%s\n", res.Withheld)
	return tw.Flush()
}

func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.String()
	}
	return "+" + d.String()
}
