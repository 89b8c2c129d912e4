// Package cmd - scales and tables commands
package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/payg"
)

func newScalesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "scales",
		Short: "List the registered tax scales in classification order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			catalog, err := loadCatalog()
			if err != nil {
				return err
			}
			return printScales(cmd.OutOrStdout(), catalog.Scales(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json)")
	return cmd
}

type scaleRow struct {
	ID          payg.ScaleID `json:"id"`
	Variant     payg.Variant `json:"variant"`
	Description string       `json:"description"`
	Versions    []string     `json:"versions,omitempty"`
}

func printScales(out io.Writer, scales []payg.Scale, format string) error {
	rows := lo.Map(scales, func(s payg.Scale, _ int) scaleRow {
		return scaleRow{ID: s.ID(), Variant: s.Variant(), Description: s.Description(), Versions: versionDates(s)}
	})
	if format == "json" {
		return writeJSON(out, rows)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVARIANT\tVERSIONS\tDESCRIPTION")
	for _, r := range rows {
		versions := "-"
		if len(r.Versions) > 0 {
			versions = fmt.Sprint(r.Versions)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Variant, versions, r.Description)
	}
	return tw.Flush()
}

// versionDates lists the distinct effective dates a scale publishes.
func versionDates(s payg.Scale) []string {
	var dates []string
	switch src := s.(type) {
	case payg.TableSource:
		dates = lo.Map(src.Tables(), func(v generic.Version[generic.Brackets], _ int) string { return v.Effective.String() })
	case payg.TierSource:
		dates = lo.Map(src.Tiers(), func(v generic.Version[payg.Tiers], _ int) string { return v.Effective.String() })
	}
	return lo.Uniq(dates)
}

func newTablesCmd() *cobra.Command {
	var (
		format string
		asOf   string
	)

	cmd := &cobra.Command{
		Use:   "tables SCALE_ID",
		Short: "Print the published coefficients of one scale",
		Long: `Print the coefficient versions of one scale. With --as-of only the
version in force on that date is printed.

Examples:
  paygtax tables nat1004.scale2
  paygtax tables nat3539.scale2 --as-of 2023-08-01
  paygtax tables nat75331 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			catalog, err := loadCatalog()
			if err != nil {
				return err
			}
			scale, ok := catalog.Scale(payg.ScaleID(args[0]))
			if !ok {
				return fmt.Errorf("unknown scale %q (see 'paygtax scales')", args[0])
			}
			var on *generic.TimePoint
			if asOf != "" {
				d, err := generic.ParseDate(asOf)
				if err != nil {
					return err
				}
				on = &d
			}
			return printTables(cmd.OutOrStdout(), scale, on, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "only the version in force on this date")
	return cmd
}

func printTables(out io.Writer, scale payg.Scale, on *generic.TimePoint, format string) error {
	switch src := scale.(type) {
	case payg.TableSource:
		versions := src.Tables()
		if on != nil {
			versions = inForce(versions, *on)
		}
		if format == "json" {
			return writeJSON(out, versions)
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		for _, v := range versions {
			fmt.Fprintf(tw, "effective %s\t\t\t\n", v.Effective)
			fmt.Fprintln(tw, "UPPER\tRATE\tSUBTRACT\t")
			for _, b := range v.Value {
				fmt.Fprintf(tw, "%s\t%s\t%s\t\n", b.Upper, b.Rate, b.Subtract)
			}
			fmt.Fprintln(tw, "\t\t\t")
		}
		return tw.Flush()

	case payg.TierSource:
		versions := src.Tiers()
		if on != nil {
			versions = inForce(versions, *on)
		}
		if format == "json" {
			return writeJSON(out, versions)
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, v := range versions {
			fmt.Fprintf(tw, "effective %s\t\n", v.Effective)
			fmt.Fprintln(tw, "YTD UP TO\tRATE")
			for _, t := range v.Value.Bands {
				fmt.Fprintf(tw, "%s\t%s\n", t.UpTo, t.Rate)
			}
			fmt.Fprintf(tw, "above\t%s\n\n", v.Value.TopRate)
		}
		return tw.Flush()

	default:
		fmt.Fprintf(out, "%s has no coefficient table: %s\n", scale.ID(), scale.Description())
		return nil
	}
}

// inForce keeps the single version that applies on date, if any.
func inForce[T any](versions generic.Versions[T], date generic.TimePoint) generic.Versions[T] {
	var out generic.Versions[T]
	for _, v := range versions.Sorted() {
		if v.Effective.BeforeOrEqual(date) {
			out = generic.Versions[T]{v}
		}
	}
	return out
}
