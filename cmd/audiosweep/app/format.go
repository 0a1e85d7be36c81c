package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/cwbudde/algo-audiotest/dsp/core"
	"github.com/cwbudde/algo-audiotest/measure/level"
	"github.com/cwbudde/algo-audiotest/measure/sweep"
)

func formatHz(f float64) string {
	return humanize.SIWithDigits(f, 2, "Hz")
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeSweepTable(w io.Writer, res sweep.Result) error {
	tw := newTable(w)
	if _, err := fmt.Fprintf(tw, "Frequency\tFs\tSamples\tPeriods\tRMS [V]\tGain [dB]\tPhase [deg]\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "---------\t--\t-------\t-------\t-------\t---------\t-----------\n"); err != nil {
		return err
	}

	for _, p := range res.Points {
		ph := "-"
		if p.HasPhase {
			ph = fmt.Sprintf("%.2f", p.Phase)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%.6f\t%.3f\t%s\n",
			formatHz(p.Frequency),
			formatHz(p.SamplingFrequency),
			humanize.Comma(int64(p.Samples)),
			p.Periods,
			p.RMS,
			p.GainDB,
			ph,
		); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, s := range res.Skipped {
		if _, err := fmt.Fprintf(w, "skipped %s: %v\n", formatHz(s.Frequency), s.Err); err != nil {
			return err
		}
	}

	if len(res.Points) < 2 {
		return nil
	}
	sum, err := res.Summary()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\npeak %+.2f dB at %s, range %.2f dB, -%g dB band %s to %s\n",
		sum.Peak, formatHz(sum.PeakFrequency), sum.Range, sum.Drop,
		formatEdge(sum.Lower, sum.LowerFound), formatEdge(sum.Upper, sum.UpperFound))
	return err
}

// formatEdge marks band edges that lie outside the swept range.
func formatEdge(f float64, found bool) string {
	if found {
		return formatHz(f)
	}
	return "(" + formatHz(f) + ")"
}

func writeScaleTable(w io.Writer, scale sweep.LogScale, sampling sweep.Sampling) error {
	tw := newTable(w)
	if _, err := fmt.Fprintf(tw, "#\tFrequency\tFs\tRatio\tPeriods\tSamples\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "-\t---------\t--\t-----\t-------\t-------\n"); err != nil {
		return err
	}

	for i, f := range scale.Frequencies() {
		p, err := sampling.Plan(f)
		if err != nil {
			if _, err := fmt.Fprintf(tw, "%d\t%s\t%v\t\t\t\n", i, formatHz(f), err); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%.1f\t%s\n",
			i,
			formatHz(f),
			formatHz(p.SamplingFrequency),
			p.OversamplingRatio,
			p.Periods,
			humanize.Comma(int64(p.Samples)),
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeLevelResult(w io.Writer, res level.Result) error {
	tw := newTable(w)
	rows := []struct {
		name, value string
	}{
		{"Amplitude", fmt.Sprintf("%.4f Vpp", res.Amplitude)},
		{"Level", fmt.Sprintf("%.4f Vrms (%+.2f dBu)", res.RMS, core.VrmsToDBu(res.RMS))},
		{"Gain", fmt.Sprintf("%.2f dB", res.GainDB)},
		{"Iterations", fmt.Sprintf("%d", res.Iterations)},
		{"Controller gain", fmt.Sprintf("%.4g", res.Gain)},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", r.name, r.value); err != nil {
			return err
		}
	}
	return tw.Flush()
}
