package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"findidentical/types"
)

// printReport writes the console summary of a run
func printReport(w io.Writer, result *types.Result, histogram bool) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	for _, c := range result.Collections {
		fmt.Fprintf(w, "\n%s\n", cyan(fmt.Sprintf("=== %s (%s) ===", c.Name, c.Root)))
		fmt.Fprintf(w, "  Images:    %d\n", len(c.Files))
		if c.Discarded > 0 {
			fmt.Fprintf(w, "  Skipped:   %s\n", gray(fmt.Sprintf("%d non-image files", c.Discarded)))
		}
		if c.Malformed > 0 {
			fmt.Fprintf(w, "  Malformed: %s\n", yellow(fmt.Sprintf("%d images could not be read", c.Malformed)))
		}
		if histogram {
			printHistogram(w, c.Histogram)
		}
	}

	fmt.Fprintln(w)
	if result.GroupCount() == 0 {
		fmt.Fprintf(w, "%s\n", green("No identical images found."))
	}
	for _, bg := range result.Buckets {
		fmt.Fprintf(w, "%s\n", yellow(fmt.Sprintf("[%s] %d sets of identical images", bg.Key, len(bg.Groups))))
		for gi, g := range bg.Groups {
			fmt.Fprintf(w, "  set %d:\n", gi)
			for _, ref := range g {
				fmt.Fprintf(w, "    %s\n", result.DisplayPath(ref))
			}
		}
	}

	if result.DecodeFailures > 0 {
		fmt.Fprintf(w, "%s\n", yellow(fmt.Sprintf("%d images failed to decode and were not compared", result.DecodeFailures)))
	}

	mode := "sparse"
	if result.Exhaustive {
		mode = "every pixel"
	}
	fmt.Fprintf(w, "\nFound %s identical images in %d sets (%s check) among %d images in %v.\n",
		green(result.IdenticalCount()), result.GroupCount(), mode, result.TotalImages(), result.Elapsed.Round(time.Millisecond))
}

func printHistogram(w io.Writer, entries []types.HistogramEntry) {
	fmt.Fprintf(w, "  %-20s %s\n", "image_dimension", "image_count")
	for _, e := range entries {
		fmt.Fprintf(w, "  %-20s %d\n", e.Key, e.Count)
	}
}
