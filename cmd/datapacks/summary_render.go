package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"datapacks/internal/report"
	"datapacks/internal/status"
)

// renderSummary prints per-type counts and the failure reasons of a run.
func renderSummary(sum report.Summary, colorize bool) string {
	var b strings.Builder
	for _, line := range renderSectionHeader("Build summary", colorize) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if sum.Empty() {
		b.WriteString(renderStatusLine("DataPacks", statusInfo, "nothing to build", colorize))
		b.WriteByte('\n')
		return b.String()
	}
	if sum.HeadersOnly {
		b.WriteString(renderStatusLine("Headers only", statusInfo, "parent records uploaded first", colorize))
		b.WriteByte('\n')
	}
	if !sum.SupportParallel {
		b.WriteString(renderStatusLine("Parallel", statusInfo, "off", colorize))
		b.WriteByte('\n')
	}

	b.WriteString(renderCountsTable(sum))
	b.WriteByte('\n')

	kind := statusOK
	if sum.Errors > 0 {
		kind = statusError
	} else if sum.Remaining > 0 {
		kind = statusWarn
	}
	b.WriteString(renderStatusLine("Result", kind,
		fmt.Sprintf("%d successful, %d errors, %d remaining", sum.Success, sum.Errors, sum.Remaining), colorize))
	b.WriteByte('\n')

	keys := make([]string, 0, len(sum.Reasons))
	for key := range sum.Reasons {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		b.WriteString(renderStatusLine(key, statusError, sum.Reasons[key], colorize))
		b.WriteByte('\n')
	}
	for _, typ := range sortedKeys(sum.Unmatched) {
		b.WriteString(renderStatusLine("Manifest", statusWarn,
			fmt.Sprintf("%s: no match for %s", typ, strings.Join(sum.Unmatched[typ], ", ")), colorize))
		b.WriteByte('\n')
	}
	return b.String()
}

// renderCountsTable prints one row per DataPack type with a totals footer.
func renderCountsTable(sum report.Summary) string {
	rows, totals := summaryRows(sum)
	return renderTableWithFooter(
		[]string{"Type", "Success", "Error", "Ignored", "Remaining"},
		rows,
		totals,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}

func summaryRows(sum report.Summary) (rows [][]string, footer []string) {
	groups := []string{string(status.Success), string(status.Error), string(status.Ignored), report.RemainingGroup}
	counts := make(map[string][]int)
	for gi, group := range groups {
		for typ, names := range sum.Keys[group] {
			row := counts[typ]
			if row == nil {
				row = make([]int, len(groups))
				counts[typ] = row
			}
			row[gi] += len(names)
		}
	}
	totals := make([]int, len(groups))
	rows = make([][]string, 0, len(counts))
	for _, typ := range sortedKeys(counts) {
		row := []string{typ}
		for gi, n := range counts[typ] {
			row = append(row, strconv.Itoa(n))
			totals[gi] += n
		}
		rows = append(rows, row)
	}
	footer = []string{"Total"}
	for _, n := range totals {
		footer = append(footer, strconv.Itoa(n))
	}
	return rows, footer
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
