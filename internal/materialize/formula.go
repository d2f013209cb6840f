package materialize

import (
	"regexp"
	"strings"
)

var (
	sumRe     = regexp.MustCompile(`(?:SUM|JUMLAH)\s*\(\s*([A-Z]+[0-9]+)\s*:\s*([A-Z]+[0-9]+)\s*\)`)
	averageRe = regexp.MustCompile(`(?:AVERAGE|RATA-RATA)\s*\(\s*([A-Z]+[0-9]+)\s*:\s*([A-Z]+[0-9]+)\s*\)`)
	arithRe   = regexp.MustCompile(`=\s*([A-Z]+[0-9]+(?:\s*[\+\-\*\/]\s*[A-Z]+[0-9]+)*)`)
)

// NormalizeCell recognizes spreadsheet formulas written as text. It returns the cell value
// and whether that value is a formula (always "="-prefixed when it is). Rules, first match wins:
//   - a value starting with "=" passes through unchanged;
//   - SUM( or JUMLAH( with a range becomes =SUM(range), without one stays text;
//   - AVERAGE( or RATA-RATA( likewise becomes =AVERAGE(range);
//   - "=" followed by cell references joined by + - * / anywhere in the value becomes that formula.
func NormalizeCell(cell string) (string, bool) {
	if strings.HasPrefix(cell, "=") {
		return cell, true
	}
	upper := strings.ToUpper(cell)
	if strings.Contains(upper, "SUM(") || strings.Contains(upper, "JUMLAH(") {
		if m := sumRe.FindStringSubmatch(upper); m != nil {
			return "=SUM(" + m[1] + ":" + m[2] + ")", true
		}
		return cell, false
	}
	if strings.Contains(upper, "AVERAGE(") || strings.Contains(upper, "RATA-RATA(") {
		if m := averageRe.FindStringSubmatch(upper); m != nil {
			return "=AVERAGE(" + m[1] + ":" + m[2] + ")", true
		}
		return cell, false
	}
	if m := arithRe.FindStringSubmatch(cell); m != nil {
		return "=" + m[1], true
	}
	return cell, false
}
