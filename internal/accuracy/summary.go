package accuracy

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// WriteSummary renders a plain-text report of result, groups sorted by id
func WriteSummary(w io.Writer, result *domain.AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("no analysis result to summarize")
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Overall MAPE: %.2f%%\n", result.OverallMAPE)
	fmt.Fprintf(bw, "Total Records: %d\n", result.TotalRecords)
	fmt.Fprintf(bw, "Unmatched Forecast Records: %d\n", result.UnmatchedForecastRecords)
	fmt.Fprintf(bw, "Unmatched Actual Records: %d\n", result.UnmatchedActualRecords)

	if groups := result.Groups(); len(groups) > 0 {
		fmt.Fprint(bw, "\nPer-Group MAPE:\n")
		for _, g := range groups {
			fmt.Fprintf(bw, "  %s: %.2f%%\n", g, result.GroupMAPE[g])
		}
	}

	return bw.Flush()
}
