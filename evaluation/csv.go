package evaluation

import (
	"encoding/csv"
	"io"
	"strconv"
)

// CSVHeader 结果文件表头.
var CSVHeader = []string{
	"strategy", "param", "episodes",
	"wealth_mean", "wealth_stddev",
	"inv_mean", "inv_stddev",
	"spread_mean", "spread_stddev",
	"wealth_q25", "wealth_median", "wealth_q75",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV 写出表头与每条记录.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Strategy, formatFloat(r.Param), strconv.Itoa(r.Episodes),
			formatFloat(r.Wealth.Mean), formatFloat(r.Wealth.StdDev),
			formatFloat(r.Inventory.Mean), formatFloat(r.Inventory.StdDev),
			formatFloat(r.Spread.Mean), formatFloat(r.Spread.StdDev),
			formatFloat(r.WealthQuartiles[0]), formatFloat(r.WealthQuartiles[1]), formatFloat(r.WealthQuartiles[2]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
