package utils

import "fmt"

// GenerateSeatLabels lays out rows×perRow seats as A1..A<perRow>, B1..
// Rows past Z continue as AA, AB, ...
func GenerateSeatLabels(rows, perRow int) []string {
	if rows <= 0 || perRow <= 0 {
		return nil
	}

	labels := make([]string, 0, rows*perRow)
	for r := 0; r < rows; r++ {
		row := rowName(r)
		for c := 1; c <= perRow; c++ {
			labels = append(labels, fmt.Sprintf("%s%d", row, c))
		}
	}
	return labels
}

func rowName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}
