package engine

// ============================================================================
// PIVOT BUILDER — Two-dimensional aggregate tables
// ============================================================================
// Crosses one row dimension with one column dimension and reduces the
// measure per cell. The dense Values matrix is consumed directly by the
// heatmap builder; empty cells hold zero.
// ============================================================================

// Pivot groups a view by rowDim × colDim and reduces measure per cell.
// Row and column label order follow the given sort modes (see SortGroups).
func Pivot(view RecordView, rowDim, colDim, measure, aggregation, rowSort, colSort string) *PivotTable {
	if view.Len() == 0 {
		return &PivotTable{RowDim: rowDim, ColDim: colDim}
	}

	rows := GroupAndAggregate(view, []string{rowDim, colDim}, measure, aggregation, rowSort, 0)

	// Collect the full column label set across all rows.
	colGroups := groupBySingle(view, colDim)
	for i := range colGroups {
		aggregateGroup(&colGroups[i], measure, aggregation)
	}
	SortGroups(colGroups, colSort)

	colIndex := make(map[string]int, len(colGroups))
	colLabels := make([]string, len(colGroups))
	for i, g := range colGroups {
		colIndex[g.Key] = i
		colLabels[i] = g.Label
	}

	table := &PivotTable{
		RowDim:    rowDim,
		ColDim:    colDim,
		ColLabels: colLabels,
		RowLabels: make([]string, len(rows)),
		Values:    make([][]float64, len(rows)),
	}

	for ri, rg := range rows {
		table.RowLabels[ri] = rg.Label
		table.Values[ri] = make([]float64, len(colLabels))
		for _, sg := range rg.SubGroups {
			if ci, ok := colIndex[sg.Key]; ok {
				table.Values[ri][ci] = sg.Value
			}
		}
	}

	return table
}
