package catalog

// textDataset builds a dataset whose non-blank cells are all text.
func textDataset(name string, columns []string, rows ...[]string) *Dataset {
	ds := &Dataset{Name: name, Columns: columns}
	for _, rec := range rows {
		row := make([]Cell, len(rec))
		for i, v := range rec {
			row[i] = TextCell(v)
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

func dictionaryFixture() *Dataset {
	return textDataset("dictionary.csv",
		[]string{"canonical", "type", "notes", "syn1", "syn2"},
		[]string{"FAN", "", "", "VENTILADOR", "BLOWER"},
		[]string{"V", "unit", "", "VOLT", "Voltios"},
		[]string{"A", "unit", "", "AMP", "Amperios"},
		[]string{"MOTOR", "", "", "Motor eléctrico", ""},
	)
}

func catalogFixture() *Dataset {
	return textDataset("catalog.csv",
		[]string{"code", "description"},
		[]string{"F-001", "Unidad VENTILADOR 24V"},
		[]string{"F-002", "Blower industrial 230 voltios"},
		[]string{"M-001", "Motor eléctrico 120V 2A"},
		[]string{"M-002", "Motor 12V"},
		[]string{"X-001", "Cable x100y"},
	)
}
