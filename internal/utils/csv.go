package utils

import (
	"encoding/csv"
	"fmt"

	"github.com/facette/natsort"
)

// CSV rows sort naturally by their first column.
type CSV [][]string

func (data CSV) Less(i, j int) bool {
	return natsort.Compare(data[i][0], data[j][0])
}

func (data CSV) Len() int {
	return len(data)
}
func (data CSV) Swap(i, j int) {
	data[i], data[j] = data[j], data[i]
}

// WriteAsCSV writes the header and the rows in their given order and returns
// the path of the written file.
func WriteAsCSV(data CSV, path, subpath, filename string, columns []string) (string, error) {
	file, err := OpenFile(path, subpath, filename)
	if err != nil {
		return "", fmt.Errorf("unable to save %s: %w", filename, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("error writing csv: %w", err)
	}
	if err := w.WriteAll(data); err != nil {
		return "", fmt.Errorf("error writing csv: %w", err)
	}
	return file.Name(), file.Close()
}
