package outputters

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/praetorian-inc/pulsar/pkg/types"
)

// CSVFileOutputter writes the credential rows to a CSV file under the
// output directory.
type CSVFileOutputter struct {
	OutputPath string
	FileName   string
}

func NewCSVFileOutputter(outputPath string) *CSVFileOutputter {
	return &CSVFileOutputter{
		OutputPath: outputPath,
		FileName:   "credentials.csv",
	}
}

func (o *CSVFileOutputter) Write(records []types.CredentialRecord) error {
	if len(records) == 0 {
		return nil
	}

	fullpath := filepath.Join(o.OutputPath, o.FileName)
	if err := os.MkdirAll(filepath.Dir(fullpath), os.ModePerm); err != nil {
		return err
	}

	file, err := os.Create(fullpath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(types.Columns); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record.Row()); err != nil {
			return fmt.Errorf("error writing CSV row: %w", err)
		}
	}

	message.Success("CSV output written to %s (%d credentials)", fullpath, len(records))
	return nil
}
