// Package outputters renders collected credential records to the
// console and to report files.
package outputters

import (
	"fmt"
	"io"
	"os"

	"github.com/praetorian-inc/pulsar/pkg/types"
)

// ConsoleOutputter prints the credential table to a writer, stdout by
// default.
type ConsoleOutputter struct {
	Out io.Writer
}

func NewConsoleOutputter() *ConsoleOutputter {
	return &ConsoleOutputter{Out: os.Stdout}
}

func (o *ConsoleOutputter) Write(heading string, records []types.CredentialRecord) error {
	if len(records) == 0 {
		return nil
	}
	table := types.RecordTable(heading, records)
	_, err := fmt.Fprint(o.Out, table.ToString())
	return err
}
