package outputters

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/praetorian-inc/pulsar/pkg/types"
)

// JSONFileOutputter writes the credential records as indented JSON
// under the output directory.
type JSONFileOutputter struct {
	OutputPath string
	FileName   string
}

func NewJSONFileOutputter(outputPath string) *JSONFileOutputter {
	return &JSONFileOutputter{
		OutputPath: outputPath,
		FileName:   "credentials.json",
	}
}

func (o *JSONFileOutputter) Write(records []types.CredentialRecord) error {
	if len(records) == 0 {
		return nil
	}

	fullpath := filepath.Join(o.OutputPath, o.FileName)
	if err := os.MkdirAll(filepath.Dir(fullpath), os.ModePerm); err != nil {
		return err
	}

	file, err := os.Create(fullpath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return err
	}

	message.Success("JSON output written to %s", fullpath)
	return nil
}
