package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Output receives one formatted HTTP exchange per request.
type Output interface {
	Write(id string, contents string)
}

// FilesystemOutput writes captured exchanges to one file per request
// under a directory, which makes a debug run's traffic greppable
// after the fact.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) FilesystemOutput {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		panic(err)
	}
	return FilesystemOutput{directory: dir}
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id+".txt"), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write captured exchange", "id", id, "err", err)
	}
}
