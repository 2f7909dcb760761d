// Package buildinfo reports the version stamped into the binary at link
// time, e.g.
//
//	go build -ldflags "-X github.com/dmitrijs2005/candidates/internal/buildinfo.buildVersion=v1.0.0"
package buildinfo

import (
	"fmt"
	"io"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const notAvailable = "N/A"

func valueOrNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", valueOrNA(buildVersion))
	fmt.Fprintf(w, "Build date: %s\n", valueOrNA(buildDate))
	fmt.Fprintf(w, "Build commit: %s\n", valueOrNA(buildCommit))
}
