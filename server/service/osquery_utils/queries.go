// Package osquery_utils holds the bootstrap queries every agent runs and
// the ingestion logic that folds their results into the host record.
package osquery_utils

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/fincham/mango/server/mango"
)

// BootstrapQuery is a query that runs on every enrolled agent regardless
// of tag membership. Results with a matching IngestAction are folded into
// the host record via IngestFunc instead of being stored as log entries.
type BootstrapQuery struct {
	Query    string
	Interval uint
	Snapshot bool
	// IngestAction is the osquery action ("added" or "snapshot") whose
	// results IngestFunc consumes. Results with any other action are
	// discarded.
	IngestAction string
	IngestFunc   func(host *mango.Host, rows []map[string]interface{}) error
}

// bootstrapQueries maps the full schedule name of each bootstrap query to
// its definition. Names carry no admin prefix so they can never collide
// with operator-defined queries.
var bootstrapQueries = map[string]BootstrapQuery{
	"mango_os-version": {
		Query:        "SELECT * FROM os_version;",
		Interval:     10,
		IngestAction: mango.ActionAdded,
		IngestFunc:   ingestOSVersion,
	},
	// system-info runs as a snapshot so it doubles as a keepalive.
	"mango_system-info": {
		Query:        "SELECT * FROM system_info;",
		Interval:     60,
		Snapshot:     true,
		IngestAction: mango.ActionSnapshot,
		IngestFunc:   ingestSystemInfo,
	},
	"mango_osrelease": {
		Query:        "select current_value from system_controls where name = 'kernel.osrelease';",
		Interval:     10,
		IngestAction: mango.ActionAdded,
		IngestFunc:   ingestOSRelease,
	},
}

// GetBootstrapQueries returns the bootstrap query table keyed by schedule
// name.
func GetBootstrapQueries() map[string]BootstrapQuery {
	return bootstrapQueries
}

func ingestOSVersion(host *mango.Host, rows []map[string]interface{}) error {
	for _, row := range rows {
		version, ok := row["version"]
		if !ok {
			return errors.New("missing version column")
		}
		host.Release = parseKernelRelease(cast.ToString(version))
	}
	return nil
}

func ingestOSRelease(host *mango.Host, rows []map[string]interface{}) error {
	for _, row := range rows {
		value, ok := row["current_value"]
		if !ok {
			return errors.New("missing current_value column")
		}
		host.Architecture = parseArchitecture(cast.ToString(value))
	}
	return nil
}

// Last row wins when a snapshot carries more than one.
func ingestSystemInfo(host *mango.Host, rows []map[string]interface{}) error {
	for _, row := range rows {
		brand, ok := row["cpu_brand"]
		if !ok {
			return errors.New("missing cpu_brand column")
		}
		memory, ok := row["physical_memory"]
		if !ok {
			return errors.New("missing physical_memory column")
		}
		host.CPUBrand = cast.ToString(brand)
		host.RAM = cast.ToInt64(memory)
	}
	return nil
}

// parseKernelRelease extracts the kernel release from an os_version
// version string such as "Ubuntu 22.04.1 LTS (5.15.0-56-generic)". The
// release is the last whitespace-separated token with any surrounding
// parentheses removed.
func parseKernelRelease(version string) string {
	fields := strings.Fields(version)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[len(fields)-1], "()")
}

// parseArchitecture extracts the architecture suffix from a kernel
// release string such as "5.15.0-56-generic", everything after the last
// "-". A string with no "-" is returned whole.
func parseArchitecture(release string) string {
	i := strings.LastIndex(release, "-")
	return release[i+1:]
}
