// ad-console is the server-side console for lab directory administration.
//
// It fronts a set of external admin scripts (JSON on stdin, JSON on
// stdout) with an HTTP API: cached listings of users, groups, OUs, and
// computers, user lifecycle operations, CSV bulk import, sequential
// batch runs with progress, and connection sessions derived from the
// directory event log.
//
// Usage:
//
//	ad-console serve --scripts-dir /opt/lab/scripts   # run the gateway
//	ad-console import students.csv --password ...     # bulk-create users
//	ad-console install --scripts-dir /opt/lab/scripts # system service
//	ad-console status
package main

import "github.com/aulanet-io/ad-console/cmd"

var version = "dev"

func main() {
	cmd.Execute(version)
}
