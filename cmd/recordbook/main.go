/*
Package main is the entry point for the recordbook CLI.

recordbook keeps a class roster, observation records classified by category,
subcategory and observation point, and a log of generated evaluation drafts.

Usage:

	recordbook [command]

Available Commands:

	init        Create the config file and seed the record store
	students    Manage the class roster
	records     List and save observation records
	generate    Compose evaluation drafts from saved observations
	generated   List generated drafts, newest first
	search      Full-text search over memos and generated drafts
	export      Export students, records and drafts to a file
	serve       Run the HTTP API
	help        Help about any command

Examples:

	# Record that student 1 listens well during class discussion
	recordbook records save --student 1 --sub 듣기말하기 --point 경청태도 --check 0

	# Draft evaluations for every student
	recordbook generate --style 서술체 --length 300
*/
package main

import (
	"fmt"
	"os"

	"github.com/khanglvm/recordbook/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
