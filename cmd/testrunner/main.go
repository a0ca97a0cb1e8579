package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lawnchairsociety/chronicle/internal/testclient"
)

func main() {
	serverAddr := flag.String("addr", "localhost:8080", "Chronicle server address")
	verbose := flag.Bool("v", false, "Verbose output - show detailed actions for each scenario")
	flag.Parse()

	testclient.Verbose = *verbose

	fmt.Printf("Running smoke tests against %s\n", *serverAddr)
	fmt.Println("Make sure the chronicle server is running!")
	fmt.Println()

	results := testclient.RunAll(*serverAddr)
	testclient.PrintResults(results)

	for _, result := range results {
		if !result.Passed {
			os.Exit(1)
		}
	}
}
