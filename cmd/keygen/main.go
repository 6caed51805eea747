package main

import (
	"fmt"
	"os"

	"nihongo/internal/credentials"
)

// keygen prints a new deploy pipeline key and the hash to put in AUTOMATION_KEY_HASH
func main() {
	generated, err := credentials.GenerateAutomationKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Automation key (give this to the deploy pipeline, it is shown only once):")
	fmt.Println("  " + generated.Key)
	fmt.Println()
	fmt.Println("Set this in the server environment:")
	fmt.Printf("  AUTOMATION_KEY_HASH='%s'\n", generated.Hash)
}
