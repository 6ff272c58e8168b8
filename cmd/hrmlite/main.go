package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/phillip-england/hrmlite/internal/hrmcli"
)

func main() {
	if err := hrmcli.Execute(os.Args[1:]); err != nil {
		if errors.Is(err, hrmcli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr)
			hrmcli.PrintUsage(os.Stderr)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
