package main

import (
	"log"
	"os"

	"explainit-service/internal/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("explainit: ")
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
