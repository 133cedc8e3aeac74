package main

import (
	"os"

	recuerdocmder "github.com/recuerdo-dev/recuerdo/cmd/recuerdo"
)

func main() {
	cmd := recuerdocmder.NewRecuerdoCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
