package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/finwise/internal/admin"
)

func main() {
	if err := admin.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
