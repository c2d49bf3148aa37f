// Command httpd serves the review and location search endpoints. The config file
// path is read from CONFIG_PATH.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonesrussell/yelp-search/internal/bootstrap"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := bootstrap.Start(context.Background(), ""); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
