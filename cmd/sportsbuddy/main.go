// Command sportsbuddy runs the SportsBuddy event API and its operator tasks.
package main

import (
	"fmt"
	"os"
)

// @title SportsBuddy API
// @version 1.0
// @description Create sports events, join and leave them.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
