package main

import (
	"os"

	"github.com/specguard/sentinel/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
