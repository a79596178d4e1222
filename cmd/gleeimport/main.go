// Command gleeimport validates and imports CSV files from the command line.
package main

import "github.com/joho/godotenv"

func main() {
	// A missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()
	Execute()
}
