package main

import (
	_ "github.com/joho/godotenv/autoload"

	"roamexport/cmd"
)

func main() {
	cmd.Execute()
}
