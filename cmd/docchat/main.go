package main

import (
	"log"

	"docchat/cli"
	"docchat/config"
)

func main() {
	err := cli.Execute()
	config.Cleanup()
	if err != nil {
		log.Fatal(err)
	}
}
