// Command api serves the lesson activities HTTP API.
package main

import (
	"log"
)

func main() {
	if err := startWithDig(); err != nil {
		log.Fatalf("api: %+v", err)
	}
}
