// authq queries linked-data authorities and normalizes their results.
package main

import "github.com/agentic-research/authq/cmd"

func main() {
	cmd.Execute()
}
