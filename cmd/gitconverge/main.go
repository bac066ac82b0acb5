// Command gitconverge runs git operations and reconciles hosted releases,
// milestones and issues.
package main

import "github.com/MyCarrier-DevOps/go-gitconverge/cmd"

func main() {
	cmd.Execute()
}
