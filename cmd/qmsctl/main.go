package main

import "github.com/upb/qms-dashboard/cmd/qmsctl/cmd"

func main() {
	cmd.Execute()
}
