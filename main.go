/*
Copyright © 2025 ttylabs
*/
package main

import "github.com/ttylabs/serialpcap/cmd"

func main() {
	cmd.Execute()
}
