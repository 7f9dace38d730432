// Package main is responsible for the main func of hy2nginx.  The actual
// work is done in the cmd package.
package main

import "github.com/wkjw/clash-jiaoben-vps-vpn/internal/cmd"

func main() {
	cmd.Main()
}
