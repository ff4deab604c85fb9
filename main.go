/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/newsroom-api/server/cmd"

func main() {
	cmd.Execute()
}
