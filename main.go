package main

import "github.com/dlpscan/dlpscan/cmd/dlpscan"

func main() { dlpscan.Execute() }
