package main

import "github.com/walletscan/walletscan/cmd/walletscan"

func main() { walletscan.Execute() }
