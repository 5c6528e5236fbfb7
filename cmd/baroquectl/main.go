package main

import "go.cbdd.dev/baroquedb/cmd/baroquectl/baroquectlcmd"

func main() { baroquectlcmd.Execute() }
