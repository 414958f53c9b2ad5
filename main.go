package main

import "leetlab/internal/server"

func main() {
	server.StartGinServer()
}
