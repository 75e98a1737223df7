package main

import "github.com/eleven-am/vision-service/internal/bootstrap"

func main() {
	bootstrap.Run()
}
