package main

import "github.com/myblog/myblog/cmd/blogctl/cmd"

func main() {
	cmd.Execute()
}
