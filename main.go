package main

import "github.com/naoyuki-hirata-biz/scraping-gn/cmd"

func main() {
	cmd.Execute()
}
