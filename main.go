package main

import "github.com/KaramelBytes/mixclust/cmd"

func main() {
	cmd.Execute()
}
