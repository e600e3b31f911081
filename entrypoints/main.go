package main

import "github.com/Laisky/nft-uploader/cmd"

func main() {
	cmd.Execute()
}
