package main

import "git.fiblab.net/sim/roadnet/app"

func main() {
	app.Main(app.StagePaths)
}
