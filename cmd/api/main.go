package main

// @title Playlist Bot APIs
// @version 1.0
// @description LINE chat bot that builds a shared Spotify playlist per chat.

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:9089
// @BasePath /
// @schemes http
import (
	_ "playlist-bot/docs"
	protocol "playlist-bot/protocal"

	"github.com/sirupsen/logrus"
)

func main() {
	err := protocol.ServeHTTP()
	if err != nil {
		logrus.Fatalln(err)
	}
}
