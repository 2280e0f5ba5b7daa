package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/op/go-logging"
	"github.com/quillpay/quill/core"
	"github.com/quillpay/quill/repo"
	"github.com/quillpay/quill/version"
)

var log = logging.MustGetLogger("CMD")

// Start is the main entry point for quill. The options to this
// command are the same as the wallet node config options.
type Start struct {
	repo.Config
}

// Execute starts the wallet node.
func (x *Start) Execute(args []string) error {
	cfg, _, err := repo.LoadConfig()
	if err != nil {
		return err
	}

	n, err := core.NewNode(context.Background(), cfg)
	if err != nil {
		return err
	}
	printSplashScreen()
	n.Start()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	log.Info("Quill shutting down...")
	n.Stop()
	os.Exit(1)

	return nil
}

func printSplashScreen() {
	blue := color.New(color.FgBlue)
	white := color.New(color.FgWhite)

	for i, l := range []string{
		`  ________       .__.__  .__   `,
		`  \_____  \  __ __|__|  | |  |  `,
		`   /  / \  \|  |  \  |  | |  |  `,
		`  /   \_/.  \  |  /  |  |_|  |__`,
		`  \_____\ \_/____/|__|____/____/`,
		`         \__>                   `,
	} {
		if i%2 == 0 {
			if _, err := white.Println(l); err != nil {
				log.Debug(err)
				return
			}
			continue
		}
		if _, err := blue.Println(l); err != nil {
			log.Debug(err)
			return
		}
	}

	blue.DisableColor()
	white.DisableColor()
	fmt.Printf("\nquill v%s\n", version.String())
}
