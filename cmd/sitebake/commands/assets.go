package commands

import (
	"context"
	"fmt"
)

// AssetsCmd implements the 'assets' command.
type AssetsCmd struct{}

func (a *AssetsCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}

	svc, flush := newService(cfg)
	defer flush()

	list, err := svc.Assets(context.Background(), cfg)
	if err != nil {
		return err
	}
	for _, asset := range list {
		fmt.Println(asset.Tag)
	}
	return nil
}
