package commands

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Documents []string `arg:"" name:"document" help:"Document paths relative to the source directory (extension optional)"`
}

func (r *RenderCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	return RunBuild(cfg, r.Documents)
}
