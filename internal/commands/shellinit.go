package commands

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

//go:embed shellscripts/wt.sh
var bashZshInit []byte

//go:embed shellscripts/wt.fish
var fishInit []byte

// shellInitCommand prints the shell-integration wrapper for the requested
// shell, mirroring the teacher's completionCommand (cmd/lazyworktree/
// completion.go), which embeds and prints shell scripts the same way — the
// spec's directive protocol (§4.H) needs exactly this kind of wrapper
// function to source `cd`/`exec` lines back into the caller's shell.
func shellInitCommand() *cli.Command {
	return &cli.Command{
		Name:      "shell-init",
		Usage:     "Print the shell integration wrapper enabling cd-on-switch",
		ArgsUsage: "<bash|zsh|fish>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return fmt.Errorf("usage: wt shell-init <bash|zsh|fish>")
			}
			switch cmd.Args().Get(0) {
			case "bash", "zsh":
				_, err := os.Stdout.Write(bashZshInit)
				return err
			case "fish":
				_, err := os.Stdout.Write(fishInit)
				return err
			default:
				return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish)", cmd.Args().Get(0))
			}
		},
	}
}
