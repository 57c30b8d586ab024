package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cptaffe/nvgrid/gridfs"
	"github.com/cptaffe/nvgrid/internal/input"
	"github.com/spf13/cobra"
)

// dial loads the configuration for its socket path and connects.
func (g *globalFlags) dial(cmd *cobra.Command) (*gridfs.Client, error) {
	cfg, err := g.load(cmd, nil)
	if err != nil {
		return nil, err
	}
	return gridfs.Dial(cfg.Srv)
}

func newDumpCmd(g *globalFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "dump [grid...]",
		Short: "Print grid text, or any file with --file",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			out := cmd.OutOrStdout()

			if file != "" {
				s, err := c.ReadFile(file)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, s)
				return err
			}

			var ids []int
			for _, a := range args {
				id, err := strconv.Atoi(a)
				if err != nil {
					return fmt.Errorf("bad grid id %q", a)
				}
				ids = append(ids, id)
			}
			if len(ids) == 0 {
				if ids, err = c.Grids(); err != nil {
					return err
				}
			}
			for _, id := range ids {
				text, err := c.GridText(id)
				if err != nil {
					return fmt.Errorf("grid %d: %w", id, err)
				}
				if len(ids) > 1 {
					fmt.Fprintf(out, "--- grid %d\n", id)
				}
				fmt.Fprint(out, text)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file to print, e.g. mode or grids/1/hl")
	return cmd
}

func newInputCmd(g *globalFlags) *cobra.Command {
	var keys []string
	var mods string
	cmd := &cobra.Command{
		Use:   "input [text...]",
		Short: "Send text and named keys to the editor",
		Long: `Send text and named keys to the editor.  Text arguments are sent
literally; --key names such as Escape or Page_Down are sent as key
notation with the --mod modifiers held.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := input.ParseModifiers(mods)
			if err != nil {
				return err
			}
			var sb strings.Builder
			sb.WriteString(input.Commit(strings.Join(args, " ")))
			for _, k := range keys {
				s, ok := input.Key(k, m)
				if !ok {
					return fmt.Errorf("unknown key %q", k)
				}
				sb.WriteString(s)
			}
			if sb.Len() == 0 {
				return fmt.Errorf("nothing to send")
			}

			c, err := g.dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Input(sb.String())
		},
	}
	cmd.Flags().StringArrayVarP(&keys, "key", "k", nil, "named key to send after the text (repeatable)")
	cmd.Flags().StringVarP(&mods, "mod", "m", "", "modifiers for --key, e.g. ctrl,shift")
	return cmd
}

func newResizeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resize width height",
		Short: "Set the window allocation in pixels",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("bad width %q", args[0])
			}
			h, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("bad height %q", args[1])
			}
			c, err := g.dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Resize(w, h)
		},
	}
}

func newQuitCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "quit",
		Short: "Detach from the editor and stop the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Quit()
		},
	}
}
