package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/cptaffe/nvgrid/internal/config"
	"github.com/cptaffe/nvgrid/internal/rpc"
	"github.com/cptaffe/nvgrid/internal/server"
	"github.com/cptaffe/nvgrid/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// stdinFD is where a piped stdin lands in the editor: the first extra file.
const stdinFD = 3

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		stdin    bool
		use9p    bool
		nvimBin  string
		nvimAddr string
		width    int
		height   int
	)
	cmd := &cobra.Command{
		Use:   "run [flags] [-- nvim args...]",
		Short: "Attach to Neovim and serve its UI state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd, func(v *viper.Viper) error {
				for key, name := range map[string]string{
					"nvim.binary": "nvim",
					"nvim.server": "server",
					"ui.width":    "width",
					"ui.height":   "height",
				} {
					if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Nvim.Args = args
			}
			return run(cmd.Context(), cfg, stdin, use9p)
		},
	}
	cmd.Flags().BoolVar(&stdin, "stdin", false, "pass stdin to the editor as a buffer (nvim -)")
	cmd.Flags().BoolVar(&use9p, "9pserve", false, "announce through 9pserve instead of listening directly")
	cmd.Flags().StringVar(&nvimBin, "nvim", "", "editor binary (default: nvim)")
	cmd.Flags().StringVar(&nvimAddr, "server", "", "dial a listening editor instead of spawning one")
	cmd.Flags().IntVar(&width, "width", 0, "initial width in cells")
	cmd.Flags().IntVar(&height, "height", 0, "initial height in cells")
	return cmd
}

func run(ctx context.Context, cfg config.Config, stdin, use9p bool) error {
	ctx, l, err := setupLogger(ctx, cfg.Log.Verbose)
	if err != nil {
		return err
	}
	defer l.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, shutdownSignals...)
	defer stop()

	conn, editor, err := connect(ctx, cfg, stdin)
	if err != nil {
		return err
	}

	attach := rpc.DefaultAttachOptions()
	if stdin {
		attach.StdinFD = stdinFD
	}
	sess := server.NewSession(ctx, conn, server.Options{
		Cols:           cfg.UI.Width,
		Rows:           cfg.UI.Height,
		Font:           cfg.Font.Font(),
		Debounce:       cfg.UI.ResizeDebounce,
		PopupmenuBatch: cfg.UI.PopupmenuBatch,
		Attach:         attach,
	})

	// The file server lives as long as the session.
	srvCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	srv := server.NewServer(srvCtx, sess)

	var grp errgroup.Group
	grp.Go(func() error {
		defer cancel()
		return sess.Run()
	})

	if use9p {
		rwc, cleanup, err := listen(cfg.Srv)
		if err != nil {
			cancel()
			sess.Stop()
			return errors.Join(err, grp.Wait())
		}
		go func() {
			<-srvCtx.Done()
			cleanup()
		}()
		l.Info("announced", zap.String("addr", cfg.Srv))
		srv.ServeConn(rwc)
	} else {
		os.Remove(cfg.Srv)
		ln, err := net.Listen("unix", cfg.Srv)
		if err != nil {
			cancel()
			sess.Stop()
			return errors.Join(fmt.Errorf("listen %s: %w", cfg.Srv, err), grp.Wait())
		}
		defer os.Remove(cfg.Srv)
		grp.Go(func() error {
			err := srv.Serve(ln)
			if err != nil {
				sess.Stop()
			}
			return err
		})
	}

	err = grp.Wait()
	if editor != nil {
		waitEditor(ctx, editor)
	}

	l.Info("shutting down; waiting for connections")
	done := make(chan struct{})
	go func() { srv.Wait(); close(done) }()
	select {
	case <-done:
		l.Info("shutdown complete")
	case <-time.After(5 * time.Second):
		l.Warn("shutdown timed out; exiting anyway")
	}
	return err
}

// connect dials cfg.Nvim.Server when set and otherwise spawns the editor.
// The returned command is nil for a dialed editor.
func connect(ctx context.Context, cfg config.Config, stdin bool) (*rpc.Conn, *exec.Cmd, error) {
	log := logger.L(ctx)
	if cfg.Nvim.Server != "" {
		if stdin {
			return nil, nil, errors.New("--stdin needs a spawned editor")
		}
		log.Info("dialing editor", zap.String("addr", cfg.Nvim.Server))
		conn, err := rpc.Dial(ctx, cfg.Nvim.Server)
		return conn, nil, err
	}

	args := cfg.Nvim.Args
	var extra []*os.File
	if stdin {
		extra = append(extra, os.Stdin)
		args = append([]string{"-"}, args...)
	}
	log.Info("spawning editor", zap.String("binary", cfg.Nvim.Binary), zap.Strings("args", args))
	return rpc.Spawn(ctx, cfg.Nvim.Binary, args, extra)
}

// waitEditor reaps the spawned editor.  An exit caused by our own shutdown
// is not reported.
func waitEditor(ctx context.Context, cmd *exec.Cmd) {
	err := cmd.Wait()
	if err == nil || ctx.Err() != nil {
		return
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		logger.L(ctx).Warn("editor exited", zap.Int("code", exit.ExitCode()))
		return
	}
	logger.L(ctx).Error("wait for editor", zap.Error(err))
}
