package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pqlc-dev/pqlc/internal/diagnostic"
)

// NewBuildCommand compiles every *.pql file under a directory, optionally
// re-running on change.
func NewBuildCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "build <dir>",
		Short: "Compile every .pql file in a directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args[0], watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "recompile on file change")
	return cmd
}

func runBuild(cmd *cobra.Command, dir string, watch bool) error {
	cc, err := newCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cc.Close()

	if err := buildOnce(cmd, cc, dir); err != nil {
		return err
	}
	if !watch {
		return nil
	}
	return watchAndRebuild(cmd, cc, dir)
}

func buildOnce(cmd *cobra.Command, cc *commandContext, dir string) error {
	results, err := cc.compiler.CompileAll(dir, cc.opts)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", dir, err)
	}

	failed := 0
	for _, res := range results {
		if len(res.Diagnostics) > 0 {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s:\n", res.Path)
			src, _ := os.ReadFile(res.Path)
			fmt.Fprint(cmd.ErrOrStderr(), diagnostic.Render(res.Diagnostics, string(src), cc.opts.Display))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", res.Path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to compile", failed, len(results))
	}
	return nil
}

// watchAndRebuild rebuilds the whole directory whenever a .pql file under
// it changes, debounced the way the teacher's doc server debounces
// rebuilds against rapid successive writes from an editor/formatter.
func watchAndRebuild(cmd *cobra.Command, cc *commandContext, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s for changes (ctrl-c to stop)\n", dir)

	var debounce *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || filepath.Ext(event.Name) != ".pql" {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "change detected: %s\n", filepath.Base(event.Name))
				if err := buildOnce(cmd, cc, dir); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "rebuild error: %v\n", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watcher error: %v\n", err)
		}
	}
}

func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if len(info.Name()) > 0 && info.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}
