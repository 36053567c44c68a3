package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/meigma/asar"
)

func newPackCmd(a *app) *cobra.Command {
	var (
		excludeHidden bool
		force         bool
		blockSize     uint32
	)
	cmd := &cobra.Command{
		Use:     "pack <dir> <output>",
		Aliases: []string{"p"},
		Short:   "Create an archive from a directory (output - writes to stdout)",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, output := args[0], args[1]
			if !changed(cmd, "exclude-hidden") {
				excludeHidden = a.cfg.Pack.ExcludeHidden
			}
			if !changed(cmd, "force") {
				force = a.cfg.Pack.Force
			}
			if !changed(cmd, "block-size") {
				blockSize = a.cfg.Pack.BlockSize
			}

			opts := []asar.CreateOption{
				asar.CreateWithExcludeHidden(excludeHidden),
				asar.CreateWithLogger(a.logger),
			}
			if blockSize != 0 {
				opts = append(opts, asar.CreateWithBlockSize(blockSize))
			}

			if output == "-" {
				opts = append(opts, asar.CreateWithProgress(packProgress(cmd.ErrOrStderr())))
				_, err := asar.Create(cmd.Context(), dir, cmd.OutOrStdout(), opts...)
				return err
			}

			if !force {
				if _, err := os.Lstat(output); err == nil {
					return fmt.Errorf("%q already exists, use --force to overwrite", output)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}
			opts = append(opts,
				asar.CreateWithOverwrite(force),
				asar.CreateWithProgress(packProgress(cmd.OutOrStdout())),
			)
			stats, err := asar.CreateFile(cmd.Context(), dir, output, opts...)
			if err != nil {
				return err
			}
			a.logger.Debug("packed archive",
				"path", output,
				"files", stats.Files,
				"folders", stats.Folders,
				"symlinks", stats.Symlinks,
				"bytes", stats.Bytes,
			)
			return nil
		},
	}
	cmd.Flags().BoolVar(&excludeHidden, "exclude-hidden", false, "exclude hidden files")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite output file")
	cmd.Flags().Uint32Var(&blockSize, "block-size", 0, "integrity block size in bytes (default 4 MiB)")
	return cmd
}
