package main

import (
	"bufio"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/meigma/asar"
)

func newExtractFileCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "extract-file <archive> <filename>",
		Aliases: []string{"ef"},
		Short:   "Extract one file from an archive",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ar, err := a.openArchive(cmd, args[0])
			if err != nil {
				return err
			}
			defer ar.Close()

			if output == "" || output == "-" {
				w := bufio.NewWriter(cmd.OutOrStdout())
				if err := asar.ExtractFile(ar, args[1], w); err != nil {
					return err
				}
				return w.Flush()
			}
			return extractFileTo(ar, args[1], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

// extractFileTo writes one archive file to path, removing it again if the
// content fails verification.
func extractFileTo(ar *asar.Archive, name, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			err = errors.Join(err, removeIfExists(path))
		}
	}()

	w := bufio.NewWriter(f)
	if err := asar.ExtractFile(ar, name, w); err != nil {
		return err
	}
	return w.Flush()
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func newExtractCmd(a *app) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:     "extract <archive> <dest>",
		Aliases: []string{"e"},
		Short:   "Extract every entry of an archive into a directory",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !changed(cmd, "quiet") {
				quiet = a.cfg.Extract.Quiet
			}
			ar, err := a.openArchive(cmd, args[0])
			if err != nil {
				return err
			}
			defer ar.Close()

			opts := []asar.ExtractOption{asar.ExtractWithLogger(a.logger)}
			if !quiet {
				opts = append(opts, asar.ExtractWithProgress(extractProgress(cmd.OutOrStdout())))
			}
			stats, err := asar.ExtractAll(cmd.Context(), ar, args[1], opts...)
			if err != nil {
				return err
			}
			a.logger.Debug("extracted archive", "dest", args[1], "entries", stats.Entries(), "bytes", stats.Bytes)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not list extracted entries")
	return cmd
}
