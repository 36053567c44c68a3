package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meigma/asar"
)

func newListCmd(a *app) *cobra.Command {
	var (
		format string
		human  bool
	)
	names := make([]string, len(asar.ListFormats))
	for i, f := range asar.ListFormats {
		names[i] = string(f)
	}

	cmd := &cobra.Command{
		Use:     "list <archive>",
		Aliases: []string{"l"},
		Short:   "List the entries of an archive (archive - reads stdin)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !changed(cmd, "format") {
				format = a.cfg.List.Format
			}
			if !changed(cmd, "human") {
				human = a.cfg.List.Human
			}
			lf, err := asar.ParseListFormat(format)
			if err != nil {
				return err
			}

			ar, err := a.openArchive(cmd, args[0])
			if err != nil {
				return err
			}
			defer ar.Close()

			w := bufio.NewWriter(cmd.OutOrStdout())
			if err := asar.List(w, ar, lf, asar.ListWithHumanSizes(human)); err != nil {
				return err
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(asar.ListShort),
		fmt.Sprintf("output format (%s)", strings.Join(names, ", ")))
	cmd.Flags().BoolVar(&human, "human", false, "print sizes in KiB, MiB, ... in verbose output")
	return cmd
}

// openArchive opens path, or reads the archive from stdin when path is "-".
func (a *app) openArchive(cmd *cobra.Command, path string) (*asar.Archive, error) {
	if path == "-" {
		return asar.NewReader(bufio.NewReader(cmd.InOrStdin()), asar.WithLogger(a.logger))
	}
	return asar.Open(path, asar.WithLogger(a.logger))
}
