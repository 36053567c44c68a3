package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/asar/registry"
	"github.com/meigma/asar/registry/oras"
)

// registryFlags are shared by push and pull.
type registryFlags struct {
	plainHTTP bool
}

func (f *registryFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.plainHTTP, "plain-http", false, "use plain HTTP instead of HTTPS")
}

// registryClient builds a client for ref from flags and the config file.
// Static credentials from the config apply only to ref's registry; without
// them the docker credential store is used.
func (a *app) registryClient(cmd *cobra.Command, ref string, f *registryFlags) (*registry.Client, error) {
	parsed, err := oras.ParseReference(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", registry.ErrInvalidReference, ref)
	}

	plainHTTP := f.plainHTTP
	if !changed(cmd, "plain-http") {
		plainHTTP = a.cfg.Registry.PlainHTTP
	}

	rc := a.cfg.Registry
	opts := []registry.Option{
		registry.WithLogger(a.logger),
		registry.WithPlainHTTP(plainHTTP),
		registry.WithUserAgent("asar/" + version),
	}
	switch {
	case rc.Anonymous:
		opts = append(opts, registry.WithAnonymous())
	case rc.Token != "":
		opts = append(opts, registry.WithStaticToken(parsed.Registry, rc.Token))
	case rc.Username != "":
		opts = append(opts, registry.WithStaticCredentials(parsed.Registry, rc.Username, rc.Password))
	default:
		opts = append(opts, registry.WithDockerConfig())
	}
	return registry.New(opts...), nil
}

func newPushCmd(a *app) *cobra.Command {
	var (
		flags       registryFlags
		tags        []string
		annotations map[string]string
	)
	cmd := &cobra.Command{
		Use:   "push <archive> <ref>",
		Short: "Push an archive to an OCI registry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.registryClient(cmd, args[1], &flags)
			if err != nil {
				return err
			}
			desc, err := c.Push(cmd.Context(), args[1], args[0],
				registry.WithTags(tags...),
				registry.WithAnnotations(annotations),
			)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), desc.Digest.String())
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "additional tags to apply")
	cmd.Flags().StringToStringVar(&annotations, "annotation", nil, "manifest annotation key=value")
	return cmd
}

func newPullCmd(a *app) *cobra.Command {
	var (
		flags   registryFlags
		force   bool
		maxSize int64
	)
	cmd := &cobra.Command{
		Use:   "pull <ref> <output>",
		Short: "Pull an archive from an OCI registry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.registryClient(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			m, err := c.Pull(cmd.Context(), args[0], args[1],
				registry.WithOverwrite(force),
				registry.WithMaxSize(maxSize),
			)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.Digest())
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite output file")
	cmd.Flags().Int64Var(&maxSize, "max-size", 0, "refuse archives larger than this many bytes (0 for no limit)")
	return cmd
}
