package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/radoslav1992/ai-help-center/internal/service/image"
	"github.com/radoslav1992/ai-help-center/pkg/client"
)

func newImageCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "image <url>",
		Short: "Try an image URL's loading candidates in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hc := &http.Client{Timeout: opts.timeout}
			api, err := client.New(opts.server, hc)
			if err != nil {
				return err
			}

			ref, err := api.ImageCandidates(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetch candidates: %w", err)
			}

			out := cmd.OutOrStdout()
			for i, c := range ref.Candidates {
				fmt.Fprintf(out, "%d. %-9s %s\n", i+1, c.Strategy, c.URL)
			}

			prober, err := image.NewProber(hc, api.BaseURL())
			if err != nil {
				return err
			}
			resolver := image.NewResolver(ref)
			winner, err := prober.Probe(cmd.Context(), resolver)
			if err != nil {
				fmt.Fprintln(out, errorStyle.Render(resolver.Placeholder()))
				return nil
			}
			fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("loaded via %s (attempt %d)", winner.Strategy, resolver.Attempt())))
			return nil
		},
	}
}
