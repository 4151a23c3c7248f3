package main

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/catalog"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/service"
)

var linkCmd = &cobra.Command{
	Use:   "link url [url...]",
	Short: "Generate affiliate promotion links",
	Args:  cobra.RangeArgs(1, service.MaxLinkURLs),
	RunE:  runLink,
}

func init() {
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")

	builder, gateway := newCatalog()
	params, err := builder.Build(catalog.OperationLinkGenerate, catalog.LinkParams(args), []string{}, url.Values{})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	reply, err := gateway.Call(ctx, params)
	if err != nil {
		return fmt.Errorf("link generation failed: %w", err)
	}

	links := catalog.NormalizeLinks(reply)
	for i := range links {
		if links[i].ProductID == "" {
			links[i].ProductID = domain.ProductIDFromURL(links[i].SourceValue)
		}
	}
	return writeJSON(os.Stdout, links)
}
