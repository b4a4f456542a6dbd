package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/nexus/internal/navigate"
	"pkt.systems/nexus/schema"
)

func newClassifyCmd() *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "classify <input>",
		Short: "Show how address bar input is resolved",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := schema.NormalizeEngineName(engine)
			if err != nil {
				return fmt.Errorf("%w: %q", err, engine)
			}
			input := strings.Join(args, " ")
			res, err := navigate.Classify(input)
			out := cmd.OutOrStdout()
			switch {
			case errors.Is(err, schema.ErrInvalidAddress):
				_, werr := fmt.Fprintf(out, "invalid\t%s\n", err)
				return werr
			case err != nil:
				return err
			case res.IsAddress():
				_, err = fmt.Fprintf(out, "address\t%s\n", res.URL)
				return err
			default:
				_, err = fmt.Fprintf(out, "search\t%s\n", navigate.BuildSearchURL(name, res.Term))
				return err
			}
		},
	}
	cmd.Flags().StringVarP(&engine, "engine", "e", string(schema.DefaultEngine), "search engine for search terms")
	return cmd
}
