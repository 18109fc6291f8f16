package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/upb/rag-chat/services"
)

func newAskCmd(load dependencyLoader) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer one question from the indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			deps, err := load(ctx)
			if err != nil {
				return err
			}
			defer deps.Close(ctx)

			result, err := deps.ChatService.Answer(ctx, strings.Join(args, " "))
			if err != nil {
				if services.IsValidationError(err) {
					return errors.New(services.GetErrorMessage(err))
				}
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result.Answer)
			}

			fmt.Fprintln(out, result.Answer.Answer)
			if len(result.Answer.Sources) > 0 {
				fmt.Fprintln(out, "\nSources:")
				for _, source := range result.Answer.Sources {
					fmt.Fprintf(out, "  %s\n", source)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the answer as the /api/chat JSON payload")

	return cmd
}
