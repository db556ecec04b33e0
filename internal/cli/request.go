package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/squadcart/core/cache"
	"github.com/dmitrymomot/squadcart/core/logger"
)

func newGetCmd(rt *runtime) *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Fetch an API resource",
		Long:  "Fetch an API resource. Responses tagged with --tag are cached until a mutation invalidates the tag.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := rt.app.client.Query(cmd.Context(), args[0], toTags(tags)...)
			if resp != nil && len(resp.Body) > 0 && err != nil {
				printBody(cmd.ErrOrStderr(), resp.Body)
			}
			if err != nil {
				return fmt.Errorf("get %s: %w", args[0], err)
			}
			if resp.Cached {
				rt.logger.DebugContext(cmd.Context(), "served from cache", logger.Path(args[0]))
			}
			printBody(cmd.OutOrStdout(), resp.Body)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Cache tag for the response (repeatable)")
	return cmd
}

func newSendCmd(rt *runtime) *cobra.Command {
	var (
		data        string
		invalidates []string
	)

	cmd := &cobra.Command{
		Use:   "send <method> <path>",
		Short: "Send a mutation to the API",
		Long:  "Send POST, PUT, PATCH or DELETE with an optional JSON body. --invalidate drops cached responses carrying that tag.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			switch method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return fmt.Errorf("unsupported method %q", args[0])
			}

			var body any
			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				body = json.RawMessage(data)
			}

			resp, err := rt.app.client.Mutate(cmd.Context(), method, args[1], body, toTags(invalidates)...)
			if resp != nil && len(resp.Body) > 0 && err != nil {
				printBody(cmd.ErrOrStderr(), resp.Body)
			}
			if err != nil {
				return fmt.Errorf("%s %s: %w", method, args[1], err)
			}
			printBody(cmd.OutOrStdout(), resp.Body)
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Request body as JSON")
	cmd.Flags().StringSliceVar(&invalidates, "invalidate", nil, "Cache tag to invalidate on success (repeatable)")
	return cmd
}

func toTags(values []string) []cache.Tag {
	tags := make([]cache.Tag, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			tags = append(tags, cache.Tag(v))
		}
	}
	return tags
}

// printBody writes body, indented when it is JSON.
func printBody(w io.Writer, body []byte) {
	if len(body) == 0 {
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		w.Write(body)
		fmt.Fprintln(w)
		return
	}
	buf.WriteByte('\n')
	buf.WriteTo(w)
}
